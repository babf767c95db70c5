package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/haldaranup/Rent-Mate/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients for the caller's household. The
// route must sit behind the auth middleware.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if ac.HouseholdID == "" {
			http.Error(w, "no household", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Browser clients connect cross-origin from the SPA dev server
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, ac.HouseholdID)
		client.Run(r.Context())
	}
}
