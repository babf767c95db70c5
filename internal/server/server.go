package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/auth"
	"github.com/haldaranup/Rent-Mate/internal/calendar"
	"github.com/haldaranup/Rent-Mate/internal/chore"
	"github.com/haldaranup/Rent-Mate/internal/config"
	"github.com/haldaranup/Rent-Mate/internal/email"
	"github.com/haldaranup/Rent-Mate/internal/expense"
	"github.com/haldaranup/Rent-Mate/internal/handler"
	"github.com/haldaranup/Rent-Mate/internal/household"
	"github.com/haldaranup/Rent-Mate/internal/invitation"
	"github.com/haldaranup/Rent-Mate/internal/middleware"
	"github.com/haldaranup/Rent-Mate/internal/store"
	ws "github.com/haldaranup/Rent-Mate/internal/websocket"
)

// Server wires stores, services, and handlers into an http.Handler.
type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	tokens      *auth.Tokens
	userStore   *store.UserStore
	authH       *handler.AuthHandler
	householdH  *handler.HouseholdHandler
	choreH      *handler.ChoreHandler
	expenseH    *handler.ExpenseHandler
	invitationH *handler.InvitationHandler
	activityH   *handler.ActivityHandler
	calendarH   *handler.CalendarHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	choreStore := store.NewChoreStore(db)
	expenseStore := store.NewExpenseStore(db)
	invitationStore := store.NewInvitationStore(db)
	activityStore := store.NewActivityStore(db)

	recorder := activity.NewRecorder(activityStore, logger.With("component", "activity"))
	tokens := auth.NewTokens(cfg.JWTSecret)
	mailer := email.NewMailer(cfg.PostmarkToken, cfg.MailFrom, cfg.BaseURL)

	householdSvc := household.NewService(householdStore, userStore, recorder, logger.With("component", "household"))
	choreSvc := chore.NewService(choreStore, householdStore, userStore, recorder, logger.With("component", "chore"))
	expenseSvc := expense.NewService(expenseStore, householdStore, userStore, recorder, logger.With("component", "expense"))
	invitationSvc := invitation.NewService(invitationStore, householdStore, userStore, mailer, recorder, logger.With("component", "invitation"))
	calendarSvc := calendar.NewService(choreStore, expenseStore, userStore)

	return &Server{
		db:          db,
		hub:         hub,
		tokens:      tokens,
		userStore:   userStore,
		authH:       handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth")),
		householdH:  handler.NewHouseholdHandler(householdSvc, hub, logger.With("component", "household")),
		choreH:      handler.NewChoreHandler(choreSvc, hub, logger.With("component", "chore")),
		expenseH:    handler.NewExpenseHandler(expenseSvc, hub, logger.With("component", "expense")),
		invitationH: handler.NewInvitationHandler(invitationSvc, hub, logger.With("component", "invitation")),
		activityH:   handler.NewActivityHandler(activityStore, logger.With("component", "activity")),
		calendarH:   handler.NewCalendarHandler(calendarSvc, logger.With("component", "calendar")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub for shutdown.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a bearer token.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(ws.HandleWebSocket(s.hub)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Households
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PATCH /api/households/{id}", s.householdH.Update)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Delete)
	mux.HandleFunc("DELETE /api/households/{id}/members/{userId}", s.householdH.RemoveMember)
	mux.HandleFunc("POST /api/households/leave", s.householdH.Leave)

	// Invitations
	mux.HandleFunc("POST /api/invitations/email", s.invitationH.CreateEmail)
	mux.HandleFunc("POST /api/invitations/short-code", s.invitationH.CreateShortCode)
	mux.HandleFunc("POST /api/invitations/accept", s.invitationH.Accept)
	mux.HandleFunc("POST /api/invitations/join-by-code", s.invitationH.JoinByCode)
	mux.HandleFunc("POST /api/invitations/decline", s.invitationH.Decline)
	mux.HandleFunc("GET /api/invitations/pending", s.invitationH.ListMine)
	mux.HandleFunc("DELETE /api/invitations/{id}", s.invitationH.Cancel)
	mux.HandleFunc("GET /api/households/{id}/invitations", s.invitationH.ListPendingHousehold)

	// Chores
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/counts", s.choreH.Counts)
	mux.HandleFunc("GET /api/chores/unassigned", s.choreH.Unassigned)
	mux.HandleFunc("GET /api/chores/mine", s.choreH.Mine)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PATCH /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/toggle", s.choreH.Toggle)

	// Expenses
	mux.HandleFunc("POST /api/expenses", s.expenseH.Create)
	mux.HandleFunc("GET /api/expenses", s.expenseH.List)
	mux.HandleFunc("GET /api/households/{id}/balances", s.expenseH.Balances)
	mux.HandleFunc("GET /api/households/{id}/settle-up", s.expenseH.SettleUp)
	mux.HandleFunc("GET /api/expenses/{id}", s.expenseH.Get)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.expenseH.Update)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.expenseH.Delete)
	mux.HandleFunc("POST /api/expense-shares/{id}/settle", s.expenseH.SettleShare)

	// Activity feed and calendar
	mux.HandleFunc("GET /api/activity", s.activityH.List)
	mux.HandleFunc("GET /api/calendar/events", s.calendarH.Events)
}
