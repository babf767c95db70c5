package email

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// roundTripFunc lets a test stand in for the Postmark API.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func testClient(f roundTripFunc) *http.Client {
	return &http.Client{Transport: f}
}

func TestSendInvitationUnconfigured(t *testing.T) {
	m := NewMailer("", "from@example.com", "http://localhost")
	if m.Configured() {
		t.Error("mailer with no token should not report configured")
	}
	if err := m.SendInvitation(context.Background(), "to@example.com", "tok", "Flat", "Ann"); err == nil {
		t.Error("sending without a token should fail")
	}
}

func TestSendInvitationRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("X-Postmark-Server-Token"); got != "secret" {
			t.Errorf("server token header = %q", got)
		}
		status := http.StatusInternalServerError
		if calls.Add(1) >= 2 {
			status = http.StatusOK
		}
		return &http.Response{StatusCode: status, Body: http.NoBody}, nil
	})

	m := NewMailer("secret", "from@example.com", "http://localhost", WithHTTPClient(client))
	if err := m.SendInvitation(context.Background(), "to@example.com", "tok", "Flat", "Ann"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one failure, one retry)", calls.Load())
	}
}

func TestSendInvitationDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusUnprocessableEntity, Body: http.NoBody}, nil
	})

	m := NewMailer("secret", "from@example.com", "http://localhost", WithHTTPClient(client))
	err := m.SendInvitation(context.Background(), "to@example.com", "tok", "Flat", "Ann")
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("send = %v, want 422 error", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}
