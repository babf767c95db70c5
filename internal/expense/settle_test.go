package expense

import (
	"math"
	"testing"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

func bal(userID string, net float64) model.UserBalance {
	return model.UserBalance{UserID: userID, Name: userID, NetBalance: net}
}

func TestSuggestionsPairsLargestFirst(t *testing.T) {
	got := Suggestions([]model.UserBalance{
		bal("a", -30),
		bal("b", 10),
		bal("c", 20),
	})

	want := []struct {
		from, to string
		amount   float64
	}{
		{"a", "c", 20},
		{"a", "b", 10},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].FromUserID != w.from || got[i].ToUserID != w.to || got[i].Amount != w.amount {
			t.Errorf("suggestion %d = %s->%s %.2f, want %s->%s %.2f",
				i, got[i].FromUserID, got[i].ToUserID, got[i].Amount, w.from, w.to, w.amount)
		}
	}
}

func TestSuggestionsSettleEverything(t *testing.T) {
	balances := []model.UserBalance{
		bal("a", -45.5),
		bal("b", -12.25),
		bal("c", 30),
		bal("d", 27.75),
	}
	got := Suggestions(balances)

	// Applying every suggestion must bring every party to zero.
	net := map[string]float64{}
	for _, b := range balances {
		net[b.UserID] = b.NetBalance
	}
	for _, s := range got {
		net[s.FromUserID] += s.Amount
		net[s.ToUserID] -= s.Amount
	}
	for id, v := range net {
		if math.Abs(v) > 0.01 {
			t.Errorf("user %s left with %.2f after settling", id, v)
		}
	}
}

func TestSuggestionsIgnoresSettledParties(t *testing.T) {
	got := Suggestions([]model.UserBalance{
		bal("a", 0),
		bal("b", -0.0005),
		bal("c", 0.0005),
	})
	if len(got) != 0 {
		t.Errorf("near-zero balances should produce no transfers, got %+v", got)
	}
}

func TestSuggestionsEmpty(t *testing.T) {
	if got := Suggestions(nil); got != nil {
		t.Errorf("no balances should produce nil, got %+v", got)
	}
}

func TestSuggestionsRoundsToCents(t *testing.T) {
	got := Suggestions([]model.UserBalance{
		bal("a", -10.0/3),
		bal("b", 10.0/3),
	})
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0].Amount != 3.33 {
		t.Errorf("amount = %v, want 3.33", got[0].Amount)
	}
}
