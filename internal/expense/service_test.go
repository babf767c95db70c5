package expense

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/database"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

type testEnv struct {
	svc        *Service
	expenses   *store.ExpenseStore
	users      *store.UserStore
	households *store.HouseholdStore
	activities *store.ActivityStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	expenses := store.NewExpenseStore(db)
	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	activities := store.NewActivityStore(db)
	rec := activity.NewRecorder(activities, logger)

	return &testEnv{
		svc:        NewService(expenses, households, users, rec, logger),
		expenses:   expenses,
		users:      users,
		households: households,
		activities: activities,
	}
}

func (e *testEnv) seedHousehold(t *testing.T, n int) (*model.Household, []*model.User) {
	t.Helper()
	h, err := e.households.Create("Test House")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	members := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := e.users.Create(string(rune('a'+i))+"+"+h.ID+"@example.com", "Member", "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		role := model.RoleMember
		if i == 0 {
			role = model.RoleOwner
		}
		u, err = e.users.SetHousehold(u.ID, &h.ID, role)
		if err != nil {
			t.Fatalf("set household: %v", err)
		}
		members = append(members, u)
	}
	return h, members
}

func equalSplit(amount float64, members ...*model.User) []ShareInput {
	per := amount / float64(len(members))
	shares := make([]ShareInput, 0, len(members))
	for _, m := range members {
		shares = append(shares, ShareInput{OwedByID: m.ID, AmountOwed: per})
	}
	return shares
}

func TestCreateAutoSettlesPayerShare(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 3)
	payer := members[0]

	exp, err := e.svc.Create(CreateInput{
		Description: "Groceries",
		Amount:      30,
		Date:        time.Now().UTC(),
		PaidByID:    payer.ID,
		Shares:      equalSplit(30, members...),
	}, payer)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if len(exp.Shares) != 3 {
		t.Fatalf("got %d shares, want 3", len(exp.Shares))
	}
	for _, sh := range exp.Shares {
		wantSettled := sh.OwedByID == payer.ID
		if sh.IsSettled != wantSettled {
			t.Errorf("share of %s settled = %v, want %v", sh.OwedByID, sh.IsSettled, wantSettled)
		}
		if wantSettled && sh.SettledAt == nil {
			t.Error("auto-settled share should carry a settlement time")
		}
	}
}

func TestCreateRejectsBadShareSum(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)

	_, err := e.svc.Create(CreateInput{
		Description: "Rent",
		Amount:      100,
		Date:        time.Now().UTC(),
		PaidByID:    members[0].ID,
		Shares: []ShareInput{
			{OwedByID: members[0].ID, AmountOwed: 50},
			{OwedByID: members[1].ID, AmountOwed: 40},
		},
	}, members[0])

	var sumErr *ShareSumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("create = %v, want ShareSumError", err)
	}
	if sumErr.ShareSum != 90 || sumErr.Amount != 100 {
		t.Errorf("ShareSumError = %+v, want sum 90 amount 100", sumErr)
	}
}

func TestCreateToleratesFloatNoise(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 3)

	// 10/3 three times is not exactly 10 in floating point.
	_, err := e.svc.Create(CreateInput{
		Description: "Pizza",
		Amount:      10,
		Date:        time.Now().UTC(),
		PaidByID:    members[0].ID,
		Shares:      equalSplit(10, members...),
	}, members[0])
	if err != nil {
		t.Fatalf("create with float-noise split: %v", err)
	}
}

func TestCreateValidations(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	actor := members[0]

	outsider, err := e.users.Create("outsider@example.com", "Out", "hash")
	if err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	base := CreateInput{
		Description: "Utilities",
		Amount:      20,
		Date:        time.Now().UTC(),
		PaidByID:    actor.ID,
		Shares:      equalSplit(20, members...),
	}

	noShares := base
	noShares.Shares = nil
	if _, err := e.svc.Create(noShares, actor); !errors.Is(err, ErrEmptyShares) {
		t.Errorf("empty shares = %v, want ErrEmptyShares", err)
	}

	noPayer := base
	noPayer.PaidByID = ""
	if _, err := e.svc.Create(noPayer, actor); !errors.Is(err, ErrPayerRequired) {
		t.Errorf("missing payer = %v, want ErrPayerRequired", err)
	}

	outsidePayer := base
	outsidePayer.PaidByID = outsider.ID
	if _, err := e.svc.Create(outsidePayer, actor); !errors.Is(err, ErrNotMember) {
		t.Errorf("outside payer = %v, want ErrNotMember", err)
	}

	outsideShare := base
	outsideShare.Shares = []ShareInput{
		{OwedByID: actor.ID, AmountOwed: 10},
		{OwedByID: outsider.ID, AmountOwed: 10},
	}
	if _, err := e.svc.Create(outsideShare, actor); !errors.Is(err, ErrNotMember) {
		t.Errorf("outside share debtor = %v, want ErrNotMember", err)
	}
}

func TestUpdateAmountRequiresShares(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	actor := members[0]

	exp, err := e.svc.Create(CreateInput{
		Description: "Internet",
		Amount:      50,
		Date:        time.Now().UTC(),
		PaidByID:    actor.ID,
		Shares:      equalSplit(50, members...),
	}, actor)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	newAmount := 60.0
	if _, err := e.svc.Update(exp.ID, UpdateInput{Amount: &newAmount}, actor); !errors.Is(err, ErrAmountNeedsShares) {
		t.Errorf("amount-only update = %v, want ErrAmountNeedsShares", err)
	}

	updated, err := e.svc.Update(exp.ID, UpdateInput{
		Amount: &newAmount,
		Shares: equalSplit(60, members...),
	}, actor)
	if err != nil {
		t.Fatalf("update with shares: %v", err)
	}
	if updated.Amount != 60 {
		t.Errorf("amount = %v, want 60", updated.Amount)
	}
	if len(updated.Shares) != 2 {
		t.Errorf("got %d shares, want 2", len(updated.Shares))
	}
	for _, sh := range updated.Shares {
		if sh.AmountOwed != 30 {
			t.Errorf("share amount = %v, want 30", sh.AmountOwed)
		}
	}
}

func TestToggleShareSettlementAuthorization(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	payer, debtor := members[0], members[1]

	exp, err := e.svc.Create(CreateInput{
		Description: "Cleaning supplies",
		Amount:      20,
		Date:        time.Now().UTC(),
		PaidByID:    payer.ID,
		Shares:      equalSplit(20, members...),
	}, payer)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	var debtorShare *model.ExpenseShare
	for i := range exp.Shares {
		if exp.Shares[i].OwedByID == debtor.ID {
			debtorShare = &exp.Shares[i]
		}
	}
	if debtorShare == nil {
		t.Fatal("debtor share not found")
	}

	// Even the debtor cannot settle their own share; only the payer can.
	if _, err := e.svc.ToggleShareSettlement(debtorShare.ID, true, debtor); !errors.Is(err, ErrForbidden) {
		t.Errorf("debtor settling = %v, want ErrForbidden", err)
	}

	settled, err := e.svc.ToggleShareSettlement(debtorShare.ID, true, payer)
	if err != nil {
		t.Fatalf("payer settling: %v", err)
	}
	if !settled.IsSettled || settled.SettledAt == nil {
		t.Errorf("share should be settled with a timestamp, got %+v", settled)
	}

	unsettled, err := e.svc.ToggleShareSettlement(debtorShare.ID, false, payer)
	if err != nil {
		t.Fatalf("payer unsettling: %v", err)
	}
	if unsettled.IsSettled || unsettled.SettledAt != nil {
		t.Errorf("share should be unsettled with no timestamp, got %+v", unsettled)
	}
}

func TestToggleShareSettlementIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	payer := members[0]

	exp, err := e.svc.Create(CreateInput{
		Description: "Internet bill",
		Amount:      40,
		Date:        time.Now().UTC(),
		PaidByID:    payer.ID,
		Shares:      equalSplit(40, members...),
	}, payer)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	var shareID string
	for _, sh := range exp.Shares {
		if sh.OwedByID == members[1].ID {
			shareID = sh.ID
		}
	}

	first, err := e.svc.ToggleShareSettlement(shareID, true, payer)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if !first.IsSettled || first.SettledAt == nil {
		t.Fatalf("share should be settled after first call, got %+v", first)
	}

	// Settling an already-settled share succeeds and leaves it settled,
	// refreshing the timestamp.
	second, err := e.svc.ToggleShareSettlement(shareID, true, payer)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if !second.IsSettled || second.SettledAt == nil {
		t.Errorf("share should stay settled, got %+v", second)
	}
	if second.SettledAt.Before(*first.SettledAt) {
		t.Errorf("second settledAt %v predates first %v", second.SettledAt, first.SettledAt)
	}

	// Same for the unsettle direction.
	for i := 0; i < 2; i++ {
		un, err := e.svc.ToggleShareSettlement(shareID, false, payer)
		if err != nil {
			t.Fatalf("unsettle %d: %v", i+1, err)
		}
		if un.IsSettled || un.SettledAt != nil {
			t.Errorf("unsettle %d: share should be unsettled, got %+v", i+1, un)
		}
	}
}

func TestBalances(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 3)
	payer := members[0]

	exp, err := e.svc.Create(CreateInput{
		Description: "Groceries",
		Amount:      30,
		Date:        time.Now().UTC(),
		PaidByID:    payer.ID,
		Shares:      equalSplit(30, members...),
	}, payer)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	balances, err := e.svc.Balances(payer)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	byID := map[string]model.UserBalance{}
	for _, b := range balances {
		byID[b.UserID] = b
	}

	// Payer's own share was auto-settled, so they are owed the other two.
	if b := byID[payer.ID]; b.TotalPaid != 30 || b.TotalOwed != 0 || b.NetBalance != 30 {
		t.Errorf("payer balance = %+v, want paid 30 owed 0 net 30", b)
	}
	for _, m := range members[1:] {
		if b := byID[m.ID]; b.TotalPaid != 0 || b.TotalOwed != 10 || b.NetBalance != -10 {
			t.Errorf("member balance = %+v, want paid 0 owed 10 net -10", b)
		}
	}

	// Settling a share removes it from the debtor's side of the ledger.
	var debtorShare *model.ExpenseShare
	for i := range exp.Shares {
		if exp.Shares[i].OwedByID == members[1].ID {
			debtorShare = &exp.Shares[i]
		}
	}
	if _, err := e.svc.ToggleShareSettlement(debtorShare.ID, true, payer); err != nil {
		t.Fatalf("settle share: %v", err)
	}

	balances, err = e.svc.Balances(payer)
	if err != nil {
		t.Fatalf("balances after settle: %v", err)
	}
	for _, b := range balances {
		if b.UserID == members[1].ID && (b.TotalOwed != 0 || b.NetBalance != 0) {
			t.Errorf("settled debtor balance = %+v, want owed 0 net 0", b)
		}
	}
}

func TestSettleUpEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	payer, debtor := members[0], members[1]

	if _, err := e.svc.Create(CreateInput{
		Description: "Rent",
		Amount:      100,
		Date:        time.Now().UTC(),
		PaidByID:    payer.ID,
		Shares:      equalSplit(100, members...),
	}, payer); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	suggestions, err := e.svc.SettleUp(debtor)
	if err != nil {
		t.Fatalf("settle up: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(suggestions), suggestions)
	}
	s := suggestions[0]
	if s.FromUserID != debtor.ID || s.ToUserID != payer.ID || s.Amount != 50 {
		t.Errorf("suggestion = %+v, want %s pays %s 50.00", s, debtor.ID, payer.ID)
	}
}

func TestGetCrossHouseholdForbidden(t *testing.T) {
	e := newTestEnv(t)
	_, membersA := e.seedHousehold(t, 2)
	_, membersB := e.seedHousehold(t, 1)

	exp, err := e.svc.Create(CreateInput{
		Description: "Private expense",
		Amount:      10,
		Date:        time.Now().UTC(),
		PaidByID:    membersA[0].ID,
		Shares:      equalSplit(10, membersA...),
	}, membersA[0])
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if _, err := e.svc.Get(exp.ID, membersB[0]); !errors.Is(err, ErrForbidden) {
		t.Errorf("cross-household get = %v, want ErrForbidden", err)
	}
	if _, err := e.svc.Get("no-such-id", membersA[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing expense = %v, want ErrNotFound", err)
	}
}

func TestDeleteCascadesShares(t *testing.T) {
	e := newTestEnv(t)
	_, members := e.seedHousehold(t, 2)
	actor := members[0]

	exp, err := e.svc.Create(CreateInput{
		Description: "Old expense",
		Amount:      10,
		Date:        time.Now().UTC(),
		PaidByID:    actor.ID,
		Shares:      equalSplit(10, members...),
	}, actor)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	shareID := exp.Shares[0].ID

	if err := e.svc.Delete(exp.ID, actor); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := e.expenses.GetByID(exp.ID); err != nil || got != nil {
		t.Errorf("expense should be gone, got %v err %v", got, err)
	}
	if got, err := e.expenses.GetShare(shareID); err != nil || got != nil {
		t.Errorf("shares should cascade, got %v err %v", got, err)
	}
}
