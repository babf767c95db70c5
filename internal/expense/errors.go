package expense

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the expense or share does not exist.
	ErrNotFound = errors.New("expense not found")

	// ErrForbidden means the acting user lacks rights for the operation.
	ErrForbidden = errors.New("not allowed")

	// ErrNoHousehold means the acting user does not belong to a household.
	ErrNoHousehold = errors.New("user does not belong to a household")

	// ErrNotMember means a payer or share debtor is not a household member.
	ErrNotMember = errors.New("user is not a member of this household")

	// ErrEmptyShares means an expense was submitted without any shares.
	ErrEmptyShares = errors.New("expense shares must be provided and cannot be empty")

	// ErrPayerRequired means an expense would end up without a payer.
	ErrPayerRequired = errors.New("an expense must have a payer")

	// ErrAmountNeedsShares means the amount changed but the share split was
	// not re-specified, which would leave the split inconsistent.
	ErrAmountNeedsShares = errors.New("new shares must be provided when the expense amount changes")

	// ErrIntegrity signals a broken relation, such as a share without a
	// parent expense.
	ErrIntegrity = errors.New("data integrity error")
)

// shareSumTolerance absorbs float representation noise when comparing the
// share sum against the expense amount.
const shareSumTolerance = 0.001

// ShareSumError reports a share split that does not add up to the expense
// amount.
type ShareSumError struct {
	ShareSum float64
	Amount   float64
}

func (e *ShareSumError) Error() string {
	return fmt.Sprintf("sum of share amounts (%.2f) does not match total expense amount (%.2f)", e.ShareSum, e.Amount)
}
