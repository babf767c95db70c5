package chore

import "errors"

var (
	// ErrNotFound means the chore does not exist.
	ErrNotFound = errors.New("chore not found")

	// ErrForbidden means the acting user lacks rights for the mutation.
	ErrForbidden = errors.New("not allowed")

	// ErrNotMember means a referenced user is not a member of the
	// chore's household.
	ErrNotMember = errors.New("user is not a member of this household")

	// ErrNoHousehold means the acting user does not belong to a household.
	ErrNoHousehold = errors.New("user does not belong to a household")

	// ErrInvalidRecurrence means an unknown recurrence value was supplied.
	ErrInvalidRecurrence = errors.New("invalid recurrence")

	// ErrIntegrity signals a broken relation, such as a chore without a
	// household. It is an internal condition, not a caller mistake.
	ErrIntegrity = errors.New("data integrity error")
)
