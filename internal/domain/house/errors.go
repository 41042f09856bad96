package house

import "errors"

var (
	ErrHouseNotFound     = errors.New("house not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrNotMember         = errors.New("not a member of this house")
	ErrNotOwner          = errors.New("not owner")
	ErrAlreadyMember     = errors.New("already a member")
	ErrCannotRemoveOwner = errors.New("cannot remove owner")
	ErrValidation        = errors.New("invalid input")
)
