package complaint

import (
	"errors"
)

var (
	ErrValidation             = errors.New("validation error")
	ErrAuthorization          = errors.New("not allowed")
	ErrInvalidState           = errors.New("invalid complaint state")
	ErrNotFound               = errors.New("complaint not found")
	ErrInvalidTeacher         = errors.New("invalid teacher")
	ErrNoPendingComplaints    = errors.New("no pending complaints")
	ErrNoTeachersAvailable    = errors.New("no teachers available")
	ErrConflictRetryExhausted = errors.New("assignment conflicted too many times, try again")
)

// Stable error kinds, as returned by KindOf.
const (
	KindOK                     = "ok"
	KindValidation             = "validation"
	KindAuthorization          = "authorization"
	KindInvalidState           = "invalid_state"
	KindNotFound               = "not_found"
	KindInvalidTeacher         = "invalid_teacher"
	KindNoPendingComplaints    = "no_pending_complaints"
	KindNoTeachersAvailable    = "no_teachers_available"
	KindConflictRetryExhausted = "conflict_retry_exhausted"
	KindInternal               = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, KindValidation},
	{ErrAuthorization, KindAuthorization},
	{ErrInvalidState, KindInvalidState},
	{ErrNotFound, KindNotFound},
	{ErrInvalidTeacher, KindInvalidTeacher},
	{ErrNoPendingComplaints, KindNoPendingComplaints},
	{ErrNoTeachersAvailable, KindNoTeachersAvailable},
	{ErrConflictRetryExhausted, KindConflictRetryExhausted},
}

// KindOf returns the stable kind of err. Unknown errors are "internal".
func KindOf(err error) string {
	if err == nil {
		return KindOK
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
