package product

import "errors"

// ErrInvalidAction is returned for an unknown moderation action string.
var ErrInvalidAction = errors.New("invalid moderation action")

// Action is one of the moderation actions the admin UI can apply to an image
// reference. The reachable states are pending (neither flag), approved, and
// rejected; approved and rejected are mutually exclusive.
type Action string

const (
	ActionApprove   Action = "approve"
	ActionUnapprove Action = "unapprove"
	ActionReject    Action = "reject"
	ActionUnreject  Action = "unreject"
)

// ParseAction validates an action string from a request body.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionUnapprove, ActionReject, ActionUnreject:
		return Action(s), nil
	}
	return "", ErrInvalidAction
}

// apply returns the moderation flags after applying the action to the current
// flags. Applying an action to a state it already produced is a no-op, so the
// result never has both flags set as long as the input does not.
func (a Action) apply(approved, rejected bool) (bool, bool, error) {
	switch a {
	case ActionApprove:
		return true, false, nil
	case ActionReject:
		return false, true, nil
	case ActionUnapprove:
		return false, rejected, nil
	case ActionUnreject:
		return approved, false, nil
	}
	return approved, rejected, ErrInvalidAction
}
