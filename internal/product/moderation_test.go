package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"approve", "unapprove", "reject", "unreject"} {
		a, err := ParseAction(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, Action(valid), a)
	}

	for _, invalid := range []string{"", "delete", "Approve", "APPROVE", "ok"} {
		_, err := ParseAction(invalid)
		assert.ErrorIs(t, err, ErrInvalidAction, "%q should be rejected", invalid)
	}
}

func TestActionTransitions(t *testing.T) {
	type state struct{ approved, rejected bool }
	pending := state{false, false}
	approved := state{true, false}
	rejected := state{false, true}

	tests := []struct {
		name   string
		action Action
		from   state
		want   state
	}{
		{"approve from pending", ActionApprove, pending, approved},
		{"approve from rejected", ActionApprove, rejected, approved},
		{"approve is idempotent", ActionApprove, approved, approved},
		{"reject from pending", ActionReject, pending, rejected},
		{"reject from approved", ActionReject, approved, rejected},
		{"reject is idempotent", ActionReject, rejected, rejected},
		{"unapprove returns to pending", ActionUnapprove, approved, pending},
		{"unapprove keeps rejected", ActionUnapprove, rejected, rejected},
		{"unapprove from pending is a no-op", ActionUnapprove, pending, pending},
		{"unreject returns to pending", ActionUnreject, rejected, pending},
		{"unreject keeps approved", ActionUnreject, approved, approved},
		{"unreject from pending is a no-op", ActionUnreject, pending, pending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotApproved, gotRejected, err := tt.action.apply(tt.from.approved, tt.from.rejected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state{gotApproved, gotRejected})
		})
	}
}

// Every state reachable through any action sequence keeps the flags mutually
// exclusive.
func TestFlagsNeverBothTrue(t *testing.T) {
	actions := []Action{ActionApprove, ActionUnapprove, ActionReject, ActionUnreject}

	type state struct{ approved, rejected bool }
	seen := map[state]bool{{false, false}: true}
	frontier := []state{{false, false}}

	for len(frontier) > 0 {
		s := frontier[0]
		frontier = frontier[1:]
		for _, a := range actions {
			approved, rejected, err := a.apply(s.approved, s.rejected)
			require.NoError(t, err)
			require.False(t, approved && rejected, "action %s from %+v", a, s)
			next := state{approved, rejected}
			if !seen[next] {
				seen[next] = true
				frontier = append(frontier, next)
			}
		}
	}

	// pending, approved, rejected — and nothing else
	assert.Len(t, seen, 3)
}

func TestSetFlagsEnforcesExclusivity(t *testing.T) {
	store := newMemStore()
	seedProduct(t, store, "P1", "a.jpg")

	doc, err := store.SetFlags(context.Background(), "P1", "obj-a.jpg", true, true)
	require.NoError(t, err)
	assert.True(t, doc.Images[0].Approved, "approved wins when both flags are requested")
	assert.False(t, doc.Images[0].Rejected)
}

func TestApproveUnapproveRoundTrip(t *testing.T) {
	approved, rejected, err := ActionApprove.apply(false, false)
	require.NoError(t, err)
	approved, rejected, err = ActionUnapprove.apply(approved, rejected)
	require.NoError(t, err)
	assert.False(t, approved)
	assert.False(t, rejected)
}
