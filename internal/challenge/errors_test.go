package challenge

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{ErrChallengeNotFound, KindNotFound},
		{fmt.Errorf("cancel: %w", ErrMemberChallengeNotFound), KindNotFound},
		{ErrChallengeNotStarted, KindInvalidState},
		{ErrChallengeAlreadyStarted, KindInvalidState},
		{ErrChallengeCannotWithdraw, KindInvalidState},
		{ErrAlreadyJoined, KindConflict},
		{ErrMemberNotEligible, KindEligibility},
		{fmt.Errorf("refund: %w: %w", ErrExternal, errors.New("timeout")), KindExternal},
		{ErrDegenerateInput, KindDegenerate},
		{ErrInvalidChallengeType, KindInvalid},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
