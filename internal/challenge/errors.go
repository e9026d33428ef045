package challenge

import "errors"

var (
	ErrChallengeNotFound       = errors.New("challenge not found")
	ErrMemberNotFound          = errors.New("member not found")
	ErrMemberChallengeNotFound = errors.New("member is not in the challenge")
	ErrQuizNotFound            = errors.New("quiz not found")

	ErrChallengeNotStarted      = errors.New("challenge not started")
	ErrChallengeAlreadyStarted  = errors.New("challenge already started")
	ErrChallengeEnded           = errors.New("challenge already ended")
	ErrChallengeCannotWithdraw  = errors.New("challenge type does not allow withdrawal")
	ErrChallengeHasParticipants = errors.New("challenge has participants")

	ErrAlreadyJoined     = errors.New("member already joined the challenge")
	ErrQuizAlreadySolved = errors.New("quiz already solved today")
	ErrMemberExists      = errors.New("member email already registered")

	ErrMemberNotEligible = errors.New("member has no challenge account")

	ErrExternal = errors.New("external service failed")

	ErrDegenerateInput = errors.New("not enough participants to split rewards")

	ErrInvalidChallengeType = errors.New("invalid challenge type")
	ErrInvalidDeposit       = errors.New("deposit must not be negative")
	ErrInvalidInput         = errors.New("invalid input")
)

// ErrorKind groups errors by how a caller should react to them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindConflict
	KindEligibility
	KindExternal
	KindDegenerate
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindEligibility:
		return "eligibility"
	case KindExternal:
		return "external"
	case KindDegenerate:
		return "degenerate"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrChallengeNotFound, KindNotFound},
	{ErrMemberNotFound, KindNotFound},
	{ErrMemberChallengeNotFound, KindNotFound},
	{ErrQuizNotFound, KindNotFound},
	{ErrChallengeNotStarted, KindInvalidState},
	{ErrChallengeAlreadyStarted, KindInvalidState},
	{ErrChallengeEnded, KindInvalidState},
	{ErrChallengeCannotWithdraw, KindInvalidState},
	{ErrChallengeHasParticipants, KindInvalidState},
	{ErrAlreadyJoined, KindConflict},
	{ErrQuizAlreadySolved, KindConflict},
	{ErrMemberExists, KindConflict},
	{ErrMemberNotEligible, KindEligibility},
	{ErrExternal, KindExternal},
	{ErrDegenerateInput, KindDegenerate},
	{ErrInvalidChallengeType, KindInvalid},
	{ErrInvalidDeposit, KindInvalid},
	{ErrInvalidInput, KindInvalid},
}

// Kind classifies err. Errors that wrap none of the package sentinels are
// KindUnknown.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
