package circuitbreaker

type State int

const (
	// requests pass through
	StateClosed State = iota

	// requests fail immediately
	StateOpen

	// one call at a time is let through to test recovery
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
