package capability

// Well-known constraint keys checked during coverage evaluation.
const (
	// ConstraintRateLimit bounds the number of operations per accounting
	// window; the current count is supplied by the caller.
	ConstraintRateLimit = "rate_limit"

	// ConstraintPlatform restricts the transport platform a message may
	// arrive on, as declared by the message.
	ConstraintPlatform = "platform"
)

// Context carries the request-time facts constraints are evaluated against.
type Context struct {
	// Platform is the transport platform declared by the message.
	Platform string

	// RateCount is the number of operations the sender has already performed
	// in the current accounting window, supplied by the caller's counter.
	RateCount float64

	// Values holds request facts for constraint keys beyond the well-known
	// ones, keyed by constraint name.
	Values map[string]string
}

// Covers returns the first capability in the list that covers the requested
// resource and action with all of its constraints satisfied by the context.
// Returns nil and false when no capability covers the request.
func Covers(caps []Capability, resource string, action Action, ctx Context) (*Capability, bool) {
	for i := range caps {
		if !MatchResource(caps[i].Resource, resource) {
			continue
		}
		if !caps[i].PermitsAction(action) {
			continue
		}
		if !constraintsSatisfied(caps[i].Constraints, ctx) {
			continue
		}
		return &caps[i], true
	}
	return nil, false
}

// constraintsSatisfied checks every constraint on a capability against the
// request context. An unknown constraint key with no corresponding context
// value fails closed: a constraint we cannot evaluate is treated as violated.
func constraintsSatisfied(constraints map[string]Constraint, ctx Context) bool {
	for key, constraint := range constraints {
		if !constraintSatisfied(key, constraint, ctx) {
			return false
		}
	}
	return true
}

func constraintSatisfied(key string, constraint Constraint, ctx Context) bool {
	switch key {
	case ConstraintRateLimit:
		if constraint.Kind() != KindNumber {
			return false
		}
		return ctx.RateCount < constraint.num

	case ConstraintPlatform:
		switch constraint.Kind() {
		case KindString:
			return ctx.Platform == constraint.str
		case KindSet:
			for _, allowed := range constraint.set {
				if ctx.Platform == allowed {
					return true
				}
			}
			return false
		default:
			return false
		}

	default:
		value, ok := ctx.Values[key]
		if !ok {
			return false
		}
		switch constraint.Kind() {
		case KindString:
			return value == constraint.str
		case KindSet:
			for _, allowed := range constraint.set {
				if value == allowed {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
}
