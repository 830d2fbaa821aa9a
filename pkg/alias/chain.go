package alias

import (
	"context"
)

// DefaultMaxHops bounds how many alias-to-alias hops a chain may take
// before resolution gives up and returns whatever it reached last.
const DefaultMaxHops = 10

// Outcome tags the result of resolving an alias chain.
type Outcome int

const (
	// OutcomeResolved means a non-alias path was reached.
	OutcomeResolved Outcome = iota
	// OutcomeUnresolved means a hop failed to resolve. The entry should
	// be copied literally.
	OutcomeUnresolved
	// OutcomeTruncated means resolution stopped while the path was still
	// an alias: either the hop bound was exhausted or the alias pointed
	// at itself. The returned path is a best-effort answer, not an error.
	OutcomeTruncated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Resolution is the result of following an alias chain.
type Resolution struct {
	// Path is the last path reached. Empty when Outcome is
	// OutcomeUnresolved.
	Path string
	// Outcome tags how resolution terminated.
	Outcome Outcome
	// Hops counts resolution steps actually taken.
	Hops int
}

// ResolveChain follows a chain of aliases-pointing-to-aliases starting at
// path until a non-alias target is reached, a hop fails, the alias points
// at itself, or maxHops is exhausted. maxHops <= 0 uses DefaultMaxHops.
//
// An alias chain that oscillates between two distinct aliases is not
// detected as a cycle; it is truncated at the hop bound like any other
// over-long chain.
func ResolveChain(ctx context.Context, svc Service, path string, maxHops int) Resolution {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	current := path
	for hop := 0; hop < maxHops; hop++ {
		if !svc.IsAlias(ctx, current) {
			return Resolution{Path: current, Outcome: OutcomeResolved, Hops: hop}
		}

		target, ok := svc.Resolve(ctx, current)
		if !ok {
			return Resolution{Outcome: OutcomeUnresolved, Hops: hop}
		}

		if target == current {
			// Self-referential alias. Stop here instead of spinning
			// until the bound.
			return Resolution{Path: current, Outcome: OutcomeTruncated, Hops: hop}
		}

		current = target
	}

	// Bound exhausted with current still an alias. Hand it back anyway;
	// the caller can copy it literally.
	return Resolution{Path: current, Outcome: OutcomeTruncated, Hops: maxHops}
}
