package matcher

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
)

// MaxPredicateSets limits the number of values evaluated in one run.
const MaxPredicateSets = 8

var (
	// ErrPatternCompile is returned if a regular expression cannot be compiled.
	ErrPatternCompile = errors.New("could not compile regular expression")

	// ErrNoValidData is returned if a value cannot be evaluated.
	ErrNoValidData = errors.New("no valid data returned")

	// ErrTooManyPredicates is returned for more than MaxPredicateSets values.
	ErrTooManyPredicates = fmt.Errorf("too many values, at most %d are supported", MaxPredicateSets)
)

// Tier holds the numeric predicates of one severity level.
// GT, GE, EQ and NE compare against Upper, LT and LE against Lower.
type Tier[T threshold.Number] struct {
	GT, LT, GE, LE, EQ, NE bool
	Lower, Upper           T
	Present                bool // alert if a value is returned at all
}

// Numeric returns true if any numeric predicate is active.
func (t *Tier[T]) Numeric() bool {
	return t.GT || t.LT || t.GE || t.LE || t.EQ || t.NE
}

// Fires returns true if the value matches the tier.
// With GT and LT set and Lower > Upper the tier fires inside [Upper, Lower].
func (t *Tier[T]) Fires(value T) bool {
	if t.GT && t.LT && t.Lower > t.Upper {
		return value <= t.Lower && value >= t.Upper
	}

	return (t.GT && value > t.Upper) ||
		(t.GE && value >= t.Upper) ||
		(t.LT && value < t.Lower) ||
		(t.LE && value <= t.Lower) ||
		(t.EQ && value == t.Upper) ||
		(t.NE && value != t.Upper)
}

// TierFromRange converts a threshold range into predicates.
func TierFromRange[T threshold.Number](rng *threshold.Range[T]) Tier[T] {
	tier := Tier[T]{}
	if rng == nil {
		return tier
	}

	lower, hasLower := rng.Lower()
	upper, hasUpper := rng.Upper()
	if !rng.Inverted() {
		tier.LT, tier.Lower = hasLower, lower
		tier.GT, tier.Upper = hasUpper, upper

		return tier
	}

	switch {
	case hasLower && hasUpper && lower == upper:
		tier.EQ, tier.Upper = true, upper
	case hasLower && hasUpper:
		// swapped bounds fire inside
		tier.GT, tier.LT = true, true
		tier.Lower, tier.Upper = upper, lower
	case hasLower:
		tier.GE, tier.Upper = true, lower
	case hasUpper:
		tier.LE, tier.Lower = true, upper
	}

	return tier
}

// Observation is a single value returned by the queried resource.
type Observation[T threshold.Number] struct {
	Value   T      // numeric value, only valid if Numeric is set
	Numeric bool   // value could be parsed as number
	Text    string // raw response
	Present bool   // a value has been returned
}

// PredicateSet contains everything a single value is tested against.
// Numeric predicates win over string equality, which wins over the regular expression,
// which wins over presence tests.
type PredicateSet[T threshold.Number] struct {
	Warning  Tier[T]
	Critical Tier[T]
	Expected *string
	Regex    *regexp.Regexp
}

// CompileRegex compiles the pattern used by PredicateSet.Regex.
func CompileRegex(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	reg, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPatternCompile, err.Error())
	}

	return reg, nil
}

// Evaluate returns the state for given observation.
func (p *PredicateSet[T]) Evaluate(obs Observation[T]) (check.State, error) {
	switch {
	case p.Warning.Numeric() || p.Critical.Numeric():
		if !obs.Present || !obs.Numeric {
			return check.Unknown, ErrNoValidData
		}
		state := check.OK
		if p.Warning.Fires(obs.Value) {
			state = check.Warning
		}
		if p.Critical.Fires(obs.Value) {
			state = check.Critical
		}

		return state, nil
	case p.Expected != nil:
		if obs.Present && obs.Text == *p.Expected {
			return check.OK, nil
		}

		return check.Critical, nil
	case p.Regex != nil:
		if obs.Present && p.Regex.MatchString(obs.Text) {
			return check.OK, nil
		}

		return check.Critical, nil
	case p.Critical.Present:
		if obs.Present {
			return check.Critical, nil
		}

		return check.OK, nil
	case p.Warning.Present:
		if obs.Present {
			return check.Warning, nil
		}

		return check.OK, nil
	}

	if !obs.Present {
		return check.Unknown, ErrNoValidData
	}

	return check.OK, nil
}

// EvaluateAll evaluates each observation with the predicate set at the same index.
// It returns the individual states and the worst state.
func EvaluateAll[T threshold.Number](sets []*PredicateSet[T], observations []Observation[T]) ([]check.State, check.State, error) {
	if len(sets) > MaxPredicateSets {
		return nil, check.Unknown, ErrTooManyPredicates
	}
	if len(sets) != len(observations) {
		return nil, check.Unknown, fmt.Errorf("got %d values for %d predicate sets", len(observations), len(sets))
	}

	states := make([]check.State, 0, len(sets))
	for i, set := range sets {
		state, err := set.Evaluate(observations[i])
		if err != nil {
			return nil, check.Unknown, err
		}
		states = append(states, state)
	}

	total, err := check.Aggregate(states...)
	if err != nil {
		return nil, check.Unknown, fmt.Errorf("%w", err)
	}

	return states, total, nil
}
