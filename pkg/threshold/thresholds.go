package threshold

import (
	"fmt"

	"github.com/consol-monitoring/checkplugins/pkg/check"
)

// Thresholds combines the warning and critical range of a plugin.
type Thresholds[T Number] struct {
	Warning  *Range[T]
	Critical *Range[T]
}

// NewThresholds parses both ranges, empty strings leave the range unset.
func NewThresholds[T Number](warn, crit string, opts ...Option[T]) (*Thresholds[T], error) {
	thresholds := &Thresholds[T]{}

	if warn != "" {
		rng, err := Parse[T](warn, opts...)
		if err != nil {
			return nil, fmt.Errorf("warning range: %w", err)
		}
		thresholds.Warning = rng
	}

	if crit != "" {
		rng, err := Parse[T](crit, opts...)
		if err != nil {
			return nil, fmt.Errorf("critical range: %w", err)
		}
		thresholds.Critical = rng
	}

	return thresholds, nil
}

// Get returns the state for given value.
func (t *Thresholds[T]) Get(value T) check.State {
	if t == nil {
		return check.OK
	}

	return Evaluate(value, t.Warning, t.Critical)
}
