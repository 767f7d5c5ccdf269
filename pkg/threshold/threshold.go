package threshold

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
)

// Number lists the value types a Range can be used with.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// ErrInvalidRange is returned for range specifications which cannot be parsed.
var ErrInvalidRange = errors.New("invalid range specification")

// allowed characters after the optional leading @
const rangeChars = "0123456789.:-~"

// Range contains the threshold logic: https://www.monitoring-plugins.org/doc/guidelines.html#THRESHOLDFORMAT
//
// A standard range fires if the value is outside of [lower, upper], an inverted
// range (leading @) fires if the value is inside. Missing bounds are unbounded.
// Swapped bounds without @ fire strictly between both values.
type Range[T Number] struct {
	input    string
	lower    T
	upper    T
	hasLower bool
	hasUpper bool
	inverted bool
	swapped  bool
}

// Option changes how Parse handles a range specification.
type Option[T Number] func(*parseConfig[T])

type parseConfig[T Number] struct {
	defaultLower    T
	hasDefaultLower bool
}

// DefaultLower sets the lower bound used for the bare "max" form.
// Without this option "max" has no lower bound.
func DefaultLower[T Number](lower T) Option[T] {
	return func(conf *parseConfig[T]) {
		conf.defaultLower = lower
		conf.hasDefaultLower = true
	}
}

// String returns the range as given.
func (r *Range[T]) String() string {
	if r == nil {
		return ""
	}

	return r.input
}

// Lower returns the lower bound and whether it is set.
func (r *Range[T]) Lower() (T, bool) {
	return r.lower, r.hasLower
}

// Upper returns the upper bound and whether it is set.
func (r *Range[T]) Upper() (T, bool) {
	return r.upper, r.hasUpper
}

// Inverted returns true if the range alerts inside its bounds.
func (r *Range[T]) Inverted() bool {
	return r.inverted
}

// Swapped returns true if the range was given as max:min.
func (r *Range[T]) Swapped() bool {
	return r.swapped
}

// Parse constructs a new Range from string.
//
//	10      < 0 or > 10 with DefaultLower(0), > 10 otherwise
//	10:     < 10
//	~:10    > 10
//	10:20   < 10 or > 20
//	@10:20  >= 10 and <= 20
//	20:10   > 10 and < 20
func Parse[T Number](def string, opts ...Option[T]) (*Range[T], error) {
	conf := parseConfig[T]{}
	for _, o := range opts {
		o(&conf)
	}

	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("%w: empty range", ErrInvalidRange)
	}

	rng := &Range[T]{input: def}
	spec := def
	if strings.HasPrefix(spec, "@") {
		rng.inverted = true
		spec = spec[1:]
	}
	for _, char := range spec {
		if !strings.ContainsRune(rangeChars, char) {
			return nil, fmt.Errorf("%w: unexpected character %q in %s", ErrInvalidRange, char, def)
		}
	}

	lowerStr, upperStr, hasColon := strings.Cut(spec, ":")
	if !hasColon {
		upper, err := parseNumber[T](lowerStr)
		if err != nil {
			return nil, err
		}
		rng.upper, rng.hasUpper = upper, true
		if conf.hasDefaultLower {
			rng.lower, rng.hasLower = conf.defaultLower, true
		}
	} else {
		if strings.Contains(upperStr, ":") {
			return nil, fmt.Errorf("%w: too many colons in %s", ErrInvalidRange, def)
		}
		if lowerStr != "" && lowerStr != "~" {
			lower, err := parseNumber[T](lowerStr)
			if err != nil {
				return nil, err
			}
			rng.lower, rng.hasLower = lower, true
		}
		if upperStr != "" {
			upper, err := parseNumber[T](upperStr)
			if err != nil {
				return nil, err
			}
			rng.upper, rng.hasUpper = upper, true
		}
	}

	if rng.hasLower && rng.hasUpper && rng.lower > rng.upper {
		if rng.inverted {
			return nil, fmt.Errorf("%w: first value is bigger than second in %s", ErrInvalidRange, def)
		}
		rng.lower, rng.upper = rng.upper, rng.lower
		rng.inverted = true
		rng.swapped = true
	}

	return rng, nil
}

// ParseList parses a comma separated list of ranges, empty elements result in nil.
func ParseList[T Number](def string, opts ...Option[T]) ([]*Range[T], error) {
	parts := strings.Split(def, ",")
	list := make([]*Range[T], 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			list = append(list, nil)

			continue
		}
		rng, err := Parse[T](part, opts...)
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i+1, err)
		}
		list = append(list, rng)
	}

	return list, nil
}

// Fires returns true if the value should raise an alert.
// Ranges without any bounds and nil ranges never fire.
func (r *Range[T]) Fires(value T) bool {
	if r == nil || (!r.hasLower && !r.hasUpper) {
		return false
	}

	if r.swapped {
		return value > r.lower && value < r.upper
	}

	if r.inverted {
		return (!r.hasLower || value >= r.lower) && (!r.hasUpper || value <= r.upper)
	}

	return (r.hasLower && value < r.lower) || (r.hasUpper && value > r.upper)
}

// Evaluate returns CRITICAL if critical fires, WARNING if warning fires, OK otherwise.
func Evaluate[T Number](value T, warning, critical *Range[T]) check.State {
	if critical.Fires(value) {
		return check.Critical
	}
	if warning.Fires(value) {
		return check.Warning
	}

	return check.OK
}

func parseNumber[T Number](str string) (T, error) {
	var zero T
	if str == "" {
		return zero, fmt.Errorf("%w: missing number", ErrInvalidRange)
	}

	switch {
	case isFloat[T]():
		num, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return zero, fmt.Errorf("%w: %s is not a number", ErrInvalidRange, str)
		}

		return T(num), nil
	case isUnsigned[T]():
		num, err := strconv.ParseUint(str, 10, 64)
		if err != nil || uint64(T(num)) != num {
			return zero, fmt.Errorf("%w: %s is not a positive integer", ErrInvalidRange, str)
		}

		return T(num), nil
	default:
		num, err := strconv.ParseInt(str, 10, 64)
		if err != nil || int64(T(num)) != num {
			return zero, fmt.Errorf("%w: %s is not an integer", ErrInvalidRange, str)
		}

		return T(num), nil
	}
}

func isFloat[T Number]() bool {
	half := 0.5

	return T(half) != 0
}

func isUnsigned[T Number]() bool {
	var zero T

	return zero-1 > zero
}
