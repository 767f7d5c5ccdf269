package threshold

import (
	"testing"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	stringToRange := []struct {
		input string
		rng   *Range[float64]
	}{
		{" 3.4", &Range[float64]{input: "3.4", upper: 3.4, hasUpper: true}},
		{"3", &Range[float64]{input: "3", upper: 3, hasUpper: true}},
		{"-3", &Range[float64]{input: "-3", upper: -3, hasUpper: true}},
		{"foo", nil},
		{"3,4", nil},
		{"", nil},
		{"@", nil},
		{"1:2:3", nil},
		{"1e5", nil},

		{" -3.4:", &Range[float64]{input: "-3.4:", lower: -3.4, hasLower: true}},
		{"3:", &Range[float64]{input: "3:", lower: 3, hasLower: true}},
		{"3,1:", nil},

		{"~:-3.4 ", &Range[float64]{input: "~:-3.4", upper: -3.4, hasUpper: true}},
		{"~:3", &Range[float64]{input: "~:3", upper: 3, hasUpper: true}},
		{":3", &Range[float64]{input: ":3", upper: 3, hasUpper: true}},
		{"~:3,1", nil},
		{"3:~", nil},
		{":", &Range[float64]{input: ":"}},

		{"1.2:3.4", &Range[float64]{input: "1.2:3.4", lower: 1.2, upper: 3.4, hasLower: true, hasUpper: true}},
		{"-3.4:-1.2", &Range[float64]{input: "-3.4:-1.2", lower: -3.4, upper: -1.2, hasLower: true, hasUpper: true}},
		{"1:3", &Range[float64]{input: "1:3", lower: 1, upper: 3, hasLower: true, hasUpper: true}},
		{"1,2:3,4", nil},

		{"3:2", &Range[float64]{input: "3:2", lower: 2, upper: 3, hasLower: true, hasUpper: true, inverted: true, swapped: true}},
		{"-1.2:-3.4", &Range[float64]{input: "-1.2:-3.4", lower: -3.4, upper: -1.2, hasLower: true, hasUpper: true, inverted: true, swapped: true}},

		{"@-1.2:-3.4", nil},
		{" @3:2", nil},
		{"@1.2:3.4", &Range[float64]{input: "@1.2:3.4", lower: 1.2, upper: 3.4, hasLower: true, hasUpper: true, inverted: true}},
		{"@-1.2:3.4 ", &Range[float64]{input: "@-1.2:3.4", lower: -1.2, upper: 3.4, hasLower: true, hasUpper: true, inverted: true}},
		{"@1:", &Range[float64]{input: "@1:", lower: 1, hasLower: true, inverted: true}},
		{"@1,2:3,4", nil},
		{"@@1:2", nil},
	}

	for _, data := range stringToRange {
		rng, err := Parse[float64](data.input)
		if data.rng == nil {
			require.Errorf(t, err, "parsing %q results in error", data.input)
			assert.ErrorIsf(t, err, ErrInvalidRange, "parsing %q", data.input)
		} else {
			require.NoErrorf(t, err, "parsing %q results not in error", data.input)
		}
		assert.Equalf(t, data.rng, rng, "range %q ok", data.input)
	}
}

func TestParseDefaultLower(t *testing.T) {
	t.Parallel()

	rng, err := Parse("10", DefaultLower(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, &Range[int64]{input: "10", lower: 0, upper: 10, hasLower: true, hasUpper: true}, rng)
	assert.True(t, rng.Fires(-1))
	assert.False(t, rng.Fires(0))

	// only the bare max form uses the default
	rng, err = Parse(":10", DefaultLower(int64(0)))
	require.NoError(t, err)
	_, hasLower := rng.Lower()
	assert.False(t, hasLower)
	assert.False(t, rng.Fires(-1))
}

func TestParseIntegerTypes(t *testing.T) {
	t.Parallel()

	_, err := Parse[int64]("1.5")
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = Parse[uint64]("-1:5")
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = Parse[int32]("99999999999")
	require.ErrorIs(t, err, ErrInvalidRange)

	rng, err := Parse[uint64]("18446744073709551615")
	require.NoError(t, err)
	upper, ok := rng.Upper()
	assert.True(t, ok)
	assert.Equal(t, uint64(18446744073709551615), upper)

	irng, err := Parse[int]("-5:5")
	require.NoError(t, err)
	assert.True(t, irng.Fires(-6))
	assert.False(t, irng.Fires(-5))
}

func TestRangeFires(t *testing.T) {
	t.Parallel()

	rangeBorders := []struct {
		rng      string
		value    float64
		expected bool
	}{
		{"10", -1, false},
		{"10", 0, false},
		{"10", 10, false},
		{"10", 11, true},

		{"10:", -1, true},
		{"10:", 9, true},
		{"10:", 10, false},
		{"10:", 11, false},

		{"~:10", 11, true},
		{"~:10", 10, false},
		{"~:10", -1, false},

		{"10:20", 9, true},
		{"10:20", 10, false},
		{"10:20", 19, false},
		{"10:20", 20, false},
		{"10:20", 21, true},

		{"@10:20", 9, false},
		{"@10:20", 10, true},
		{"@10:20", 15, true},
		{"@10:20", 20, true},
		{"@10:20", 21, false},

		{"20:10", 9, false},
		{"20:10", 10, false},
		{"20:10", 11, true},
		{"20:10", 19, true},
		{"20:10", 20, false},
		{"20:10", 21, false},

		{"@10:", 9, false},
		{"@10:", 10, true},
		{"@10:", 1e12, true},

		{":", 1e12, false},
		{":", -1e12, false},
	}

	for _, data := range rangeBorders {
		rng, err := Parse[float64](data.rng)
		require.NoErrorf(t, err, "no error expected for %q", data.rng)
		assert.Equalf(t, data.expected, rng.Fires(data.value), "range %q with value %v", data.rng, data.value)
	}

	var unset *Range[float64]
	assert.False(t, unset.Fires(5))
	assert.Equal(t, "", unset.String())
}

func TestSwappedFiresStrictlyInside(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"20:10", "@10:20"},
		{"5:-5", "@-5:5"},
		{"1.5:0.5", "@0.5:1.5"},
	}
	for _, pair := range pairs {
		swapped, err := Parse[float64](pair[0])
		require.NoError(t, err)
		inverted, err := Parse[float64](pair[1])
		require.NoError(t, err)

		assert.Truef(t, swapped.Swapped(), "%s is swapped", pair[0])
		assert.Falsef(t, inverted.Swapped(), "%s is not swapped", pair[1])
		assert.Equal(t, inverted.Inverted(), swapped.Inverted())

		lower, _ := inverted.Lower()
		upper, _ := inverted.Upper()
		swLower, _ := swapped.Lower()
		swUpper, _ := swapped.Upper()
		assert.Equal(t, lower, swLower)
		assert.Equal(t, upper, swUpper)

		middle := (lower + upper) / 2
		assert.Truef(t, swapped.Fires(middle), "%s fires at %v", pair[0], middle)
		assert.Truef(t, inverted.Fires(middle), "%s fires at %v", pair[1], middle)

		for _, border := range []float64{lower, upper} {
			assert.Falsef(t, swapped.Fires(border), "%s does not fire at %v", pair[0], border)
			assert.Truef(t, inverted.Fires(border), "%s fires at %v", pair[1], border)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, def := range []string{"10", "10:", "~:10", "10:20", "@10:20", "20:10", ":"} {
		first, err := Parse[float64](def)
		require.NoError(t, err)
		second, err := Parse[float64](first.String())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	list, err := ParseList[float64]("1:10,,@5:6, 20")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Nil(t, list[1])
	assert.Equal(t, "1:10", list[0].String())
	assert.True(t, list[2].Inverted())
	assert.True(t, list[3].Fires(21))

	_, err = ParseList[float64]("1:10,abc")
	require.ErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "range 2")
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	warn, err := Parse[float64]("10")
	require.NoError(t, err)
	crit, err := Parse[float64]("20")
	require.NoError(t, err)

	assert.Equal(t, check.OK, Evaluate(5, warn, crit))
	assert.Equal(t, check.Warning, Evaluate(15, warn, crit))
	assert.Equal(t, check.Critical, Evaluate(25, warn, crit))
	assert.Equal(t, check.OK, Evaluate[float64](25, nil, nil))

	// critical wins whenever both fire
	both, err := Parse[float64]("@0:100")
	require.NoError(t, err)
	assert.Equal(t, check.Critical, Evaluate(50, both, both))
}

func TestThresholds(t *testing.T) {
	t.Parallel()

	thresholds, err := NewThresholds("1", "3", DefaultLower(0.0))
	require.NoError(t, err)
	assert.Equal(t, check.OK, thresholds.Get(1))
	assert.Equal(t, check.Warning, thresholds.Get(2))
	assert.Equal(t, check.Critical, thresholds.Get(4))

	thresholds, err = NewThresholds[float64]("", "")
	require.NoError(t, err)
	assert.Nil(t, thresholds.Warning)
	assert.Equal(t, check.OK, thresholds.Get(1e9))

	_, err = NewThresholds[float64]("x", "")
	require.ErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "warning range")
}
