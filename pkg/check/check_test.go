package check

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  []State
		res State
	}{
		{[]State{OK}, OK},
		{[]State{OK, Warning, OK}, Warning},
		{[]State{Warning, Critical, OK}, Critical},
		{[]State{Critical, Warning}, Critical},
		{[]State{Unknown, OK}, OK},
		{[]State{Unknown, Warning}, Warning},
		{[]State{Unknown, Unknown}, Unknown},
	}

	for _, tst := range tests {
		res, err := Aggregate(tst.in...)
		require.NoError(t, err)
		assert.Equalf(t, tst.res, res, "Aggregate(%v)", tst.in)
	}

	res, err := Aggregate()
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, Unknown, res)
}

func TestAggregateIsPermutationInvariant(t *testing.T) {
	t.Parallel()

	perms := [][]State{
		{OK, Warning, Critical, Unknown},
		{Unknown, Critical, Warning, OK},
		{Warning, Unknown, OK, Critical},
		{Critical, OK, Unknown, Warning},
	}
	for _, p := range perms {
		res, err := Aggregate(p...)
		require.NoError(t, err)
		assert.Equal(t, Critical, res)
	}
}

type rangeStub struct{ def string }

func (r *rangeStub) String() string { return r.def }

func TestMetricString(t *testing.T) {
	t.Parallel()

	var nilRange *rangeStub

	tests := []struct {
		metric Metric
		res    string
	}{
		{Metric{Name: "users", Value: 3, Warning: &rangeStub{"5"}, Critical: &rangeStub{"10"}, Min: 0}, "users=3;5;10;0"},
		{Metric{Name: "time", Unit: "s", Value: 0.5, Warning: nilRange, Critical: nilRange, Min: 0.0}, "time=0.500000s;;;0.000000"},
		{Metric{Name: "procs", Value: int64(12)}, "procs=12"},
		{Metric{Name: "with space", Value: 1}, "'with space'=1"},
		{Metric{Name: "a=b", Value: "x"}, "'a=b'=x"},
		{Metric{Name: "c", Unit: "c", Value: uint64(1234), Max: 10}, "c=1234c;;;;10"},
	}

	for _, tst := range tests {
		assert.Equalf(t, tst.res, tst.metric.String(), "metric %s", tst.metric.Name)
	}
}

func TestResultBuildPluginOutput(t *testing.T) {
	t.Parallel()

	res := NewResult("USERS")
	res.Output = "3 users currently logged in"
	res.Metrics = append(res.Metrics, &Metric{Name: "users", Value: 3, Min: 0})
	assert.Equal(t, "USERS OK - 3 users currently logged in|users=3;;;0", string(res.BuildPluginOutput()))

	res.EscalateStatus(Warning)
	res.EscalateStatus(OK)
	assert.Equal(t, Warning, res.State)

	res = NewResult("CLUSTER")
	res.Delimiter = ": "
	res.Set(Critical, "%d down", 2)
	assert.Equal(t, "CLUSTER CRITICAL: 2 down", string(res.BuildPluginOutput()))

	res = NewResult("")
	res.Output = "Uptime: 5"
	out := bytes.NewBuffer(nil)
	rc := res.Write(out)
	assert.Equal(t, 0, rc)
	assert.Equal(t, "Uptime: 5\n", out.String())
}

func TestRunWithTimeout(t *testing.T) {
	t.Parallel()

	res := RunWithTimeout(context.Background(), 50*time.Millisecond, "TEST", func(ctx context.Context) *Result {
		<-ctx.Done()
		time.Sleep(100 * time.Millisecond)

		return NewResult("TEST")
	})
	assert.Equal(t, Unknown, res.State)
	assert.Contains(t, string(res.BuildPluginOutput()), "TEST UNKNOWN - plugin timed out after 0 seconds")

	res = RunWithTimeout(context.Background(), time.Second, "TEST", func(_ context.Context) *Result {
		return Criticalf("TEST", "broken")
	})
	assert.Equal(t, Critical, res.State)
	assert.Equal(t, "broken", res.Output)
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	opts := &struct {
		CommonOpts
		Host string `short:"H" long:"host" required:"true"`
	}{}
	err := ParseArgs("check_test", opts, []string{"-H", "localhost", "-t", "5", "-vv"}, flags.HelpFlag|flags.PassDoubleDash)
	require.NoError(t, err)
	assert.Equal(t, "localhost", opts.Host)
	assert.Equal(t, 5*time.Second, opts.TimeoutDuration())
	assert.Len(t, opts.Verbose, 2)

	err = ParseArgs("check_test", opts, []string{"-H", "localhost", "-t", "1500ms"}, flags.HelpFlag|flags.PassDoubleDash)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, opts.TimeoutDuration())

	err = ParseArgs("check_test", opts, []string{"-H", "localhost", "-t", "2m"}, flags.HelpFlag|flags.PassDoubleDash)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, opts.TimeoutDuration())

	err = ParseArgs("check_test", opts, []string{"-H", "localhost", "-t", "soon"}, flags.HelpFlag|flags.PassDoubleDash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration soon")

	err = ParseArgs("check_test", opts, []string{"-t", "5"}, flags.HelpFlag|flags.PassDoubleDash)
	require.Error(t, err)

	out := bytes.NewBuffer(nil)
	rc := UsageError(out, err)
	assert.Equal(t, 3, rc)
	assert.Contains(t, out.String(), "UNKNOWN - ")

	err = ParseArgs("check_test", opts, []string{"--help"}, flags.HelpFlag|flags.PassDoubleDash)
	require.Error(t, err)
	out.Reset()
	UsageError(out, err)
	assert.Contains(t, out.String(), "Usage:")

	err = ParseArgs("check_test", opts, []string{"-H", "x", "extra"}, flags.HelpFlag|flags.PassDoubleDash)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoData))
}

func TestSetupLogLevel(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	logger.SetOutput(buf)
	defer logger.SetOutput(os.Stderr)
	defer logger.SetVerbosity(0)

	opts := &CommonOpts{Verbose: []bool{true, true}}
	opts.Setup()
	logger.Log.Debugf("debug via -vv")
	assert.Contains(t, buf.String(), "debug via -vv")

	buf.Reset()
	opts.LogLevel = "off"
	opts.Setup()
	logger.Log.Errorf("silenced by loglevel")
	assert.Empty(t, buf.String())
}

func TestParseState(t *testing.T) {
	t.Parallel()

	for name, exp := range map[string]State{"ok": OK, "warn": Warning, "crit": Critical, "unknown": Unknown} {
		state, ok := ParseState(name)
		assert.True(t, ok)
		assert.Equal(t, exp, state)
	}
	_, ok := ParseState("nope")
	assert.False(t, ok)
}
