package check_ldap

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLDAPArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		service string
		port    int
		err     bool
	}{
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example"}, "LDAP", 389, false},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-T"}, "LDAP-TLS", 389, false},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-S"}, "LDAPS", 636, false},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-p", "636"}, "LDAPS", 636, false},
		{"check_ldaps", []string{"-H", "localhost", "-b", "dc=example"}, "LDAP-TLS", 389, false},
		{"check_ldaps", []string{"-H", "localhost", "-b", "dc=example", "--ssl", "-p", "1636"}, "LDAPS", 1636, false},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-S", "-T"}, "", 0, true},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-2"}, "", 0, true},
		{"check_ldap", []string{"-H", "localhost"}, "", 0, true},
		{"check_ldap", []string{"-H", "localhost", "-b", "dc=example", "-w", "x"}, "", 0, true},
	}

	for _, tst := range tests {
		opts, err := parseArgs(tst.name, tst.args)
		if tst.err {
			require.Errorf(t, err, "%s %v", tst.name, tst.args)

			continue
		}
		require.NoErrorf(t, err, "%s %v", tst.name, tst.args)
		assert.Equalf(t, tst.service, opts.service(), "service for %s %v", tst.name, tst.args)
		assert.Equalf(t, tst.port, opts.Port, "port for %s %v", tst.name, tst.args)
	}
}

func TestLDAPConnectError(t *testing.T) {
	t.Parallel()

	// closed listener gives a free port nobody listens on
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())

	output := &bytes.Buffer{}
	rc := Check(context.Background(), output, []string{"-H", "127.0.0.1", "-p", strconv.Itoa(addr.Port), "-b", "dc=example", "-t", "3"})
	assert.Equal(t, 2, rc)
	assert.Contains(t, output.String(), "LDAP CRITICAL - could not connect to the server at port")
}

func TestLDAPResult(t *testing.T) {
	t.Parallel()

	thresholds, err := threshold.NewThresholds("0.5", "1", threshold.DefaultLower(0.0))
	require.NoError(t, err)

	tests := []struct {
		elapsed float64
		state   check.State
		output  string
	}{
		{0.012, check.OK, "LDAP OK - 0.012 seconds response time|time=0.012000s;0.5;1;0.000000"},
		{0.7, check.Warning, "LDAP WARNING - 0.700 seconds response time|time=0.700000s;0.5;1;0.000000"},
		{1.5, check.Critical, "LDAP CRITICAL - 1.500 seconds response time|time=1.500000s;0.5;1;0.000000"},
	}

	for _, tst := range tests {
		res := buildResult("LDAP", tst.elapsed, thresholds)
		assert.Equal(t, tst.state, res.State)
		assert.Equal(t, tst.output, string(res.BuildPluginOutput()))
	}
}
