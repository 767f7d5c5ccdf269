package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

var localINI = `
[check_cluster]
label = Web cluster
warning = 0

[hosts]
host
critical = 1
`

func TestCommandFlags(t *testing.T) {
	bin := getBinary()
	require.FileExistsf(t, bin, "checkplugins binary must exist")

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"-V"},
		Like: []string{`^checkplugins v.*Build:`},
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"list"},
		Like: []string{`\| check_dig\s+\|`, `\| check_users\s+\|`},
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_cluster", "-d", "0,0,2", "-c", "1:"},
		Like: []string{`^CLUSTER CRITICAL: Service cluster: 2 ok, 0 warning, 0 unknown, 1 critical`},
		Exit: exitCritical,
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"run", "check_users", "-h"},
		Like: []string{`check_users`, `--warning`},
		Exit: exitUnknown,
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_procs", "-w", "1:", "-C", "checkplugins-does-not-exist"},
		Like: []string{`^PROCS WARNING: 0 processes with command name 'checkplugins-does-not-exist'\|procs=0;1:;;0`},
		Exit: exitWarning,
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_nothing"},
		ErrLike: []string{`unknown command`},
		Exit: exitUnknown,
	})
}

func TestExtraOpts(t *testing.T) {
	bin := getBinary()
	require.FileExistsf(t, bin, "checkplugins binary must exist")

	writeFile(t, `plugins.ini`, localINI)
	defer os.Remove("plugins.ini")

	env := map[string]string{"MP_CONFIG_FILE": "plugins.ini"}

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_cluster", "--extra-opts", "-d", "0,1"},
		Like: []string{`^CLUSTER WARNING: Web cluster: 1 ok, 1 warning`},
		Exit: exitWarning,
		Env:  env,
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_cluster", "--extra-opts=hosts", "-d", "0,1,1"},
		Like: []string{`^CLUSTER CRITICAL: Host cluster: 1 up, 2 down, 0 unreachable`},
		Exit: exitCritical,
		Env:  env,
	})

	runCmd(t, &cmd{
		Cmd:  bin,
		Args: []string{"check_cluster", "--extra-opts=missing", "-d", "0"},
		Like: []string{`^UNKNOWN - invalid section 'missing' in config file 'plugins.ini'`},
		Exit: exitUnknown,
		Env:  env,
	})
}
