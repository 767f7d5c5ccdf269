package plugins

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/config"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var log = logger.Log

// CheckFunc is the entry point of a plugin, it writes the status line to output and returns the exit code.
type CheckFunc func(ctx context.Context, output io.Writer, args []string) int

// Plugin describes a single builtin plugin.
type Plugin struct {
	Name        string
	Description string
	Example     string
	Check       CheckFunc
}

// Available contains all builtin plugins by name.
var Available = map[string]Plugin{}

func register(plugin Plugin) {
	Available[plugin.Name] = plugin
}

// Names returns the sorted list of plugin names.
func Names() []string {
	names := maps.Keys(Available)
	slices.Sort(names)

	return names
}

// Run executes the named plugin. Options from --extra-opts ini files are
// inserted before the command line arguments.
func Run(ctx context.Context, name string, output io.Writer, args []string) int {
	plugin, ok := Available[name]
	if !ok {
		fmt.Fprintf(output, "UNKNOWN - no such plugin: %s\n", name)

		return int(check.Unknown)
	}

	expanded, err := config.ExpandArgs(name, args)
	if err != nil {
		return check.UsageError(output, err)
	}
	log.Debugf("running %s %v", name, expanded)

	return plugin.Check(ctx, output, expanded)
}

// RunCaptured executes the named plugin and returns its output.
func RunCaptured(ctx context.Context, name string, args []string) (output string, rc int) {
	buf := bytes.NewBuffer(nil)
	rc = Run(ctx, name, buf, args)

	return buf.String(), rc
}
