package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/plugins"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// NAME contains the binary name.
	NAME = "checkplugins"

	// VERSION contains the actual version number.
	VERSION = "0.1"
)

var (
	// Build contains the current git commit id.
	Build = "unknown"

	// Revision contains the minor version number (number of commits).
	Revision = "0"
)

var log = logger.Log

var rootCmd = &cobra.Command{
	Use:   NAME + " [global flags] [plugin] [plugin args]",
	Short: "Multi-call binary containing monitoring plugins.",
	Long: `checkplugins bundles monitoring plugins for Naemon, Nagios, Icinga and
compatible systems into a single binary.

Plugins can be run as sub command or by creating a symlink with the
name of the plugin pointing to this binary.`,
	Example: `  * run check_users as sub command

%> checkplugins check_users -w 5 -c 10

  * run check_dig through a symlink

%> ln -s checkplugins check_dig
%> ./check_dig -H 127.0.0.1 -l www.example.com`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetLogLevel(globalFlags.LogLevel)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		if globalFlags.Version {
			printVersion(cmd)

			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s called without plugin, see --help for usage.\n", NAME)
		exitCode = int(check.Unknown)
	},
}

var globalFlags = struct {
	Version  bool
	LogLevel string
}{}

// exitCode is the exit code of the last executed command.
var exitCode int

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Version, "version", "V", false, "print version and exit")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.LogLevel, "loglevel", "", "", "set loglevel to one of: off, error, info, debug, trace (passed on to plugins)")

	rootCmd.DisableAutoGenTag = true
	rootCmd.DisableSuggestions = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().SortFlags = false

	rootCmd.AddGroup(&cobra.Group{ID: "plugins", Title: "Plugins:"})
	for _, name := range plugins.Names() {
		addPluginCmd(plugins.Available[name])
	}
}

func addPluginCmd(plugin plugins.Plugin) {
	rootCmd.AddCommand(&cobra.Command{
		Use:     plugin.Name + " [plugin args]",
		Short:   plugin.Description,
		Example: "  " + plugin.Example,
		GroupID: "plugins",
		// all flags belong to the plugin, including -h
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = plugins.Run(cmd.Context(), plugin.Name, cmd.OutOrStdout(), args)
		},
	})
}

// Execute runs the command line and returns the exit code.
// Called through a symlink named like a plugin, the plugin is run directly.
func Execute(ctx context.Context, args []string) int {
	exitCode = 0
	resetFlags(rootCmd)
	if len(args) == 0 {
		args = []string{NAME}
	}

	if name := pluginName(args[0]); name != "" {
		return plugins.Run(ctx, name, rootCmd.OutOrStdout(), args[1:])
	}

	rootCmd.SetArgs(args[1:])
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "command failed: %s\n", err.Error())

		return int(check.Unknown)
	}

	return exitCode
}

// resetFlags restores the defaults of all flags, cobra keeps them from the previous run.
func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if err := flag.Value.Set(flag.DefValue); err != nil {
			log.Debugf("cannot reset flag %s: %s", flag.Name, err.Error())
		}
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// pluginName returns the plugin name if the binary has been called as plugin.
func pluginName(arg0 string) string {
	name := strings.TrimSuffix(filepath.Base(arg0), ".exe")
	if _, ok := plugins.Available[name]; ok {
		return name
	}

	return ""
}

func printVersion(cmd *cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s v%s.%s (Build: %s, %s)\n", NAME, VERSION, Revision, Build, runtime.Version())
}
