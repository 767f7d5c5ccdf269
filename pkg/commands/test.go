package commands

import (
	"fmt"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/plugins"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/reeflective/readline"
	"github.com/spf13/cobra"
)

func init() {
	testCmd := &cobra.Command{
		Use:     "test [plugin] [plugin args]",
		Aliases: []string{"run"},
		Short:   "Start test mode or run given plugin",
		Long: `Test mode can be used to manually test plugins.

If a plugin is given, a one shot result will be printed. Without plugin,
a query prompt is started.

# human readable output
checkplugins test ...

# naemon/nagios plugin compatible output and exit code
checkplugins run ...

Examples:

# start query prompt:
checkplugins test

# run check_users and exit
checkplugins test check_users -w 5 -c 10

# run check_procs with debug output
checkplugins test check_procs -vv -C sshd
`,
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				if cmd.CalledAs() != "test" {
					_ = cmd.Usage()
					exitCode = int(check.Unknown)

					return
				}
				testPrompt(cmd)

				return
			}
			exitCode = testRunCheck(cmd, args)
		},
	}
	rootCmd.AddCommand(testCmd)
}

func testPrompt(cmd *cobra.Command) {
	promptCompleter := func(line []rune, cursor int) readline.Completions {
		names := []string{}
		filter := string(line[0:cursor])
		for _, name := range plugins.Names() {
			if strings.HasPrefix(name, filter) {
				names = append(names, name)
			}
		}

		return readline.CompleteValues(names...)
	}

	printVersion(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "enter plugin command, 'help' or 'exit'.\n")

	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return ">> " })
	rl.Config.Set("show-mode-in-prompt", false)
	rl.Completer = promptCompleter
	for {
		text, err := rl.Readline()
		if err != nil {
			return
		}
		switch text {
		case "exit":
			return
		case "":
		case "help":
			fmt.Fprintf(cmd.OutOrStdout(), "%s", cmd.Long)
		default:
			args := utils.Tokenize(text)
			for i := range args {
				args[i] = utils.TrimQuotes(args[i])
			}
			testRunCheck(cmd, args)
		}
	}
}

func testRunCheck(cmd *cobra.Command, args []string) int {
	output, rc := plugins.RunCaptured(cmd.Context(), args[0], args[1:])
	switch cmd.CalledAs() {
	case "test":
		testPrintHuman(cmd, output, rc)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.TrimSpace(output))
	}

	return rc
}

func testPrintHuman(cmd *cobra.Command, output string, rc int) {
	text, perf, _ := strings.Cut(strings.TrimSpace(output), "|")
	fmt.Fprintf(cmd.OutOrStdout(), "Exit Code: %s (%d)\n", check.StateString(check.State(rc)), rc)
	fmt.Fprintf(cmd.OutOrStdout(), "Plugin Output:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", text)
	if perf != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nPerformance Metrics:\n")
		for _, m := range utils.Tokenize(perf) {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", m)
		}
	}
}
