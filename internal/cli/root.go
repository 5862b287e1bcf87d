package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/execctx/internal/config"
	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/spf13/cobra"
)

// cfgFile is the --config override.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "execctx",
	Short: "Run, record, and replay commands through execution contexts",
	Long: `execctx runs commands locally, over ssh, or from a recorded archive.

Contexts stack: a recording can be made of commands run over ssh on a machine
whose X display is found automatically, and replayed later without the machine.

Examples:
  execctx run -- xrandr -q
  execctx run --ssh build-box --auto-x --zip-out session.zip -- xrandr -q
  execctx run --zip-in session.zip -- xrandr -q
  execctx inspect session.zip`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .execctx.yaml, searched upwards)")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// loadConfig finds, loads and validates the config. A missing config file
// yields the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// A command that ran and failed has already shown its own output.
	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "✗ Unknown command %q\n\n  Run 'execctx --help' for the list, or 'execctx run -- %s' to run it as a program.\n", name, name)
			os.Exit(1)
		}
	}

	fmt.Fprint(os.Stderr, err.Error())
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(1)
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the name out of cobra's
// `unknown command "foo" for "execctx"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
