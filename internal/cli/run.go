package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/execctx/internal/builder"
	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/logger"
	"github.com/rileyhilliard/execctx/pkg/execution"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	runOpts  builder.Options
	runShell bool
)

// runCmd runs commands through a context chain built from flags
var runCmd = &cobra.Command{
	Use:   "run [flags] [--] command [args...]",
	Short: "Run a command through an execution context",
	Long: `Run a command through the execution context described by the flags,
copying its stdout and stderr and exiting with its exit code.

Without any context flags the chain comes from $EXECUTION_CONTEXT, then from
the 'context' setting in .execctx.yaml, and otherwise runs locally.

With --shell every argument is a separate shell command line. They run in
order and execution stops at the first one that fails.

Examples:
  execctx run -- ls -l /tmp
  execctx run --ssh build-box -- uname -a
  execctx run --shell 'cd /etc && ls' 'echo $HOME'
  execctx run --auto-x --zip-out session.zip -- xrandr -q
  execctx run --zip-in session.zip -- xrandr -q`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.SetInterspersed(false)
	builder.AddFlags(flags, &runOpts)
	flags.BoolVar(&runShell, "shell", false, "treat each argument as a shell command line")

	_ = runCmd.MarkFlagFilename("zip-in", "zip")
	_ = runCmd.MarkFlagFilename("zip-out", "zip")
	_ = runCmd.RegisterFlagCompletionFunc("ssh", completeSSHHosts)

	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var chain *builder.Chain
	if contextFlagsChanged(cmd.Flags()) {
		chain, err = builder.Build(runOpts, cfg)
	} else {
		chain, err = builder.Default(cfg)
	}
	if err != nil {
		return err
	}
	if runOpts.Verbose || cfg.Verbose {
		logger.SetDebug(true)
		defer logger.SetDebug(false)
	}
	logger.Default().Debug("Context chain: %s", chain)

	// Flush the archive even when interrupted, so finished commands survive
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	stop := closeOnSignal(sigChan, chain, cmd.ErrOrStderr(), os.Exit)
	defer stop()

	code, err := runCalls(chain, args, runShell, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if closeErr := chain.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.NewExitError(code)
	}
	return nil
}

// closeOnSignal closes c and calls exit with 128+n once a signal arrives on
// sigs. The returned function stops watching and returns once the watcher
// is gone.
func closeOnSignal(sigs <-chan os.Signal, c io.Closer, stderr io.Writer, exit func(int)) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case sig := <-sigs:
			if err := c.Close(); err != nil {
				fmt.Fprintln(stderr, err)
			}
			exit(128 + signalNumber(sig))
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func signalNumber(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s)
	}
	return 1
}

// contextFlagsChanged reports whether any chain-building flag was given.
func contextFlagsChanged(flags *pflag.FlagSet) bool {
	for _, name := range []string{"zip-in", "zip-out", "zip-out-stateless", "ssh", "auto-x", "verbose"} {
		if flags.Changed(name) {
			return true
		}
	}
	return false
}

// runCalls runs args through c and copies the output. It returns the exit
// code of the last command run; signals map to 128+n like in a shell.
func runCalls(c execution.Context, args []string, shell bool, stdout, stderr io.Writer) (int, error) {
	calls := []execution.Call{execution.Command(args...)}
	if shell {
		calls = calls[:0]
		for _, line := range args {
			calls = append(calls, execution.ShellCommand(line))
		}
	}

	for _, call := range calls {
		out, errOut, code, err := execution.Execute(c, call).ReadWithError()
		if err != nil {
			return 1, err
		}
		if _, err := stderr.Write(errOut); err != nil {
			return 1, errors.WrapWithCode(err, errors.ErrExec, "Couldn't write stderr", "")
		}
		if _, err := stdout.Write(out); err != nil {
			return 1, errors.WrapWithCode(err, errors.ErrExec, "Couldn't write stdout", "")
		}
		if code < 0 {
			code = 128 - code
		}
		if code != 0 {
			return code, nil
		}
	}
	return 0, nil
}
