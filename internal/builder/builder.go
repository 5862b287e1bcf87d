// Package builder assembles execution context chains from command line
// style options, so programs can let their users redirect command execution
// without assembling contexts themselves.
package builder

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rileyhilliard/execctx/internal/config"
	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/logger"
	"github.com/rileyhilliard/execctx/pkg/execution"
	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/shell"
)

// EnvVar holds context flags for Default, e.g. "--ssh my_remote_host".
const EnvVar = "EXECUTION_CONTEXT"

// Options selects the layers of a chain.
type Options struct {
	ZipIn           string
	ZipOut          string
	ZipOutStateless bool
	SSH             string
	AutoX           bool
	Verbose         bool

	// Log receives the verbose output; nil means logger.Default().
	Log logger.Logger
}

// AddFlags registers the context flags on fs, storing into o.
func AddFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.ZipIn, "zip-in", "", "look up command results in `FILE` instead of executing them")
	fs.StringVar(&o.ZipOut, "zip-out", "", "store all commands and their results in `FILE`")
	fs.BoolVar(&o.ZipOutStateless, "zip-out-stateless", false, "when recording, assume no command has side effects")
	fs.StringVar(&o.SSH, "ssh", "", "execute the commands remotely on `HOST`")
	fs.BoolVar(&o.AutoX, "auto-x", false, "find a running X session and send graphical output there")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "log all executed commands")
}

// Validate rejects option combinations that can't form a chain.
func (o Options) Validate() error {
	if o.SSH != "" && o.ZipIn != "" {
		return errors.New(errors.ErrConfig,
			"--ssh and --zip-in can not be used together",
			"Replayed results come from the archive; drop one of the two.")
	}
	if o.ZipOutStateless && o.ZipOut == "" {
		return errors.New(errors.ErrConfig,
			"--zip-out-stateless requires --zip-out",
			"Name the archive to record into with --zip-out FILE.")
	}
	return nil
}

// Chain is an assembled context. Close it when done; a recording chain only
// produces a readable archive once closed.
type Chain struct {
	execution.Context

	recorder *execution.Recorder
	player   *execution.Player

	closeOnce sync.Once
	closeErr  error
}

func (c *Chain) String() string {
	if s, ok := c.Context.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c.Context)
}

// Close flushes a Recorder and releases a Player, if present. Later calls
// return the result of the first one.
func (c *Chain) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.close() })
	return c.closeErr
}

func (c *Chain) close() error {
	var errs []string
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.player != nil {
		if err := c.player.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(errors.ErrArchive, "Couldn't close the context chain", strings.Join(errs, "\n"))
	}
	return nil
}

// Build assembles the chain for opts. cfg supplies the ssh client settings
// and defaults for recording and verbosity; nil means config.DefaultConfig().
//
// From the inside out: a Player or Local; SSH (over a logging layer when
// verbose); WithXEnvironment (likewise); a Recorder; and an outermost logging
// layer when verbose.
func Build(opts Options, cfg *config.Config) (*Chain, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	verbose := opts.Verbose || cfg.Verbose
	logged := func(c execution.Context) execution.Context {
		if !verbose {
			return c
		}
		return execution.NewSimpleLogging(c, opts.Log)
	}

	chain := &Chain{}
	var c execution.Context

	if opts.ZipIn != "" {
		p, err := execution.NewPlayer(opts.ZipIn)
		if err != nil {
			return nil, err
		}
		chain.player = p
		c = p
	} else {
		c = execution.Local{}
		if opts.SSH != "" {
			c = execution.NewSSH(opts.SSH, logged(c),
				execution.WithSSHExecutable(cfg.SSH.Executable),
				execution.WithSSHArgs(cfg.SSH.Args...))
		}
	}

	if opts.AutoX {
		c = execution.NewWithXEnvironment(logged(c))
	}

	if opts.ZipOut != "" {
		stateless := opts.ZipOutStateless || cfg.Record.Stateless
		r, err := execution.NewRecorder(opts.ZipOut, !stateless, c)
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain.recorder = r
		c = r
	}

	chain.Context = logged(c)
	return chain, nil
}

// ParseArgs reads context flags from args. Positional arguments are an error.
func ParseArgs(args []string) (Options, error) {
	var opts Options
	fs := pflag.NewFlagSet(EnvVar, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	AddFlags(fs, &opts)

	if err := fs.Parse(args); err != nil {
		return Options{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid context flags: "+strings.Join(args, " "),
			"Valid flags are --zip-in, --zip-out, --zip-out-stateless, --ssh, --auto-x and --verbose.")
	}
	if fs.NArg() > 0 {
		return Options{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unexpected argument %q in context flags", fs.Arg(0)),
			"Context flags take no positional arguments.")
	}
	return opts, nil
}

// ParseString splits s like a shell would and parses the result with
// ParseArgs. Variable references are expanded from the environment.
func ParseString(s string) (Options, error) {
	args, err := shell.Fields(s, os.Getenv)
	if err != nil {
		return Options{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't split context flags %q", s),
			"Check the quoting.")
	}
	return ParseArgs(args)
}

// Default builds the chain described by $EXECUTION_CONTEXT, falling back to
// the config's context setting and then to plain local execution.
func Default(cfg *config.Config) (*Chain, error) {
	spec, ok := os.LookupEnv(EnvVar)
	if !ok && cfg != nil {
		spec = cfg.Context
	}
	if strings.TrimSpace(spec) == "" {
		return Build(Options{}, cfg)
	}

	opts, err := ParseString(spec)
	if err != nil {
		return nil, err
	}
	return Build(opts, cfg)
}
