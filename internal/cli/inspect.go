package cli

import (
	"fmt"

	"github.com/rileyhilliard/execctx/internal/archive"
	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/ui"
	"github.com/rileyhilliard/execctx/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	inspectOutput bool
	inspectTable  bool
)

// inspectEntry is one recorded command as shown by inspect.
type inspectEntry struct {
	State       string `yaml:"state"`
	Command     string `yaml:"command"`
	ExitCode    int    `yaml:"exit_code"`
	StdoutBytes int    `yaml:"stdout_bytes"`
	StderrBytes int    `yaml:"stderr_bytes"`
	NextState   string `yaml:"next_state,omitempty"`
	Stdout      string `yaml:"stdout,omitempty"`
	Stderr      string `yaml:"stderr,omitempty"`
}

// inspectCmd lists the commands stored in a recording
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List the commands stored in a recording",
	Long: `List every command stored in an archive written with --zip-out, in
recording order, as YAML.

Examples:
  execctx inspect session.zip
  execctx inspect --output session.zip
  execctx inspect --table session.zip`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := inspectArchive(args[0], inspectOutput)
		if err != nil {
			return err
		}

		if inspectTable {
			rows := make([]ui.RecordRow, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, ui.RecordRow{State: e.State, Command: e.Command, ExitCode: e.ExitCode, NextState: e.NextState})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, ui.RenderRecordTable(rows))
			if len(rows) > 0 {
				fmt.Fprintf(out, "\n%d %s\n", len(rows), util.Pluralize(len(rows), "command", "commands"))
			}
			return nil
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return errors.WrapWithCode(err, errors.ErrArchive, "Couldn't render archive contents", "")
		}
		return enc.Close()
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectOutput, "output", false, "include the recorded stdout and stderr")
	inspectCmd.Flags().BoolVar(&inspectTable, "table", false, "print a one-line-per-command summary instead of YAML")
	inspectCmd.MarkFlagsMutuallyExclusive("output", "table")
	rootCmd.AddCommand(inspectCmd)
}

func inspectArchive(path string, withOutput bool) ([]inspectEntry, error) {
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	records, err := r.Entries()
	if err != nil {
		return nil, err
	}

	entries := make([]inspectEntry, 0, len(records))
	for _, rec := range records {
		e := inspectEntry{
			State:       rec.State,
			Command:     rec.CommandLine,
			ExitCode:    rec.ExitCode,
			StdoutBytes: len(rec.Stdout),
			StderrBytes: len(rec.Stderr),
		}
		if rec.HasNextState {
			e.NextState = rec.NextState
		}
		if withOutput {
			e.Stdout = string(rec.Stdout)
			e.Stderr = string(rec.Stderr)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
