// Package cli implements the execctx command-line interface.
//
// # Command Structure
//
//	execctx run [flags] -- command   - Run through a context chain
//	execctx inspect <archive>        - List the commands in a recording
//	execctx hosts                    - List SSH host aliases
//	execctx version                  - Print version information
//	execctx completion <shell>       - Generate completion scripts
//
// # Flag Handling
//
// The context flags of run (--ssh, --auto-x, --zip-in, --zip-out,
// --zip-out-stateless, --verbose) are registered by builder.AddFlags, the
// same function that parses $EXECUTION_CONTEXT, so both accept exactly the
// same syntax. When none of them is given, run falls back to
// builder.Default.
//
// The global --config flag selects the .execctx.yaml file; without it the
// file is searched for from the current directory upwards.
package cli
