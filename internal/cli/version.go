package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set by SetVersionInfo from the ldflags of the binary.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	versionShort bool
	versionYAML  bool
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version  string `yaml:"version"`
	Commit   string `yaml:"commit"`
	Built    string `yaml:"built"`
	Go       string `yaml:"go"`
	Platform string `yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit and build date of execctx.

Binaries built without release ldflags (go install, go build) report what
the Go toolchain embedded instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentBuild()
		if bi, ok := debug.ReadBuildInfo(); ok {
			info = fillFromBuildInfo(info, bi)
		}
		return printBuild(cmd, info)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	versionCmd.Flags().BoolVar(&versionYAML, "yaml", false, "print the build information as YAML")
	versionCmd.MarkFlagsMutuallyExclusive("short", "yaml")
	rootCmd.AddCommand(versionCmd)
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// fillFromBuildInfo replaces the ldflags defaults with the module version
// and VCS stamps the toolchain recorded. Values set through ldflags win.
func fillFromBuildInfo(info buildInfo, bi *debug.BuildInfo) buildInfo {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
			if len(info.Commit) > 7 {
				info.Commit = info.Commit[:7]
			}
		case s.Key == "vcs.time" && info.Built == "unknown":
			info.Built = s.Value
		}
	}
	return info
}

func printBuild(cmd *cobra.Command, info buildInfo) error {
	out := cmd.OutOrStdout()
	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	default:
		fmt.Fprintf(out, "execctx %s\n", formatVersion(info.Version))
		fmt.Fprintf(out, "  commit:   %s\n", info.Commit)
		fmt.Fprintf(out, "  built:    %s\n", info.Built)
		fmt.Fprintf(out, "  go:       %s\n", info.Go)
		fmt.Fprintf(out, "  platform: %s\n", info.Platform)
	}
	return nil
}

// formatVersion adds the "v" prefix release versions are shown with.
func formatVersion(v string) string {
	if v == "" || v == "dev" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

// SetVersionInfo records the ldflags values of the binary (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
