package cli

import (
	"fmt"

	"github.com/rileyhilliard/execctx/internal/config"
	"github.com/rileyhilliard/execctx/internal/ui"
	"github.com/rileyhilliard/execctx/pkg/sshutil"
	"github.com/spf13/cobra"
)

// hostsCmd lists ssh_config aliases usable with --ssh
var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List SSH host aliases usable with --ssh",
	Long: `List the concrete Host aliases from the SSH client configuration
(ssh.config_file in .execctx.yaml, ~/.ssh/config by default).

Wildcard patterns are skipped, as is everything after the first Match block.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hosts, err := sshutil.ParseConfigFile(sshConfigPath(cfg))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(hosts) == 0 {
			fmt.Fprintf(out, "No hosts found in %s\n", sshConfigPath(cfg))
			return nil
		}

		rows := make([]ui.HostRow, 0, len(hosts))
		for _, h := range hosts {
			rows = append(rows, ui.HostRow{Alias: h.Alias, Destination: h.Destination()})
		}
		fmt.Fprint(out, ui.RenderHostTable(rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hostsCmd)
}

func sshConfigPath(cfg *config.Config) string {
	if cfg.SSH.ConfigFile == "" {
		return sshutil.DefaultConfigPath()
	}
	return cfg.SSH.ConfigFile
}

// completeSSHHosts completes --ssh from the ssh_config aliases.
func completeSSHHosts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
		cfg.SSH.ConfigFile = config.ExpandHome(cfg.SSH.ConfigFile)
	}
	hosts, err := sshutil.ParseConfigFile(sshConfigPath(cfg))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return sshutil.Aliases(hosts, toComplete), cobra.ShellCompDirectiveNoFileComp
}
