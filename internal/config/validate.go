package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/execctx/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but execctx only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade execctx or lower the version in .execctx.yaml.")
	}

	if err := validateSSH(cfg.SSH); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'ssh' section in your .execctx.yaml.")
	}

	return nil
}

func validateSSH(ssh SSHConfig) error {
	if strings.TrimSpace(ssh.Executable) == "" {
		return fmt.Errorf("ssh executable can't be empty")
	}
	if strings.ContainsAny(ssh.Executable, " \t") && !strings.Contains(ssh.Executable, "/") {
		return fmt.Errorf("ssh executable '%s' looks like a command line; use 'ssh.args' for arguments", ssh.Executable)
	}
	for i, arg := range ssh.Args {
		if arg == "" {
			return fmt.Errorf("ssh args has an empty entry at position %d", i)
		}
	}
	return nil
}
