package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .execctx.yaml configuration file.
type Config struct {
	Version int          `yaml:"version" mapstructure:"version"`
	SSH     SSHConfig    `yaml:"ssh" mapstructure:"ssh"`
	Record  RecordConfig `yaml:"record" mapstructure:"record"`

	// Verbose wraps the built chain in logging layers.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`

	// Context holds context flags used when EXECUTION_CONTEXT is unset,
	// for example "--ssh build-box --auto-x".
	Context string `yaml:"context" mapstructure:"context"`
}

// SSHConfig controls how SSH contexts invoke the ssh client.
type SSHConfig struct {
	// Executable is the ssh client binary.
	Executable string `yaml:"executable" mapstructure:"executable"`

	// Args are placed between the executable and the host.
	Args []string `yaml:"args" mapstructure:"args"`

	// ConfigFile is the ssh_config file host aliases are read from.
	// Supports a leading ~/.
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`
}

// RecordConfig controls recording defaults.
type RecordConfig struct {
	// Stateless records without numbered states unless --zip-out-stateless
	// says otherwise.
	Stateless bool `yaml:"stateless" mapstructure:"stateless"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		SSH: SSHConfig{
			Executable: "/usr/bin/ssh",
			Args:       []string{"-o", "BatchMode=yes", "-o", "ControlMaster=no"},
			ConfigFile: "~/.ssh/config",
		},
	}
}
