// Package sshutil reads the OpenSSH client configuration so SSH contexts can
// be pointed at configured host aliases.
package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/execctx/internal/errors"
)

// Host is a concrete Host alias from an ssh_config file.
type Host struct {
	Alias    string // The Host pattern (alias)
	Hostname string // The HostName value (actual host to connect to)
	User     string
	Port     string
}

// Destination is what ssh would connect to for this alias, as user@host:port
// with the parts that are set.
func (h Host) Destination() string {
	dest := h.Alias
	if h.Hostname != "" {
		dest = h.Hostname
	}
	if h.User != "" {
		dest = h.User + "@" + dest
	}
	if h.Port != "" && h.Port != "22" {
		dest += ":" + h.Port
	}
	return dest
}

// DefaultConfigPath returns ~/.ssh/config.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// ParseConfigFile returns the concrete host aliases in configPath, sorted by
// alias. Wildcard patterns are skipped. A missing file yields no hosts.
//
// Parsing stops at the first Match block, which the decoder can't handle.
func ParseConfigFile(configPath string) ([]Host, error) {
	content, err := readUntilMatch(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No SSH config is fine
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't read SSH config "+configPath,
			"Check the file permissions")
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't parse SSH config "+configPath,
			"Check the syntax with: ssh -G <host>")
	}

	var hosts []Host
	seen := make(map[string]bool)

	for _, block := range cfg.Hosts {
		for _, pattern := range block.Patterns {
			alias := pattern.String()

			if strings.ContainsAny(alias, "*?!") || seen[alias] {
				continue
			}
			seen[alias] = true

			h := Host{Alias: alias}
			h.Hostname, _ = cfg.Get(alias, "HostName")
			h.User, _ = cfg.Get(alias, "User")
			h.Port, _ = cfg.Get(alias, "Port")
			hosts = append(hosts, h)
		}
	}

	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Alias < hosts[j].Alias
	})

	return hosts, nil
}

// Aliases returns the aliases of hosts starting with prefix.
func Aliases(hosts []Host, prefix string) []string {
	var out []string
	for _, h := range hosts {
		if strings.HasPrefix(h.Alias, prefix) {
			out = append(out, h.Alias)
		}
	}
	return out
}

func readUntilMatch(configPath string) ([]byte, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			lines = lines[:i]
			break
		}
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}
