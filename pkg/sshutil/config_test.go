package sshutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	return configPath
}

func TestParseConfigFile(t *testing.T) {
	configPath := writeConfig(t, `
Host myserver
    HostName 192.168.1.100
    User admin
    Port 2222

Host gpu-box
    HostName gpu.example.com
    User ubuntu

Host *
    ServerAliveInterval 60

Host work-*
    User workuser
`)

	hosts, err := ParseConfigFile(configPath)
	require.NoError(t, err)

	// Wildcards (*) and patterns (work-*) are excluded
	require.Len(t, hosts, 2)
	assert.Equal(t, "gpu-box", hosts[0].Alias)
	assert.Equal(t, "myserver", hosts[1].Alias)

	assert.Equal(t, "192.168.1.100", hosts[1].Hostname)
	assert.Equal(t, "admin", hosts[1].User)
	assert.Equal(t, "2222", hosts[1].Port)

	assert.Equal(t, "gpu.example.com", hosts[0].Hostname)
	assert.Equal(t, "ubuntu", hosts[0].User)
}

func TestParseConfigFile_NotExists(t *testing.T) {
	hosts, err := ParseConfigFile("/nonexistent/config")

	assert.NoError(t, err)
	assert.Nil(t, hosts)
}

func TestParseConfigFile_StopsAtMatch(t *testing.T) {
	configPath := writeConfig(t, `
Host before-match
    HostName before.example.com

Match host *.example.com
    User matchuser

Host after-match
    HostName after.example.com
`)

	hosts, err := ParseConfigFile(configPath)
	require.NoError(t, err)

	require.Len(t, hosts, 1)
	assert.Equal(t, "before-match", hosts[0].Alias)
}

func TestParseConfigFile_DuplicatesAndMultiplePatterns(t *testing.T) {
	configPath := writeConfig(t, `
Host alpha beta
    User shared

Host alpha
    Port 2200
`)

	hosts, err := ParseConfigFile(configPath)
	require.NoError(t, err)

	require.Len(t, hosts, 2)
	assert.Equal(t, "alpha", hosts[0].Alias)
	assert.Equal(t, "beta", hosts[1].Alias)
	assert.Equal(t, "shared", hosts[0].User)
	assert.Equal(t, "shared", hosts[1].User)
}

func TestParseConfigFile_Empty(t *testing.T) {
	hosts, err := ParseConfigFile(writeConfig(t, "# only a comment\n"))
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestHost_Destination(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want string
	}{
		{"alias only", Host{Alias: "box"}, "box"},
		{"hostname", Host{Alias: "box", Hostname: "10.0.0.5"}, "10.0.0.5"},
		{"user", Host{Alias: "box", User: "root"}, "root@box"},
		{"default port hidden", Host{Alias: "box", Port: "22"}, "box"},
		{"all parts", Host{Alias: "box", Hostname: "h.example.com", User: "me", Port: "2222"}, "me@h.example.com:2222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.host.Destination())
		})
	}
}

func TestAliases(t *testing.T) {
	hosts := []Host{{Alias: "build-1"}, {Alias: "build-2"}, {Alias: "desk"}}

	assert.Equal(t, []string{"build-1", "build-2"}, Aliases(hosts, "bu"))
	assert.Equal(t, []string{"build-1", "build-2", "desk"}, Aliases(hosts, ""))
	assert.Nil(t, Aliases(hosts, "x"))
	assert.Nil(t, Aliases(nil, ""))
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".ssh", "config"), DefaultConfigPath())
}
