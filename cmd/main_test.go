package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrides(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--host", "example.com",
		"--port", "2222",
		"--protocol", "sftp",
		"--ignore", ".git",
		"--ignore", "node_modules/**,vendor/**",
		"--initial",
	}))

	o := overrides(cmd.Flags())
	require.NotNil(t, o.Host)
	assert.Equal(t, "example.com", *o.Host)
	require.NotNil(t, o.Port)
	assert.Equal(t, 2222, *o.Port)
	require.NotNil(t, o.Protocol)
	assert.Equal(t, "sftp", *o.Protocol)
	require.NotNil(t, o.Initial)
	assert.True(t, *o.Initial)

	// commas are part of a glob
	assert.Equal(t, []string{".git", "node_modules/**,vendor/**"}, o.Ignore)

	// flags left alone do not override the config file
	assert.Nil(t, o.User)
	assert.Nil(t, o.Password)
	assert.Nil(t, o.Theme)
	assert.Nil(t, o.Backup)
}

func TestMissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--configFile", "testdata/missing.yaml"})

	assert.Error(t, cmd.Execute())
}

func TestBadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--log-level", "chatty"})

	assert.Error(t, cmd.Execute())
}
