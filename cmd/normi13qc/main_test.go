package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitAndRoom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normi13.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err = execute(t, "room", "-c", path, "-a", "qc_series", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "name: WKZ1")
	assert.Contains(t, out, "linepairType: typ38")
	assert.Contains(t, out, "pidmm: [70, 50]")
	assert.Contains(t, out, "sidmm: [-1, -1]")
}

func TestRoomUnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normi13.yaml")
	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)

	_, err = execute(t, "room", "-c", path, "-a", "mtf_series", "--log-level", "error")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "mtf_series"))
}

func TestRoomConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	cfg := "actions:\n  qc_series:\n    params:\n      roomname: WKZ1\n      linepair_type: typ38\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	_, err := execute(t, "room", "-c", path, "-a", "qc_series", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pidmm")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "normi13qc dev")
}
