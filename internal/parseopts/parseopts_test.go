package parseopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKDLSetsDisableSwitches(t *testing.T) {
	content := `
disable {
    resolve_cache true
    class_index false
}
bbpath "/opt/layers"
metrics_dir "/tmp/bb-metrics"
`
	opts := &Options{}
	require.NoError(t, parseKDL(content, opts))
	require.True(t, opts.DisableResolveCache)
	require.False(t, opts.DisableClassIndex)
	require.Equal(t, "/opt/layers", opts.BBPath)
	require.Equal(t, "/tmp/bb-metrics", opts.MetricsDir)
}

func TestApplyEnvOverridesFileValue(t *testing.T) {
	opts := &Options{DisableResolveCache: false}
	applyEnv(opts, []string{"BB_OPT_DISABLE_RESOLVE_CACHE=1"})
	require.True(t, opts.DisableResolveCache)
}

func TestApplyEnvIgnoresUnsetVars(t *testing.T) {
	opts := &Options{DisableClassIndex: true}
	applyEnv(opts, []string{"UNRELATED=1"})
	require.True(t, opts.DisableClassIndex)
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	root := t.TempDir()
	t.Setenv("BB_OPT_DISABLE_SUPPORTS_CACHE", "true")
	defer os.Unsetenv("BB_OPT_DISABLE_SUPPORTS_CACHE")

	opts, err := Load(root)
	require.NoError(t, err)
	require.True(t, opts.DisableSupportsCache)
}

func TestLoadFilePlusEnvPrecedence(t *testing.T) {
	root := t.TempDir()
	kdlPath := filepath.Join(root, "bbcore.kdl")
	require.NoError(t, os.WriteFile(kdlPath, []byte(`disable {
    resolve_cache true
}
`), 0o644))
	t.Setenv("BB_OPT_DISABLE_RESOLVE_CACHE", "false")
	defer os.Unsetenv("BB_OPT_DISABLE_RESOLVE_CACHE")

	opts, err := Load(root)
	require.NoError(t, err)
	require.False(t, opts.DisableResolveCache)
}
