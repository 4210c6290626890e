package maincmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir temporarily switches the process working directory to dir and
// restores it when the test finishes, since loadConfig looks for
// configFileName relative to cwd.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(old)) })
}

func TestLoadConfigMissingFileYieldsZeroValue(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, &config{}, cfg)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	contents := "max_steps: 5000\ncache_dir: /tmp/bci-cache\n"
	require.NoError(t, os.WriteFile(configFileName, []byte(contents), 0o644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.MaxSteps)
	require.Equal(t, "/tmp/bci-cache", cfg.CacheDir)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(configFileName, []byte("max_steps: [this is not an int"), 0o644))

	_, err := loadConfig()
	require.Error(t, err)
}

func TestCachePathForDefaultsNextToSource(t *testing.T) {
	got := cachePathFor("/src/prog.bci", nil)
	require.Equal(t, "/src/prog.bci.bcc", got)

	got = cachePathFor("/src/prog.bci", &config{})
	require.Equal(t, "/src/prog.bci.bcc", got)
}

func TestCachePathForHonorsCacheDir(t *testing.T) {
	got := cachePathFor("/src/prog.bci", &config{CacheDir: "/var/cache/bci"})
	require.Equal(t, filepath.Join("/var/cache/bci", "prog.bci.bcc"), got)
}
