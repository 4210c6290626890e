package maincmd

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is the conventional name the run, repl, compile, disasm
// and analyze commands look for in the current working directory.
const configFileName = "bci.yaml"

// config is the optional run configuration: a cap on VM steps (see
// machine.Machine.MaxSteps) and a directory to keep .bcc cache files in
// instead of writing them next to the source file.
type config struct {
	MaxSteps int    `yaml:"max_steps"`
	CacheDir string `yaml:"cache_dir"`
}

// loadConfig reads configFileName from the current directory. A missing
// file is not an error: it yields the zero-value config, meaning "no step
// limit, cache next to the source file" -- the same defaults as if no
// config file existed at all.
func loadConfig() (*config, error) {
	data, err := os.ReadFile(configFileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &config{}, nil
		}
		return nil, err
	}
	var c config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// cachePathFor returns the cache file location for path, honoring
// cfg.CacheDir when set.
func cachePathFor(path string, cfg *config) string {
	if cfg == nil || cfg.CacheDir == "" {
		return path + ".bcc"
	}
	return filepath.Join(cfg.CacheDir, filepath.Base(path)+".bcc")
}
