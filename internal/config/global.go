// SPDX-License-Identifier: MPL-2.0

package config

import "sync"

var (
	mu sync.Mutex

	// configDirOverride lets tests bypass os.UserHomeDir, which doesn't
	// reliably respect $HOME on all platforms.
	configDirOverride string

	// configFilePathOverride is set from the --config flag.
	configFilePathOverride string

	// globalConfig caches the loaded config for Get.
	globalConfig *Config
)

// Get returns the cached configuration, loading it on first use.
// Load errors fall back to defaults; callers that need the error use Load.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig
	}

	cfg, _, err := Load()
	if err != nil || cfg == nil {
		cfg = DefaultConfig()
	}
	globalConfig = cfg
	return globalConfig
}

// SetConfigFilePathOverride forces loading from a specific config file and
// clears the cache.
func SetConfigFilePathOverride(path string) {
	mu.Lock()
	defer mu.Unlock()
	configFilePathOverride = path
	globalConfig = nil
}

// SetConfigDirOverride sets a custom config directory path and clears the
// cache. Primarily for tests.
func SetConfigDirOverride(dir string) {
	mu.Lock()
	defer mu.Unlock()
	configDirOverride = dir
	globalConfig = nil
}

// Reset clears all overrides and the cache. Call from test cleanup.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	configDirOverride = ""
	configFilePathOverride = ""
	globalConfig = nil
}
