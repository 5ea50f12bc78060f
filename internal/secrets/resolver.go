// SPDX-License-Identifier: MPL-2.0

// Package secrets resolves platform-managed secret values and keeps them out
// of runner output. It also implements the encrypted credential bundle format.
package secrets

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the environment prefix for secret values, e.g. the secret
// STAGING_DB_CONNECTION_URL is read from SIGLACI_SECRET_STAGING_DB_CONNECTION_URL.
const EnvPrefix = "SIGLACI_SECRET_"

// Resolver resolves secret names to opaque values. Sources are consulted in
// order: the local map, the process environment, then the operator-managed
// secrets file. Resolved values are cached and tracked for redaction.
type Resolver struct {
	// Local holds explicitly provided secrets (tests, --secret flags).
	local map[string]string
	// FilePath is the optional TOML secrets file, loaded lazily.
	filePath string

	redactor *Redactor

	mu        sync.Mutex
	cache     map[string]string
	fromFile  map[string]string
	fileRead  bool
	fileError error
}

// NewResolver creates a resolver. local may be nil; filePath may be empty.
// Tracked values are registered on the given redactor when it is non-nil.
func NewResolver(local map[string]string, filePath string, redactor *Redactor) *Resolver {
	return &Resolver{
		local:    local,
		filePath: filePath,
		redactor: redactor,
		cache:    make(map[string]string),
	}
}

// Resolve returns the value for a secret name. A secret that cannot be found,
// or that resolves to an empty value, is a hard error: the run must fail fast
// rather than proceed with an empty credential.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.resolveLocked(name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("secret %q resolved to an empty value", name)
	}

	r.cache[name] = value
	if r.redactor != nil {
		r.redactor.Track(value)
	}
	return value, nil
}

func (r *Resolver) resolveLocked(name string) (string, error) {
	// 1. Explicit local secrets.
	if value, ok := r.local[name]; ok {
		return value, nil
	}

	// 2. Process environment.
	if value, ok := os.LookupEnv(EnvPrefix + name); ok {
		return value, nil
	}

	// 3. Secrets file.
	if r.filePath != "" {
		fileSecrets, err := r.loadFileLocked()
		if err != nil {
			return "", err
		}
		if value, ok := fileSecrets[name]; ok {
			return value, nil
		}
	}

	return "", fmt.Errorf("secret %q not configured (checked --secret values, $%s%s, and the secrets file)", name, EnvPrefix, name)
}

// loadFileLocked reads the TOML secrets file once and memoizes the result.
func (r *Resolver) loadFileLocked() (map[string]string, error) {
	if r.fileRead {
		return r.fromFile, r.fileError
	}
	r.fileRead = true

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		r.fileError = fmt.Errorf("failed to read secrets file %s: %w", r.filePath, err)
		return nil, r.fileError
	}

	var parsed map[string]string
	if err := toml.Unmarshal(data, &parsed); err != nil {
		r.fileError = fmt.Errorf("failed to parse secrets file %s: %w", r.filePath, err)
		return nil, r.fileError
	}

	r.fromFile = parsed
	return r.fromFile, nil
}
