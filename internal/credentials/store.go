// Package credentials owns the single process-wide API credential and
// the remote client bound to it. Keys live for the process lifetime
// only; nothing here ever writes a key into a workflow or to disk.
package credentials

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	"falbridge/internal/falclient"
)

// EnvKey is the environment variable carrying the API key. It takes
// precedence over any config file value at startup.
const EnvKey = "FAL_KEY"

// PlaceholderKey is the value shipped in the example config. Running
// with it is allowed but surfaced as a warning.
const PlaceholderKey = "<your_fal_api_key_here>"

// unnamedKeyLabel is reported when the active key has no explicit name.
const unnamedKeyLabel = "config.ini / env"

// Store holds the active credential and the client built from it. It
// is the only shared mutable state in the bridge; all access goes
// through the mutex so a reader never observes a half-updated
// credential.
type Store struct {
	mu      sync.RWMutex
	key     string
	keyName string
	client  *falclient.Client

	clientOpts []falclient.Option
	logger     zerolog.Logger
}

// NewStore resolves the initial key (environment first, then the
// config fallback) and prepares lazy client construction. clientOpts
// apply to every client the store creates, including after key swaps.
// A resolved config key is written back into the environment so that
// env-reading transports agree with the store.
func NewStore(configKey string, logger zerolog.Logger, clientOpts ...falclient.Option) *Store {
	s := &Store{
		clientOpts: clientOpts,
		logger:     logger.With().Str("component", "credentials").Logger(),
	}
	if v := os.Getenv(EnvKey); v != "" {
		s.key = v
		s.logger.Info().Msg("FAL_KEY found in environment")
	} else if configKey != "" {
		s.key = configKey
		os.Setenv(EnvKey, configKey)
		s.logger.Info().Msg("FAL_KEY taken from config file and exported to environment")
	} else {
		s.logger.Warn().Msg("no FAL_KEY in environment or config file")
	}
	if s.key == PlaceholderKey {
		s.logger.Warn().Msg("FAL_KEY is the default placeholder; set a real key in the config file or the FAL_KEY environment variable")
	}
	return s
}

// Key returns the active API key; empty when none is configured.
func (s *Store) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// KeyDisplayName returns the label assigned to the active key, or a
// fixed sentinel when the key came in unnamed.
func (s *Store) KeyDisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keyName != "" {
		return s.keyName
	}
	return unnamedKeyLabel
}

// SetKey replaces the active credential and drops the cached client so
// the next Client call rebuilds it with the new key. Handles already
// issued to in-flight jobs keep working against the old key.
func (s *Store) SetKey(key, name string) {
	s.mu.Lock()
	s.key = key
	s.keyName = name
	s.client = nil
	s.mu.Unlock()
	os.Setenv(EnvKey, key)
	display := name
	if display == "" {
		display = "unnamed"
	}
	s.logger.Info().Str("key_name", display).Msg("API key switched")
}

// Client returns the client bound to the current credential,
// constructing it lazily.
func (s *Store) Client() *falclient.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		s.client = falclient.New(s.key, s.clientOpts...)
	}
	return s.client
}
