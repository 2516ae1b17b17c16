package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "forum-inbox"

// tokenKey is the keyring entry under which the bearer token is stored.
const tokenKey = "forum-token"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/forum-inbox/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("forum-inbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store provides access to the current session's bearer token. A single
// Store is constructed per process and injected into the HTTP client
// and the notification channel.
type Store struct{}

// NewStore returns a keyring-backed credential store.
func NewStore() *Store {
	return &Store{}
}

// Token returns the stored bearer token, or an empty string if no
// session exists.
func (s *Store) Token() string {
	ring, err := openKeyring()
	if err != nil {
		return ""
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		return ""
	}

	return string(item.Data)
}

// SetToken stores the bearer token in the system keyring.
func (s *Store) SetToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	return nil
}

// Clear removes the stored token. Missing entries are not an error;
// logout must be idempotent.
func (s *Store) Clear() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing token: %w", err)
	}

	return nil
}

// HasToken reports whether a bearer token is currently stored.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}
