package source

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "lazygrid"

// PasswordStore keeps database passwords in the OS keyring
type PasswordStore struct {
	service string
}

// NewPasswordStore creates a store under the lazygrid service name
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{service: serviceName}
}

// Account returns the keyring account name for a connection
func Account(config PostgresConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", config.User, config.Host, config.Port, config.Database)
}

// Get returns the stored password, or "" when none is stored
func (s *PasswordStore) Get(config PostgresConfig) (string, error) {
	password, err := keyring.Get(s.service, Account(config))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// Set stores a password
func (s *PasswordStore) Set(config PostgresConfig, password string) error {
	if err := keyring.Set(s.service, Account(config), password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}

// Delete removes a stored password. Missing entries are not an error.
func (s *PasswordStore) Delete(config PostgresConfig) error {
	err := keyring.Delete(s.service, Account(config))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}
