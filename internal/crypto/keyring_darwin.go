//go:build darwin

package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// darwinKeyring stores the key in the macOS Keychain. BILLBOOK_DB_KEY still
// wins when set so scripts can run without a keychain prompt.
type darwinKeyring struct {
	env *EnvKeyring
}

func newPlatformKeyring() Keyring {
	return &darwinKeyring{env: NewEnvKeyring()}
}

func (k *darwinKeyring) GetKey() (string, error) {
	if k.env.IsAvailable() {
		return k.env.GetKey()
	}

	key, err := keyring.Get(ServiceName, KeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keychain: %w", ErrKeyNotFound)
		}
		return "", fmt.Errorf("failed to retrieve key from keychain: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("keychain entry is empty: %w", ErrKeyNotFound)
	}

	return key, nil
}

func (k *darwinKeyring) SetKey(password string) error {
	if password == "" {
		return ErrEmptyKey
	}
	if err := keyring.Set(ServiceName, KeyName, password); err != nil {
		return fmt.Errorf("failed to store key in keychain: %w", err)
	}
	return nil
}

func (k *darwinKeyring) DeleteKey() error {
	err := keyring.Delete(ServiceName, KeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("keychain: %w", ErrKeyNotFound)
		}
		return fmt.Errorf("failed to delete key from keychain: %w", err)
	}
	return nil
}

// IsAvailable probes the keychain with a throwaway entry
func (k *darwinKeyring) IsAvailable() bool {
	if k.env.IsAvailable() {
		return true
	}
	probe := "__billbook_availability_test__"
	if err := keyring.Set(ServiceName, probe, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(ServiceName, probe)
	return true
}
