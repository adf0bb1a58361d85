package crypto

import (
	"errors"
	"fmt"
	"os"
)

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "billbook"
	KeyName     = "db-encryption-key"

	// EnvVar overrides any platform keyring when set
	EnvVar = "BILLBOOK_DB_KEY"
)

var (
	ErrKeyNotFound = errors.New("encryption key not found")
	ErrEmptyKey    = errors.New("password cannot be empty")
)

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	return newPlatformKeyring()
}

// EnvKeyring reads the key from an environment variable. It cannot store keys.
type EnvKeyring struct {
	Var    string
	lookup func(string) string
}

// NewEnvKeyring reads the key from BILLBOOK_DB_KEY
func NewEnvKeyring() *EnvKeyring {
	return &EnvKeyring{Var: EnvVar, lookup: os.Getenv}
}

func (k *EnvKeyring) GetKey() (string, error) {
	key := k.lookup(k.Var)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set: %w", k.Var, ErrKeyNotFound)
	}
	return key, nil
}

// SetKey returns an error telling the user which variable to export
func (k *EnvKeyring) SetKey(password string) error {
	if password == "" {
		return ErrEmptyKey
	}
	return fmt.Errorf("keyring not available on this platform: please set %s to the password you just entered", k.Var)
}

func (k *EnvKeyring) DeleteKey() error {
	return fmt.Errorf("keyring not available on this platform: please unset %s manually", k.Var)
}

func (k *EnvKeyring) IsAvailable() bool {
	return k.lookup(k.Var) != ""
}
