package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "sqlfn"

// StorePassword saves the password of a profile in the OS keychain.
func StorePassword(profile, password string) error {
	if err := keyring.Set(keyringService, profile, password); err != nil {
		return fmt.Errorf("keyring set %q: %w", profile, err)
	}
	return nil
}

// DeletePassword removes a profile password from the OS keychain. A missing
// entry is not an error.
func DeletePassword(profile string) error {
	err := keyring.Delete(keyringService, profile)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %q: %w", profile, err)
	}
	return nil
}

// ResolveDSN builds the connection string of c, reading the password from
// the OS keychain when the profile asks for it.
func (c Connection) ResolveDSN() (string, error) {
	if !c.PasswordFromKeyring {
		return c.DSN(c.Password), nil
	}
	password, err := keyring.Get(keyringService, c.Name)
	if err != nil {
		return "", fmt.Errorf("keyring get %q: %w", c.Name, err)
	}
	return c.DSN(password), nil
}
