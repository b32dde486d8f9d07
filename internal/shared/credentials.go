package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Environment variables read by [CredentialsFromEnv].
const (
	EnvUsername = "TRACKRIP_USERNAME"
	EnvToken    = "TRACKRIP_TOKEN"
)

// Credentials is the stored secret used to open a session.
type Credentials struct {
	Username string `toml:"username"`
	Token    string `toml:"token"`
}

// Validate reports whether both fields are present.
func (c *Credentials) Validate() error {
	if c.Username == "" || c.Token == "" {
		return fmt.Errorf("%w: username and token are required", ErrInvalidCredentials)
	}
	return nil
}

// CredentialsGenerator provisions credentials when none are stored at path.
type CredentialsGenerator func(path string) (*Credentials, error)

// NoCredentials is a [CredentialsGenerator] that always fails.
func NoCredentials(string) (*Credentials, error) {
	return nil, ErrMissingCredentials
}

// CredentialsFromEnv provisions credentials from TRACKRIP_USERNAME and TRACKRIP_TOKEN.
func CredentialsFromEnv(string) (*Credentials, error) {
	creds := &Credentials{
		Username: os.Getenv(EnvUsername),
		Token:    os.Getenv(EnvToken),
	}
	if creds.Username == "" || creds.Token == "" {
		return nil, fmt.Errorf("%w: set %s and %s", ErrMissingCredentials, EnvUsername, EnvToken)
	}
	return creds, nil
}

// LoadOrCreateCredentials reads credentials from path, provisioning them with generate when the file is missing.
//
// Provisioned credentials are saved to path. The file is always left with mode 0600.
func LoadOrCreateCredentials(path string, generate CredentialsGenerator) (*Credentials, error) {
	var creds Credentials
	_, err := toml.DecodeFile(path, &creds)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		generated, genErr := generate(path)
		if genErr != nil {
			return nil, genErr
		}
		if err := generated.Save(path); err != nil {
			return nil, err
		}
		creds = *generated
	default:
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, path, err)
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if err := os.Chmod(path, 0600); err != nil {
		return nil, fmt.Errorf("failed to restrict credentials file: %w", err)
	}

	return &creds, nil
}

// Save writes the credentials to path with mode 0600.
func (c *Credentials) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close credentials file: %w", err)
	}

	return nil
}

// ResetCredentials deletes the stored credentials. A missing file is not an error.
func ResetCredentials(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete credential file: %w", err)
	}
	return nil
}
