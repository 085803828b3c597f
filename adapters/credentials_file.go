package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"airbnk-to-mqtt/application"

	"gopkg.in/yaml.v3"
)

var ErrCredentialsExist = errors.New("credentials already configured")

// CredentialsFile keeps the account credentials in a YAML file. The file is read on
// every call so a token replaced by a new login takes effect without a restart.
type CredentialsFile struct {
	path string
}

func NewCredentialsFile(path string) *CredentialsFile {
	return &CredentialsFile{path: path}
}

func (c *CredentialsFile) Path() string {
	return c.path
}

func (c *CredentialsFile) Credentials(ctx context.Context) (application.Credentials, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return application.Credentials{}, fmt.Errorf("%w: %s not found", application.ErrNoCredentials, c.path)
	} else if err != nil {
		return application.Credentials{}, err
	}

	var creds application.Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return application.Credentials{}, fmt.Errorf("parse %s: %w", c.path, err)
	}

	if creds.UserID == "" || creds.Token == "" {
		return application.Credentials{}, fmt.Errorf("%w: %s has no userId or token", application.ErrNoCredentials, c.path)
	}
	return creds, nil
}

// CheckWritable reports ErrCredentialsExist when Save would refuse to write.
func (c *CredentialsFile) CheckWritable(force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(c.path); err == nil {
		return fmt.Errorf("%w: %s", ErrCredentialsExist, c.path)
	}
	return nil
}

// Save writes creds, refusing to replace an existing file unless force is set.
func (c *CredentialsFile) Save(creds application.Credentials, force bool) error {
	if err := c.CheckWritable(force); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

var _ application.CredentialsProvider = &CredentialsFile{}
