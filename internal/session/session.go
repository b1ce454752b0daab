// Package session persists the CLI credential between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const DefaultServer = "http://localhost:8080"

// Session is what a successful login leaves behind.
type Session struct {
	Server       string
	Token        string
	RefreshToken string `mapstructure:"refresh_token"`
	Name         string
}

// Path returns the session file location. TASKBOARD_SESSION overrides the
// default of ~/.config/taskboard/session.toml.
func Path() string {
	if p := os.Getenv("TASKBOARD_SESSION"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "taskboard", "session.toml")
}

// Load reads the session file and env. Env var overrides use prefix TASKBOARD_.
// A missing file yields an empty session pointing at the default server.
func Load() (Session, error) {
	v := viper.New()

	v.SetDefault("server", DefaultServer)
	v.SetDefault("token", "")
	v.SetDefault("refresh_token", "")
	v.SetDefault("name", "")

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("TASKBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Session{}, fmt.Errorf("read session: %w", err)
		}
	}

	var s Session
	if err := v.Unmarshal(&s); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, nil
}

// Save writes s to disk, creating the directory if needed. The file holds
// bearer tokens so it is readable by the owner only.
func Save(s Session) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("server", s.Server)
	v.Set("token", s.Token)
	v.Set("refresh_token", s.RefreshToken)
	v.Set("name", s.Name)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// Clear forgets the credentials but keeps the server address.
func Clear() error {
	s, err := Load()
	if err != nil {
		return err
	}
	return Save(Session{Server: s.Server})
}
