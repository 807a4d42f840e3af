// Package config resolves CLI settings from a YAML file, the environment, and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvClientID     = "FIREFLY_CLIENT_ID"
	EnvClientSecret = "FIREFLY_CLIENT_SECRET"
)

// File is the on-disk YAML configuration.
type File struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	TokenURL     string        `yaml:"token_url"`
	GenerateURL  string        `yaml:"generate_url"`
}

// LoadFile reads a YAML config file. A missing file yields an empty File.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseFile(data)
}

func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if f.Timeout < 0 {
		return nil, fmt.Errorf("parsing config: timeout must not be negative")
	}
	return &f, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Settings are the resolved values the CLI builds a client from.
type Settings struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	TokenURL     string
	GenerateURL  string
}

// Overrides holds values given on the command line; empty means unset.
type Overrides struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Resolve merges the sources with precedence flags > environment > file.
func Resolve(f *File, o Overrides, getenv func(string) string) Settings {
	if f == nil {
		f = &File{}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	s := Settings{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Timeout:      f.Timeout,
		TokenURL:     f.TokenURL,
		GenerateURL:  f.GenerateURL,
	}
	if v := getenv(EnvClientID); v != "" {
		s.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		s.ClientSecret = v
	}
	if o.ClientID != "" {
		s.ClientID = o.ClientID
	}
	if o.ClientSecret != "" {
		s.ClientSecret = o.ClientSecret
	}
	if o.Timeout > 0 {
		s.Timeout = o.Timeout
	}
	return s
}

// Check reports missing credentials, naming both the flag and the variable.
func (s Settings) Check() error {
	if s.ClientID == "" {
		return fmt.Errorf("client id must be provided with --client-id or the %s environment variable", EnvClientID)
	}
	if s.ClientSecret == "" {
		return fmt.Errorf("client secret must be provided with --client-secret or the %s environment variable", EnvClientSecret)
	}
	return nil
}
