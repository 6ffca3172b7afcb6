package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	APIKeyName     = "OPENAI_API_KEY"
	SecretsSection = "general"
)

var ErrMissingCredential = errors.New("no openai api key found")

// CredentialProvider is one place an API key may live.
type CredentialProvider interface {
	Name() string
	Lookup() (string, bool)
}

type Credential struct {
	Value  string
	Source string
}

// ResolveCredential tries providers in order and returns the first
// non-empty value.
func ResolveCredential(providers ...CredentialProvider) (Credential, error) {
	for _, p := range providers {
		if v, ok := p.Lookup(); ok {
			return Credential{Value: v, Source: p.Name()}, nil
		}
	}
	return Credential{}, ErrMissingCredential
}

// DefaultCredentialProviders returns env, flat secret and nested secret
// providers, in that order. A secrets file that cannot be parsed is reported
// but the env provider is still usable.
func DefaultCredentialProviders(secretsFile string) ([]CredentialProvider, error) {
	secrets, err := LoadSecrets(secretsFile)
	return []CredentialProvider{
		EnvProvider{Key: APIKeyName},
		SecretProvider{Secrets: secrets, Key: APIKeyName},
		SecretProvider{Secrets: secrets, Section: SecretsSection, Key: APIKeyName},
	}, err
}

type EnvProvider struct {
	Key string
}

func (p EnvProvider) Name() string { return "env:" + p.Key }

func (p EnvProvider) Lookup() (string, bool) {
	v := strings.TrimSpace(os.Getenv(p.Key))
	return v, v != ""
}

// SecretProvider reads a key from a secrets file, either at the top level or
// under Section.
type SecretProvider struct {
	Secrets *viper.Viper
	Section string
	Key     string
}

func (p SecretProvider) Name() string {
	if p.Section == "" {
		return "secrets:" + p.Key
	}
	return "secrets:" + p.Section + "." + p.Key
}

func (p SecretProvider) Lookup() (string, bool) {
	if p.Secrets == nil {
		return "", false
	}
	key := p.Key
	if p.Section != "" {
		key = p.Section + "." + p.Key
	}
	v := strings.TrimSpace(p.Secrets.GetString(key))
	return v, v != ""
}

// LoadSecrets reads a TOML secrets file. A missing file yields an empty
// store and no error.
func LoadSecrets(path string) (*viper.Viper, error) {
	v := viper.New()
	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return viper.New(), fmt.Errorf("read secrets file %s: %w", path, err)
	}
	return v, nil
}
