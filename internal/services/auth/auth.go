package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const ServiceName = "atl"

const (
	ProviderHetzner    = "hetzner"
	ProviderCloudflare = "cloudflare"
)

var (
	ErrTokenNotFound   = errors.New("auth token not found")
	ErrUnknownProvider = errors.New("unknown credential provider")
	ErrEmptyToken      = errors.New("auth token is empty")
)

// envVars maps each provider to the environment variable Terraform and the
// Hetzner client read its token from.
var envVars = map[string]string{
	ProviderHetzner:    "HCLOUD_TOKEN",
	ProviderCloudflare: "CLOUDFLARE_API_TOKEN",
}

// Source values reported by Resolve.
const (
	SourceEnv     = "env"
	SourceKeyring = "keyring"
)

// Store persists provider tokens. Provider names are matched
// case-insensitively.
type Store interface {
	SetToken(provider string, token string) error
	GetToken(provider string) (string, error)
	DeleteToken(provider string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeychain(ServiceName)
}

// NormalizeProvider lowercases and trims a provider name.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// Providers returns the supported provider names in display order.
func Providers() []string {
	return []string{ProviderHetzner, ProviderCloudflare}
}

// EnvVar returns the environment variable holding provider's token.
func EnvVar(provider string) (string, error) {
	name, ok := envVars[NormalizeProvider(provider)]
	if !ok {
		return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownProvider, provider, strings.Join(Providers(), ", "))
	}
	return name, nil
}

// Resolve returns provider's token and where it came from. The environment
// variable wins over the keychain; an empty variable counts as unset.
func Resolve(store Store, provider string) (token, source string, err error) {
	envName, err := EnvVar(provider)
	if err != nil {
		return "", "", err
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, SourceEnv, nil
	}
	if store == nil {
		return "", "", ErrTokenNotFound
	}
	token, err = store.GetToken(provider)
	if err != nil {
		return "", "", err
	}
	return token, SourceKeyring, nil
}

// Env resolves every provider and returns KEY=VALUE entries for the ones
// found, plus the env var names of those missing.
func Env(store Store) (env []string, missing []string) {
	for _, p := range Providers() {
		name := envVars[p]
		token, _, err := Resolve(store, p)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		env = append(env, name+"="+token)
	}
	return env, missing
}
