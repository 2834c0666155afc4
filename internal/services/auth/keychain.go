package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// Keychain stores provider tokens in the OS keychain (Keychain on macOS,
// Secret Service on Linux, Credential Manager on Windows). Each token is
// kept under the account "<provider>-token" of one service.
type Keychain struct {
	service string
}

// NewKeychain returns a Keychain for service, or for ServiceName when
// service is empty.
func NewKeychain(service string) *Keychain {
	if service == "" {
		service = ServiceName
	}
	return &Keychain{service: service}
}

func (k *Keychain) account(provider string) (string, error) {
	if _, err := EnvVar(provider); err != nil {
		return "", err
	}
	return NormalizeProvider(provider) + "-token", nil
}

// SetToken stores token for provider. Surrounding whitespace is dropped.
func (k *Keychain) SetToken(provider string, token string) error {
	account, err := k.account(provider)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := keyring.Set(k.service, account, token); err != nil {
		return fmt.Errorf("failed to store %s token: %w", NormalizeProvider(provider), err)
	}
	return nil
}

// GetToken returns the stored token for provider, or ErrTokenNotFound.
func (k *Keychain) GetToken(provider string) (string, error) {
	account, err := k.account(provider)
	if err != nil {
		return "", err
	}
	token, err := keyring.Get(k.service, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrTokenNotFound
	case err != nil:
		return "", fmt.Errorf("failed to read %s token: %w", NormalizeProvider(provider), err)
	}
	return token, nil
}

// DeleteToken removes the token for provider, or returns ErrTokenNotFound.
func (k *Keychain) DeleteToken(provider string) error {
	account, err := k.account(provider)
	if err != nil {
		return err
	}
	err = keyring.Delete(k.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
