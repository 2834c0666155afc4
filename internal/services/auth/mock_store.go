package auth

import "strings"

// MockStore is an in-memory Store for tests. It applies the same provider
// and empty-token checks as Keychain.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(provider string, token string) error {
	if _, err := EnvVar(provider); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	m.tokens[NormalizeProvider(provider)] = strings.TrimSpace(token)
	return nil
}

func (m *MockStore) GetToken(provider string) (string, error) {
	if token, ok := m.tokens[NormalizeProvider(provider)]; ok {
		return token, nil
	}
	return "", ErrTokenNotFound
}

func (m *MockStore) DeleteToken(provider string) error {
	key := NormalizeProvider(provider)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
