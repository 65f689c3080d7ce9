package services

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringServiceName = "devforge"

// envKeyFallbacks maps provider ids to the conventional environment
// variables consulted when the OS keyring has no entry. Headless servers
// usually configure credentials through the environment.
var envKeyFallbacks = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"github":    {"GITHUB_TOKEN", "GH_TOKEN"},
}

// KeyringService stores provider API keys and the git push token in the OS
// keyring, with environment-variable fallback.
type KeyringService struct {
}

func NewKeyringService() *KeyringService {
	return &KeyringService{}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}

	if err := keyring.Set(keyringServiceName, provider, string(apiKey)); err != nil {
		return err
	}

	return s.addProvider(provider)
}

// GetApiKey returns the stored key for provider, falling back to the
// provider's conventional environment variables. An empty string without an
// error means no credential is configured anywhere. Keyring backend errors
// (no daemon on headless hosts) degrade to the env fallback rather than
// failing the lookup.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}

	if value, err := keyring.Get(keyringServiceName, provider); err == nil && value != "" {
		return value, nil
	}

	for _, env := range envKeyFallbacks[provider] {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// GitToken returns the token used to authenticate https pushes, if any.
func (s *KeyringService) GitToken() string {
	token, _ := s.GetApiKey("github")
	return token
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}

	if err := keyring.Delete(keyringServiceName, provider); err != nil {
		return err
	}

	return s.removeProvider(provider)
}

// ListApiKeys returns metadata for all providers with a stored key.
func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	providers, err := s.loadProviders()
	if err != nil {
		return nil, err
	}

	var results []map[string]string
	for _, provider := range providers {
		if _, err := keyring.Get(keyringServiceName, provider); err != nil {
			continue
		}

		results = append(results, map[string]string{
			"provider": provider,
			"label":    provider + " API key",
		})
	}
	return results, nil
}

func (s *KeyringService) getProvidersConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(configDir, "devforge")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, "providers.json"), nil
}

func (s *KeyringService) loadProviders() ([]string, error) {
	path, err := s.getProvidersConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var providers []string
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *KeyringService) saveProviders(providers []string) error {
	path, err := s.getProvidersConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(providers, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (s *KeyringService) addProvider(provider string) error {
	providers, err := s.loadProviders()
	if err != nil {
		return err
	}

	for _, p := range providers {
		if p == provider {
			return nil
		}
	}

	providers = append(providers, provider)
	return s.saveProviders(providers)
}

func (s *KeyringService) removeProvider(provider string) error {
	providers, err := s.loadProviders()
	if err != nil {
		return err
	}

	var remaining []string
	for _, p := range providers {
		if p != provider {
			remaining = append(remaining, p)
		}
	}

	return s.saveProviders(remaining)
}
