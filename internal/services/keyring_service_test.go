package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringService_StoreAndGet(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s := NewKeyringService()

	require.NoError(t, s.StoreApiKey("openai", []byte("sk-test")))
	got, err := s.GetApiKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)
}

func TestKeyringService_EnvFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	s := NewKeyringService()
	got, err := s.GetApiKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "env-key", got)
}

func TestKeyringService_UnconfiguredProviderIsNotAnError(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	s := NewKeyringService()

	got, err := s.GetApiKey("gemini")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeyringService_GitToken(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "ghp_token")

	s := NewKeyringService()
	assert.Equal(t, "ghp_token", s.GitToken())
}

func TestKeyringService_EmptyInputs(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s := NewKeyringService()

	assert.Error(t, s.StoreApiKey("", []byte("x")))
	assert.Error(t, s.StoreApiKey("openai", nil))
	_, err := s.GetApiKey("")
	assert.Error(t, err)
}
