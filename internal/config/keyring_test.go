package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	// In-memory keychain so tests never touch the user's real secret store.
	keyring.MockInit()
	os.Exit(m.Run())
}

func TestKeyringManager_SaveAndGetAPIKey(t *testing.T) {
	km := NewKeyringManager()
	require.True(t, km.IsAvailable())
	defer km.DeleteAPIKey(ProviderOpenAI)

	require.NoError(t, km.SaveAPIKey(ProviderOpenAI, "sk-test123456789"))

	got, err := km.GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-test123456789", got)

	other, err := km.GetAPIKey(ProviderGemini)
	require.NoError(t, err)
	assert.Empty(t, other, "keys are stored per provider")
}

func TestKeyringManager_DeleteAPIKey(t *testing.T) {
	km := NewKeyringManager()

	require.NoError(t, km.SaveAPIKey(ProviderAnthropic, "sk-ant-delete-123"))
	require.NoError(t, km.DeleteAPIKey(ProviderAnthropic))

	got, err := km.GetAPIKey(ProviderAnthropic)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, km.DeleteAPIKey(ProviderAnthropic), "deleting twice is not an error")
}

func TestKeyringManager_SaveAPIKey_EmptyKey(t *testing.T) {
	km := NewKeyringManager()
	assert.Error(t, km.SaveAPIKey(ProviderOpenAI, ""))
}

func TestGetAPIKeySource(t *testing.T) {
	km := NewKeyringManager()
	cfg := Default()
	cfg.LLM.Provider = ProviderGemini

	t.Setenv("GEMINI_API_KEY", "gemini-env-key-123")
	assert.Equal(t, "env", km.GetAPIKeySource(cfg).Source)

	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, km.SaveAPIKey(ProviderGemini, "gemini-keychain-key"))
	defer km.DeleteAPIKey(ProviderGemini)
	info := km.GetAPIKeySource(cfg)
	assert.Equal(t, "keychain", info.Source)
	assert.True(t, info.Secure)

	require.NoError(t, km.DeleteAPIKey(ProviderGemini))
	cfg.LLM.GeminiKey = "gemini-config-key"
	info = km.GetAPIKeySource(cfg)
	assert.Equal(t, "config", info.Source)
	assert.False(t, info.Secure)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", MaskAPIKey(""))
	assert.Equal(t, "***", MaskAPIKey("short"))
	assert.Equal(t, "sk-proj...wxyz", MaskAPIKey("sk-proj-abcdefghijklmnopqrstuvwxyz"))
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "sk-proj-ab...", KeyPrefix("sk-proj-abcdefghijkl", 10))
	assert.Equal(t, "***", KeyPrefix("sk-short", 10))
	assert.Equal(t, "(not set)", KeyPrefix("", 10))
}
