package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmf-ai/server/internal/llm"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "kcse_exams_edb", cfg.Store.Database)
	assert.Equal(t, 20, cfg.Store.SearchPerSubject)
	assert.Equal(t, llm.ProviderGemini, cfg.Model.Provider)
	assert.InDelta(t, 0.2, cfg.Model.Temperature, 1e-6)
	assert.Equal(t, 5, cfg.Chat.MaxRounds)
	assert.Equal(t, 100*time.Millisecond, cfg.Chat.ChunkDelay)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 20, cfg.Tools.SubjectLimit)
	assert.Equal(t, 15, cfg.Tools.TopicLimit)
	assert.Equal(t, 300, cfg.Tools.SearchTextLen)
	assert.Equal(t, Development, cfg.Environment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORE_FIXTURE", "testdata/questions.json")
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL", "gpt-4o-mini")
	t.Setenv("CHAT_MAX_ROUNDS", "3")
	t.Setenv("CHAT_CHUNK_DELAY", "0s")
	t.Setenv("TOOLS_PAPER_TEXT_LEN", "120")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Environment().IsProduction())
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "testdata/questions.json", cfg.Store.Fixture)
	assert.Equal(t, llm.ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 3, cfg.Chat.MaxRounds)
	assert.Zero(t, cfg.Chat.ChunkDelay)
	assert.Equal(t, 120, cfg.Tools.PaperTextLen)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "unknown provider", env: map[string]string{"MODEL_PROVIDER": "llama"}},
		{name: "openai without key", env: map[string]string{"MODEL_PROVIDER": "openai"}},
		{name: "zero rounds", env: map[string]string{"CHAT_MAX_ROUNDS": "0"}},
		{name: "bad duration", env: map[string]string{"CHAT_CHUNK_DELAY": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_GatewayProviders(t *testing.T) {
	for _, provider := range []string{llm.ProviderGemini, llm.ProviderOpenAI} {
		t.Run(provider, func(t *testing.T) {
			t.Setenv("MODEL_PROVIDER", provider)
			t.Setenv("OPENAI_API_KEY", "sk-test")

			cfg, err := FromEnv()
			require.NoError(t, err)
			assert.Equal(t, provider, cfg.Model.Provider)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("production"))
	assert.Equal(t, Testing, ParseEnvironment("testing"))
	assert.Equal(t, Development, ParseEnvironment("staging"))
}
