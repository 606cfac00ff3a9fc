package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "bad",
		Endpoint: server.URL,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
