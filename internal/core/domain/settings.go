package domain

import "time"

// Default API versions of the index service, newest first.
var DefaultAPIVersions = []string{"2024-07-01", "2023-11-01"}

// Default settings values.
const (
	DefaultSearchTimeout     = 30 * time.Second
	DefaultRequestsPerSecond = 10.0
	DefaultRequestBurst      = 20
	DefaultMaxInputChars     = 8000
	DefaultEmbeddingTimeout  = 60 * time.Second
)

// AIProvider identifies an embedding provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderAzureOpenAI is an Azure OpenAI embedding deployment.
	AIProviderAzureOpenAI AIProvider = "azure-openai"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderAzureOpenAI, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider requires an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAzureOpenAI || p == AIProviderOpenAI
}

// Settings holds the complete application configuration.
type Settings struct {
	Search    SearchSettings
	Embedding EmbeddingSettings
	Ledger    LedgerSettings
}

// SearchSettings configures the index service connection.
type SearchSettings struct {
	// Endpoint is the https base URL of the search service.
	Endpoint string

	// IndexName is the target index.
	IndexName string

	// APIKey authenticates with the api-key header.
	APIKey string

	// TenantID, ClientID and ClientSecret enable Entra ID bearer tokens
	// instead of the api-key header.
	TenantID     string
	ClientID     string
	ClientSecret string

	// APIVersions is the ranked protocol version list, newest first.
	APIVersions []string

	// VectorEnabled adds the vector field when the index is created.
	VectorEnabled bool

	// Timeout bounds every request.
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing requests.
	RequestsPerSecond float64
	Burst             int
}

// IsConfigured returns true if enough is set to reach the service.
func (s *SearchSettings) IsConfigured() bool {
	return s.Endpoint != "" && s.IndexName != "" && (s.APIKey != "" || s.UsesTokenAuth())
}

// UsesTokenAuth returns true if Entra ID client credentials are set.
func (s *SearchSettings) UsesTokenAuth() bool {
	return s.TenantID != "" && s.ClientID != "" && s.ClientSecret != ""
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider AIProvider

	// Endpoint is the provider base URL.
	Endpoint string

	// APIKey authenticates with the provider.
	APIKey string

	// Model is the model name (OpenAI, Ollama).
	Model string

	// Deployment is the Azure OpenAI deployment name.
	Deployment string

	// APIVersion is the Azure OpenAI API version.
	APIVersion string

	// Dimensions is the expected embedding length.
	Dimensions int

	// MaxInputChars truncates each input before submission.
	MaxInputChars int

	// Timeout bounds every request.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is usable.
func (e *EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider == AIProviderAzureOpenAI && (e.Endpoint == "" || e.Deployment == "") {
		return false
	}
	return true
}

// LedgerSettings configures the local key ledger.
type LedgerSettings struct {
	// DataDir holds ledger.db. Empty means ~/.docspace/data.
	DataDir string

	// Disabled skips the ledger entirely.
	Disabled bool
}
