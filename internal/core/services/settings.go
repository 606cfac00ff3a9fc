package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySearchEndpoint       = "search.endpoint"
	KeySearchIndex          = "search.index"
	KeySearchAPIKey         = "search.api_key"
	KeySearchTenantID       = "search.tenant_id"
	KeySearchClientID       = "search.client_id"
	KeySearchClientSecret   = "search.client_secret"
	KeySearchAPIVersions    = "search.api_versions"
	KeySearchVector         = "search.vector"
	KeySearchTimeout        = "search.timeout_seconds"
	KeySearchRequestsPerSec = "search.requests_per_second"
	KeySearchBurst          = "search.burst"
	KeyEmbedProvider        = "embedding.provider"
	KeyEmbedEndpoint        = "embedding.endpoint"
	KeyEmbedAPIKey          = "embedding.api_key"
	KeyEmbedModel           = "embedding.model"
	KeyEmbedDeployment      = "embedding.deployment"
	KeyEmbedAPIVersion      = "embedding.api_version"
	KeyEmbedDimensions      = "embedding.dimensions"
	KeyEmbedMaxInputChars   = "embedding.max_input_chars"
	KeyEmbedTimeout         = "embedding.timeout_seconds"
	KeyLedgerDataDir        = "ledger.data_dir"
	KeyLedgerDisabled       = "ledger.disabled"
)

// DefaultEmbeddingDimensions matches the common 1536-wide embedding models.
const DefaultEmbeddingDimensions = 1536

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindInt
	kindFloat
	kindBool
	kindList
)

type settingDef struct {
	key  string
	kind settingKind
}

var settingDefs = []settingDef{
	{KeySearchEndpoint, kindString},
	{KeySearchIndex, kindString},
	{KeySearchAPIKey, kindSecret},
	{KeySearchTenantID, kindString},
	{KeySearchClientID, kindString},
	{KeySearchClientSecret, kindSecret},
	{KeySearchAPIVersions, kindList},
	{KeySearchVector, kindBool},
	{KeySearchTimeout, kindInt},
	{KeySearchRequestsPerSec, kindFloat},
	{KeySearchBurst, kindInt},
	{KeyEmbedProvider, kindString},
	{KeyEmbedEndpoint, kindString},
	{KeyEmbedAPIKey, kindSecret},
	{KeyEmbedModel, kindString},
	{KeyEmbedDeployment, kindString},
	{KeyEmbedAPIVersion, kindString},
	{KeyEmbedDimensions, kindInt},
	{KeyEmbedMaxInputChars, kindInt},
	{KeyEmbedTimeout, kindInt},
	{KeyLedgerDataDir, kindString},
	{KeyLedgerDisabled, kindBool},
}

func lookupSetting(key string) (settingDef, bool) {
	for _, s := range settingDefs {
		if s.key == key {
			return s, true
		}
	}
	return settingDef{}, false
}

// SettingsService loads typed settings from a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get reads every setting, applies defaults, and validates the result.
// Malformed values fail with *domain.ConfigError.
func (s *SettingsService) Get() (*domain.Settings, error) {
	r := settingsReader{store: s.configStore}

	settings := &domain.Settings{
		Search: domain.SearchSettings{
			Endpoint:          strings.TrimRight(r.str(KeySearchEndpoint), "/"),
			IndexName:         r.str(KeySearchIndex),
			APIKey:            r.str(KeySearchAPIKey),
			TenantID:          r.str(KeySearchTenantID),
			ClientID:          r.str(KeySearchClientID),
			ClientSecret:      r.str(KeySearchClientSecret),
			APIVersions:       r.list(KeySearchAPIVersions, domain.DefaultAPIVersions),
			VectorEnabled:     r.boolean(KeySearchVector, true),
			Timeout:           r.seconds(KeySearchTimeout, domain.DefaultSearchTimeout),
			RequestsPerSecond: r.float(KeySearchRequestsPerSec, domain.DefaultRequestsPerSecond),
			Burst:             r.integer(KeySearchBurst, domain.DefaultRequestBurst),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:      domain.AIProvider(r.strDefault(KeyEmbedProvider, string(domain.AIProviderAzureOpenAI))),
			Endpoint:      strings.TrimRight(r.str(KeyEmbedEndpoint), "/"),
			APIKey:        r.str(KeyEmbedAPIKey),
			Model:         r.str(KeyEmbedModel),
			Deployment:    r.str(KeyEmbedDeployment),
			APIVersion:    r.str(KeyEmbedAPIVersion),
			Dimensions:    r.integer(KeyEmbedDimensions, DefaultEmbeddingDimensions),
			MaxInputChars: r.integer(KeyEmbedMaxInputChars, domain.DefaultMaxInputChars),
			Timeout:       r.seconds(KeyEmbedTimeout, domain.DefaultEmbeddingTimeout),
		},
		Ledger: domain.LedgerSettings{
			DataDir:  r.str(KeyLedgerDataDir),
			Disabled: r.boolean(KeyLedgerDisabled, false),
		},
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func validateSettings(s *domain.Settings) error {
	if s.Search.Endpoint != "" && !strings.HasPrefix(s.Search.Endpoint, "https://") {
		return &domain.ConfigError{Key: KeySearchEndpoint, Reason: "must be an https URL"}
	}
	if !s.Embedding.Provider.IsValid() {
		return &domain.ConfigError{
			Key:    KeyEmbedProvider,
			Reason: fmt.Sprintf("unknown provider %q", s.Embedding.Provider),
		}
	}
	if s.Embedding.Dimensions <= 0 {
		return &domain.ConfigError{Key: KeyEmbedDimensions, Reason: "must be a positive integer"}
	}
	if s.Search.RequestsPerSecond <= 0 {
		return &domain.ConfigError{Key: KeySearchRequestsPerSec, Reason: "must be positive"}
	}
	if s.Search.Burst <= 0 {
		return &domain.ConfigError{Key: KeySearchBurst, Reason: "must be a positive integer"}
	}
	return nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return &domain.ConfigError{Key: key, Reason: "unknown setting"}
	}

	var parsed any
	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &domain.ConfigError{Key: key, Reason: fmt.Sprintf("%q is not an integer", value)}
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return &domain.ConfigError{Key: key, Reason: fmt.Sprintf("%q is not a number", value)}
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return &domain.ConfigError{Key: key, Reason: fmt.Sprintf("%q is not a boolean", value)}
		}
		parsed = b
	case kindList:
		parsed = splitList(value)
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingDefs))
	for i, def := range settingDefs {
		keys[i] = def.key
	}
	return keys
}

// IsSecret reports whether a key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	def, ok := lookupSetting(key)
	return ok && def.kind == kindSecret
}

// settingsReader converts raw store values and keeps the first error.
// Values may arrive typed from TOML or as strings from the environment.
type settingsReader struct {
	store driven.ConfigStore
	err   error
}

func (r *settingsReader) fail(key, reason string) {
	if r.err == nil {
		r.err = &domain.ConfigError{Key: key, Reason: reason}
	}
}

func (r *settingsReader) str(key string) string {
	return strings.TrimSpace(r.store.GetString(key))
}

func (r *settingsReader) strDefault(key, def string) string {
	if v := r.str(key); v != "" {
		return v
	}
	return def
}

func (r *settingsReader) integer(key string, def int) int {
	raw, ok := r.store.Get(key)
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != float64(int(v)) {
			r.fail(key, fmt.Sprintf("%v is not an integer", v))
			return def
		}
		return int(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			r.fail(key, fmt.Sprintf("%q is not an integer", v))
			return def
		}
		return n
	default:
		r.fail(key, fmt.Sprintf("unexpected type %T", raw))
		return def
	}
}

func (r *settingsReader) float(key string, def float64) float64 {
	raw, ok := r.store.Get(key)
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			r.fail(key, fmt.Sprintf("%q is not a number", v))
			return def
		}
		return f
	default:
		r.fail(key, fmt.Sprintf("unexpected type %T", raw))
		return def
	}
}

func (r *settingsReader) boolean(key string, def bool) bool {
	raw, ok := r.store.Get(key)
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			r.fail(key, fmt.Sprintf("%q is not a boolean", v))
			return def
		}
		return b
	default:
		r.fail(key, fmt.Sprintf("unexpected type %T", raw))
		return def
	}
}

func (r *settingsReader) seconds(key string, def time.Duration) time.Duration {
	n := r.integer(key, -1)
	if n < 0 {
		return def
	}
	if n == 0 {
		r.fail(key, "must be a positive number of seconds")
		return def
	}
	return time.Duration(n) * time.Second
}

func (r *settingsReader) list(key string, def []string) []string {
	raw, ok := r.store.Get(key)
	if !ok {
		return append([]string(nil), def...)
	}
	var out []string
	switch v := raw.(type) {
	case string:
		out = splitList(v)
	case []string:
		out = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				r.fail(key, fmt.Sprintf("list item %v is not a string", item))
				return def
			}
			out = append(out, strings.TrimSpace(s))
		}
	default:
		r.fail(key, fmt.Sprintf("unexpected type %T", raw))
		return def
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
