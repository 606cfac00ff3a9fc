package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// passwordReader reads a secret without echo. Tests replace it.
var passwordReader = readPassword

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the settings in ~/.docspace/config.toml.

Environment variables take precedence over the file: DOCSPACE_SECTION_KEY
for any key (for example DOCSPACE_SEARCH_INDEX), plus the conventional
SEARCH_ENDPOINT, SEARCH_INDEX, SEARCH_API_KEY, AZURE_OPENAI_* and
EMBEDDING_DIM names.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Writes one setting to the configuration file. Secrets (api keys and the
client secret) are prompted for without echo when the value is omitted.

Examples:
  docspace config set search.endpoint https://acme.search.windows.net
  docspace config set search.api_key
  docspace config set embedding.dimensions 3072`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and reach the configured services",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := s.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	if s.ConfigPath != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", s.ConfigPath)
	}

	search := settings.Search
	fmt.Fprintln(out, "[search]")
	fmt.Fprintf(out, "  endpoint:      %s\n", orNone(search.Endpoint))
	fmt.Fprintf(out, "  index:         %s\n", orNone(search.IndexName))
	if search.UsesTokenAuth() {
		fmt.Fprintf(out, "  auth:          client credentials (tenant %s, client %s)\n", search.TenantID, search.ClientID)
		fmt.Fprintf(out, "  client_secret: %s\n", maskSecret(search.ClientSecret))
	} else {
		fmt.Fprintf(out, "  api_key:       %s\n", maskSecret(search.APIKey))
	}
	fmt.Fprintf(out, "  api_versions:  %s\n", strings.Join(search.APIVersions, ", "))
	fmt.Fprintf(out, "  vector:        %t\n", search.VectorEnabled)
	fmt.Fprintf(out, "  timeout:       %s\n", search.Timeout)
	fmt.Fprintf(out, "  rate:          %g/s, burst %d\n", search.RequestsPerSecond, search.Burst)
	fmt.Fprintf(out, "  status:        %s\n", configuredStatus(search.IsConfigured()))
	fmt.Fprintln(out)

	embed := settings.Embedding
	fmt.Fprintln(out, "[embedding]")
	fmt.Fprintf(out, "  provider:      %s\n", embed.Provider)
	fmt.Fprintf(out, "  endpoint:      %s\n", orNone(embed.Endpoint))
	if embed.Provider == domain.AIProviderAzureOpenAI {
		fmt.Fprintf(out, "  deployment:    %s\n", orNone(embed.Deployment))
		fmt.Fprintf(out, "  api_version:   %s\n", orNone(embed.APIVersion))
	} else {
		fmt.Fprintf(out, "  model:         %s\n", orNone(embed.Model))
	}
	if embed.Provider.RequiresAPIKey() {
		fmt.Fprintf(out, "  api_key:       %s\n", maskSecret(embed.APIKey))
	}
	fmt.Fprintf(out, "  dimensions:    %d\n", embed.Dimensions)
	fmt.Fprintf(out, "  status:        %s\n", configuredStatus(embed.IsConfigured()))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[ledger]")
	if settings.Ledger.Disabled {
		fmt.Fprintln(out, "  disabled")
	} else {
		fmt.Fprintf(out, "  data_dir:      %s\n", orNone(settings.Ledger.DataDir))
	}

	if s.Overridden != nil {
		var overridden []string
		for _, key := range s.Settings.Keys() {
			if s.Overridden(key) {
				overridden = append(overridden, key)
			}
		}
		if len(overridden) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Set from the environment: %s\n", strings.Join(overridden, ", "))
		}
	}
	return nil
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case s.Settings.IsSecret(key):
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", key)
		value = passwordReader(cmd.InOrStdin())
		fmt.Fprintln(cmd.ErrOrStderr())
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := s.Settings.Set(key, value); err != nil {
		return err
	}

	shown := value
	if s.Settings.IsSecret(key) {
		shown = maskSecret(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
	if s.Overridden != nil && s.Overridden(key) {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: the environment overrides %s.\n", key)
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	out := cmd.OutOrStdout()
	settings, err := s.Settings.Get()
	if err != nil {
		fmt.Fprintf(out, "settings:  FAIL %v\n", err)
		return err
	}
	fmt.Fprintln(out, "settings:  ok")

	var failed bool
	switch {
	case !settings.Embedding.IsConfigured():
		fmt.Fprintln(out, "embedding: not configured")
	case s.Validator == nil:
		fmt.Fprintln(out, "embedding: skipped")
	default:
		if err := s.Validator.ValidateEmbedding(&settings.Embedding); err != nil {
			fmt.Fprintf(out, "embedding: FAIL %v\n", err)
			failed = true
		} else {
			fmt.Fprintln(out, "embedding: ok")
		}
	}

	if s.Schema == nil {
		fmt.Fprintf(out, "index:     not configured\n")
		if s.IndexErr != nil {
			fmt.Fprintf(out, "           %v\n", s.IndexErr)
		}
	} else {
		ctx, cancel := context.WithTimeout(commandContext(cmd), 30*time.Second)
		defer cancel()
		if _, err := s.Schema.EnsureReady(ctx, false); err != nil {
			fmt.Fprintf(out, "index:     FAIL %v\n", err)
			failed = true
		} else {
			desc, _ := s.Schema.Descriptor(ctx)
			fmt.Fprintf(out, "index:     ok (%s, api %s)\n", desc.IndexName, desc.APIVersion)
		}
	}

	if failed {
		return errors.New("configuration check failed")
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
