package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/trustbrowser/internal/model"
)

const version = "trustbrowser v0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trustbrowser",
	Short: "TrustBrowser - knowledge graph search with transparent truth scores",
	Long: `TrustBrowser resolves address-bar input against decentralized knowledge
graph nodes and scores the answers it finds.

Addresses open as pages. Anything else is a knowledge query: it races the
current and legacy graph APIs, falls back through the legacy search chain
and, as a last resort, a generative model. Answers backed by a knowledge
asset get a composite truth score with badges and a per-signal breakdown.

A truth score measures provenance and integrity, not correctness.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.trustbrowser/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().Bool("proxy", false, "route backend calls through the local proxy paths")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("proxy.enabled", rootCmd.PersistentFlags().Lookup("proxy"))

	rootCmd.AddCommand(versionCmd)
}

// envBindings maps config keys to the environment variables that may set
// them. TRUSTBROWSER_* names come first, followed by the names the browser
// shell has always read.
var envBindings = map[string][]string{
	"graph.primary_host":                  {"TRUSTBROWSER_GRAPH_PRIMARY_HOST", "DKG_HOSTNAME", "DKG_NODE_URL"},
	"graph.port":                          {"TRUSTBROWSER_GRAPH_PORT", "DKG_PORT"},
	"graph.api_version":                   {"TRUSTBROWSER_GRAPH_API_VERSION", "DKG_API_VERSION"},
	"graph.fallback_hosts":                {"TRUSTBROWSER_GRAPH_FALLBACK_HOSTS"},
	"current.primary_host":                {"TRUSTBROWSER_CURRENT_PRIMARY_HOST"},
	"current.public_host":                 {"TRUSTBROWSER_CURRENT_PUBLIC_HOST"},
	"proxy.enabled":                       {"TRUSTBROWSER_PROXY_ENABLED", "DKG_USE_PROXY"},
	"llm.provider":                        {"TRUSTBROWSER_LLM_PROVIDER"},
	"llm.model":                           {"TRUSTBROWSER_LLM_MODEL"},
	"llm.base_url":                        {"TRUSTBROWSER_LLM_BASE_URL", "OLLAMA_BASE_URL"},
	"keys.gemini":                         {"GEMINI_API_KEY"},
	"keys.openai":                         {"OPENAI_API_KEY"},
	"keys.anthropic":                      {"ANTHROPIC_API_KEY"},
	"chain.rpc_url":                       {"TRUSTBROWSER_CHAIN_RPC_URL", "CHAIN_RPC_URL"},
	"chain.random_sampling_address":       {"TRUSTBROWSER_CHAIN_RANDOM_SAMPLING_ADDRESS", "RANDOMSAMPLING_ADDRESS"},
	"chain.content_asset_storage_address": {"TRUSTBROWSER_CHAIN_CONTENT_ASSET_STORAGE_ADDRESS", "CONTENT_ASSET_STORAGE_ADDRESS"},
	"pns.api_url":                         {"TRUSTBROWSER_PNS_API_URL", "PNS_API"},
	"session.dir":                         {"TRUSTBROWSER_SESSION_DIR"},
}

// initConfig locates the config file and binds environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".trustbrowser"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TRUSTBROWSER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, envs := range envBindings {
		_ = viper.BindEnv(append([]string{key}, envs...)...)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyOverrides(cfg, viper.GetViper())

	if cfg.Session.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error finding home directory: %w", err)
		}
		cfg.Session.Dir = filepath.Join(home, ".trustbrowser", "sessions")
	}
	return cfg, nil
}

func applyOverrides(cfg *model.Config, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}

	setString("graph.primary_host", &cfg.Graph.PrimaryHost)
	setString("graph.port", &cfg.Graph.Port)
	if ver := strings.TrimSpace(v.GetString("graph.api_version")); ver != "" {
		cfg.Graph.APIVersions = preferVersion(cfg.Graph.APIVersions, ver)
	}
	if hosts := splitList(v.GetString("graph.fallback_hosts")); len(hosts) > 0 {
		cfg.Graph.FallbackHosts = hosts
	}
	setString("current.primary_host", &cfg.Current.PrimaryHost)
	setString("current.public_host", &cfg.Current.PublicHost)
	if v.IsSet("proxy.enabled") {
		cfg.Proxy.Enabled = v.GetBool("proxy.enabled")
	}

	setString("llm.provider", &cfg.LLM.Provider)
	setString("llm.model", &cfg.LLM.Model)
	setString("llm.base_url", &cfg.LLM.BaseURL)
	selectLLMKey(cfg, v)

	setString("chain.rpc_url", &cfg.Chain.RPCURL)
	setString("chain.random_sampling_address", &cfg.Chain.RandomSamplingAddress)
	setString("chain.content_asset_storage_address", &cfg.Chain.ContentAssetStorageAddress)
	setString("pns.api_url", &cfg.PNS.APIURL)
	setString("session.dir", &cfg.Session.Dir)
}

// splitList splits a comma-separated value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// selectLLMKey picks the API key for the configured provider. With no
// provider configured, the first available key chooses one, Gemini first.
func selectLLMKey(cfg *model.Config, v *viper.Viper) {
	keys := map[string]string{
		"gemini":    v.GetString("keys.gemini"),
		"openai":    v.GetString("keys.openai"),
		"anthropic": v.GetString("keys.anthropic"),
	}

	provider := strings.ToLower(cfg.LLM.Provider)
	switch provider {
	case "google":
		provider = "gemini"
	case "claude":
		provider = "anthropic"
	case "":
		for _, p := range []string{"gemini", "openai", "anthropic"} {
			if keys[p] != "" {
				cfg.LLM.Provider = p
				provider = p
				break
			}
		}
	}

	if provider != "" && provider != "gemini" && cfg.LLM.Model == model.DefaultConfig().LLM.Model {
		cfg.LLM.Model = ""
	}
	if key := keys[provider]; key != "" {
		cfg.LLM.APIKey = key
	}
}

// preferVersion moves ver to the front of versions, adding a leading slash
func preferVersion(versions []string, ver string) []string {
	if !strings.HasPrefix(ver, "/") {
		ver = "/" + ver
	}
	out := []string{ver}
	for _, existing := range versions {
		if existing != ver {
			out = append(out, existing)
		}
	}
	return out
}
