package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/model"
)

// fetch and oracle flags shared by the commands that process acts
var (
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	insecureTLS bool
	noRobots    bool
	httpProxy   string
	httpsProxy  string
	llmProvider string
	llmModel    string
	databaseURL string
	storeDir    string
)

func addFetchFlags(cmd *cobra.Command) {
	def := model.DefaultConfig()
	cmd.Flags().DurationVar(&timeout, "fetch-timeout", def.HTTP.Timeout, "HTTP timeout per request")
	cmd.Flags().StringVar(&userAgent, "ua", def.HTTP.UserAgent, "HTTP User-Agent")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", def.HTTP.MaxBodyBytes, "max response bytes to read")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "oracle provider (openai, anthropic, ollama); empty disables AI tiers")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "oracle model name")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL for persisting acts")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "directory for persisting acts as JSON files")
}

// applyFlags overrides cfg with the flags the user actually set
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("fetch-timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if changed("ignore-robots") {
		cfg.HTTP.RespectRobots = !noRobots
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if changed("database-url") {
		cfg.Store.DatabaseURL = databaseURL
	}
	if changed("store-dir") {
		cfg.Store.OutputDir = storeDir
	}
}

// configFor loads the layered configuration and applies cmd's flags
func configFor(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}
