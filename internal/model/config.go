package model

import "time"

// Config holds all estatuto configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Pipeline     PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Normalize    NormalizeConfig    `yaml:"normalize" mapstructure:"normalize"`
	Acts         ActsConfig         `yaml:"acts" mapstructure:"acts"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig configures the scraping client
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the fetch/oracle cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the per-act worker pool
type ConcurrencyConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	DiscoverWorkers int `yaml:"discover_workers" mapstructure:"discover_workers"`
}

// RateLimitingConfig bounds scraping and oracle request rates
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	OracleRPS         float64 `yaml:"oracle_rps" mapstructure:"oracle_rps"`
	OracleBurst       int     `yaml:"oracle_burst" mapstructure:"oracle_burst"`
}

// Credential is one entry of the ordered oracle credential pool
type Credential struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model    string `yaml:"model,omitempty" mapstructure:"model"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// LLMConfig configures the correction/completion oracle
type LLMConfig struct {
	Provider         string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model            string        `yaml:"model" mapstructure:"model"`
	BaseURL          string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Credentials      []Credential  `yaml:"credentials,omitempty" mapstructure:"credentials"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens        int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" mapstructure:"rate_limit_backoff"`
}

// PipelineConfig holds the structuring heuristics
type PipelineConfig struct {
	ApprovalThreshold     float64 `yaml:"approval_threshold" mapstructure:"approval_threshold"`
	MaxForwardGap         int     `yaml:"max_forward_gap" mapstructure:"max_forward_gap"`
	CompletenessThreshold float64 `yaml:"completeness_threshold" mapstructure:"completeness_threshold"`
	MaxGaps               int     `yaml:"max_gaps" mapstructure:"max_gaps"`
	MaxStructuralWarnings int     `yaml:"max_structural_warnings" mapstructure:"max_structural_warnings"`
	MaxFlaggedElements    int     `yaml:"max_flagged_elements" mapstructure:"max_flagged_elements"`
	RawPrefixChars        int     `yaml:"raw_prefix_chars" mapstructure:"raw_prefix_chars"`
	EmentaHTMLPrefixChars int     `yaml:"ementa_html_prefix_chars" mapstructure:"ementa_html_prefix_chars"`
	RefetchOnReject       bool    `yaml:"refetch_on_reject" mapstructure:"refetch_on_reject"`
}

// NormalizeConfig holds the speech abbreviation table
type NormalizeConfig struct {
	SpeechAbbreviations map[string]string `yaml:"speech_abbreviations" mapstructure:"speech_abbreviations"`
}

// ActsConfig holds per-type act number patterns applied to listing links
type ActsConfig struct {
	NumberPatterns map[ActType]string `yaml:"number_patterns" mapstructure:"number_patterns"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url"`
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ServerConfig configures the HTTP invocation surface
type ServerConfig struct {
	Listen       string        `yaml:"listen" mapstructure:"listen"`
	BodyLimit    int           `yaml:"body_limit" mapstructure:"body_limit"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Estatuto/0.1 (+https://github.com/ppiankov/estatuto)",
			MaxBodyBytes:  8_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".estatuto-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         4,
			DiscoverWorkers: 3,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
			OracleRPS:         1,
			OracleBurst:       2,
		},
		LLM: LLMConfig{
			Provider:         "",
			Timeout:          60 * time.Second,
			MaxTokens:        4000,
			RateLimitBackoff: 2 * time.Second,
		},
		Pipeline: PipelineConfig{
			ApprovalThreshold:     0.90,
			MaxForwardGap:         5,
			CompletenessThreshold: 0.95,
			MaxGaps:               2,
			MaxStructuralWarnings: 3,
			MaxFlaggedElements:    40,
			RawPrefixChars:        30_000,
			EmentaHTMLPrefixChars: 15_000,
			RefetchOnReject:       true,
		},
		Normalize: NormalizeConfig{
			SpeechAbbreviations: DefaultSpeechAbbreviations(),
		},
		Acts: ActsConfig{
			NumberPatterns: DefaultNumberPatterns(),
		},
		Store: StoreConfig{
			OutputDir: "./estatuto-acts",
		},
		Server: ServerConfig{
			Listen:       ":8080",
			BodyLimit:    16 * 1024 * 1024,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// DefaultSpeechAbbreviations is the abbreviation table for speech-oriented text
func DefaultSpeechAbbreviations() map[string]string {
	return map[string]string{
		"Art.":  "Artigo",
		"Arts.": "Artigos",
		"art.":  "artigo",
		"arts.": "artigos",
		"§§":    "parágrafos",
		"§":     "parágrafo",
		"nº":    "número",
		"n.º":   "número",
		"inc.":  "inciso",
		"al.":   "alínea",
		"CF":    "Constituição Federal",
		"CPC":   "Código de Processo Civil",
		"CPP":   "Código de Processo Penal",
		"CLT":   "Consolidação das Leis do Trabalho",
		"STF":   "Supremo Tribunal Federal",
		"STJ":   "Superior Tribunal de Justiça",
	}
}

// DefaultNumberPatterns are the planalto.gov.br link patterns per act type.
// Newer filenames keep the thousands dot, as in l10.973.htm.
func DefaultNumberPatterns() map[ActType]string {
	return map[ActType]string{
		ActOrdinaryLaw:             `(?i)/L(\d+(?:\.\d+)*)`,
		ActComplementaryLaw:        `(?i)/Lcp(\d+(?:\.\d+)*)`,
		ActConstitutionalAmendment: `(?i)/Emc(\d+(?:\.\d+)*)`,
		ActProvisionalMeasure:      `(?i)/Mpv(\d+(?:\.\d+)*)`,
		ActDecree:                  `(?i)/D(\d+(?:\.\d+)*)`,
		ActDecreeLaw:               `(?i)/Del(\d+(?:\.\d+)*)`,
		ActBill:                    `(?i)PL[-_ ]?(\d+)`,
		ActComplementaryBill:       `(?i)PLP[-_ ]?(\d+)`,
	}
}
