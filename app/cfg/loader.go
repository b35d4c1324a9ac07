package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// MaxPagesLimit caps the number of listing pages a single run may request.
const MaxPagesLimit = 100

type rawCfg struct {
	// Forum configuration
	BaseURL    string `long:"base-url" env:"NGA_BASE_URL" default:"https://ngabbs.com" description:"Forum base URL"`
	SectionID  int    `long:"section" short:"f" env:"NGA_SECTION_ID" default:"-447601" description:"Forum section (fid) to analyze"`
	MaxPages   int    `long:"pages" short:"p" env:"NGA_MAX_PAGES" default:"10" description:"Maximum number of listing pages to fetch"`
	MaxAgeDays int    `long:"days" short:"d" env:"NGA_MAX_AGE_DAYS" default:"7" description:"Only include threads posted within this many days"`

	// Session configuration
	CookiesFile string `long:"cookies-file" env:"NGA_COOKIES_FILE" default:"nga_cookies.json" description:"Path to the saved session cookies file"`
	Cookies     string `long:"cookies" env:"NGA_COOKIES" description:"Raw browser Cookie header; parsed, validated and saved to the cookies file"`

	// Ollama configuration
	OllamaURL     string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Ollama server base URL"`
	OllamaModel   string `long:"ollama-model" env:"OLLAMA_MODEL" default:"gemma3:latest" description:"Ollama model used for classification"`
	OllamaTimeout int    `long:"ollama-timeout" env:"OLLAMA_TIMEOUT" default:"60" description:"Ollama request timeout in seconds"`

	// Request configuration
	RequestTimeout int    `long:"timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Forum request timeout in seconds"`
	RequestDelay   int    `long:"delay" env:"REQUEST_DELAY" default:"1000" description:"Delay between forum requests in milliseconds"`
	RetryAttempts  int    `long:"retries" env:"RETRY_ATTEMPTS" default:"3" description:"Retry attempts for failed network operations"`
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" description:"User agent string for forum requests"`

	// Output configuration
	OutputDir      string `long:"output" short:"o" env:"OUTPUT_DIR" default:"./output" description:"Directory for generated reports"`
	OutputFormat   string `long:"format" env:"OUTPUT_FORMAT" default:"json" choice:"json" choice:"csv" choice:"txt" description:"Report output format"`
	CategoriesFile string `long:"categories-file" env:"CATEGORIES_FILE" description:"Optional YAML file overriding the category synonym table"`
	Charts         bool   `long:"charts" env:"CHARTS" description:"Also render the category distribution as a PNG bar chart"`

	// Application metadata
	TestOllama bool `long:"test-ollama" description:"Probe the Ollama service and exit"`
	Verbose    bool `long:"verbose" short:"v" env:"VERBOSE" description:"Enable verbose debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BaseURL:        raw.BaseURL,
		SectionID:      raw.SectionID,
		MaxPages:       raw.MaxPages,
		MaxAgeDays:     raw.MaxAgeDays,
		CookiesFile:    raw.CookiesFile,
		Cookies:        raw.Cookies,
		OllamaURL:      raw.OllamaURL,
		OllamaModel:    raw.OllamaModel,
		OllamaTimeout:  raw.OllamaTimeout,
		RequestTimeout: raw.RequestTimeout,
		RequestDelay:   raw.RequestDelay,
		RetryAttempts:  raw.RetryAttempts,
		UserAgent:      raw.UserAgent,
		OutputDir:      raw.OutputDir,
		OutputFormat:   raw.OutputFormat,
		CategoriesFile: raw.CategoriesFile,
		Charts:         raw.Charts,
		TestOllama:     raw.TestOllama,
		Verbose:        raw.Verbose,
		Version:        GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Validate checks the value ranges the pipeline depends on. The cap on
// MaxPages mirrors the forum's own listing depth limit.
func (c *Cfg) Validate() error {
	if c.SectionID == 0 {
		return &ConfigurationError{Field: "section", Reason: "section id is required"}
	}
	if c.MaxPages <= 0 {
		return &ConfigurationError{Field: "pages", Reason: "must be a positive integer"}
	}
	if c.MaxAgeDays <= 0 {
		return &ConfigurationError{Field: "days", Reason: "must be a positive integer"}
	}
	if c.RetryAttempts <= 0 {
		return &ConfigurationError{Field: "retries", Reason: "must be a positive integer"}
	}
	if c.MaxPages > MaxPagesLimit {
		fmt.Printf("Warning: pages capped at %d\n", MaxPagesLimit)
		c.MaxPages = MaxPagesLimit
	}
	return nil
}
