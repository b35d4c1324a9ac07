package cfg

type Cfg struct {
	// Forum configuration
	BaseURL    string
	SectionID  int
	MaxPages   int
	MaxAgeDays int

	// Session configuration
	CookiesFile string
	Cookies     string

	// Ollama configuration
	OllamaURL     string
	OllamaModel   string
	OllamaTimeout int

	// Request configuration
	RequestTimeout int
	RequestDelay   int
	RetryAttempts  int
	UserAgent      string

	// Output configuration
	OutputDir      string
	OutputFormat   string
	CategoriesFile string
	Charts         bool

	// Application metadata
	TestOllama bool
	Verbose    bool
	Version    string
}
