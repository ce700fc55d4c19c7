package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Optional Redis cache
	RedisAddr string

	// Application configuration
	Port              string
	BaseUrl           string
	DomainsDir        string
	WorkerCount       int
	SchedulerInterval int

	// LinkedIn Member Data Portability API
	LinkedInAPIBase      string
	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURL  string

	// LLM suggestion provider (optional)
	LLMAPIBase string
	LLMAPIKey  string
	LLMModel   string

	// Session tokens
	JWTSecret string

	// Staleness thresholds
	SyncThresholdHours  int
	DMAThresholdMinutes int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
