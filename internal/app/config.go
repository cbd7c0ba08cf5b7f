package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Extraction
	Policy            string
	GoodEnoughWords   int
	Budget            time.Duration
	UserAgent         string
	PerRequestTimeout time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration
	RedirectMaxHops   int

	// Outline accounting
	OutlineBaseURL    string
	OutlineToken      string
	RequestDelay      time.Duration
	MaxDepth          int
	Exhaustive        bool
	RateLimitAttempts int
	WalkBudget        time.Duration

	// LLM
	LLMBaseURL       string
	LLMModel         string
	LLMAPIKey        string
	GoalSystemPrompt string

	// Cache. An empty CacheDir disables the HTTP and LLM caches.
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Snapshot store
	StorePath string

	Verbose bool
}

// DefaultConfig returns the values used when neither flags, env nor a config
// file set a field.
func DefaultConfig() Config {
	return Config{
		Policy:            "smart",
		GoodEnoughWords:   2000,
		Budget:            90 * time.Second,
		UserAgent:         "wordtrack/" + BuildVersion,
		PerRequestTimeout: 20 * time.Second,
		RetryAttempts:     3,
		RetryBaseDelay:    200 * time.Millisecond,
		RedirectMaxHops:   5,
		RequestDelay:      250 * time.Millisecond,
		MaxDepth:          30,
		RateLimitAttempts: 10,
		WalkBudget:        5 * time.Minute,
		StorePath:         ".wordtrack/snapshots.db",
	}
}
