package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with WORDTRACK_* environment
// variables that are set. It runs after the config file is applied and before
// explicit flags, so env beats file and flags beat env.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	setString(&cfg.Policy, "WORDTRACK_POLICY")
	setInt(&cfg.GoodEnoughWords, "WORDTRACK_GOOD_ENOUGH")
	setDuration(&cfg.Budget, "WORDTRACK_BUDGET")
	setString(&cfg.UserAgent, "WORDTRACK_USER_AGENT")
	setDuration(&cfg.PerRequestTimeout, "WORDTRACK_REQUEST_TIMEOUT")
	setInt(&cfg.RetryAttempts, "WORDTRACK_RETRY_ATTEMPTS")
	setDuration(&cfg.RetryBaseDelay, "WORDTRACK_RETRY_BASE_DELAY")

	setString(&cfg.OutlineBaseURL, "WORDTRACK_OUTLINE_URL")
	setString(&cfg.OutlineToken, "WORDTRACK_OUTLINE_TOKEN")
	setDuration(&cfg.RequestDelay, "WORDTRACK_REQUEST_DELAY")
	setInt(&cfg.MaxDepth, "WORDTRACK_MAX_DEPTH")
	setBool(&cfg.Exhaustive, "WORDTRACK_EXHAUSTIVE")
	setInt(&cfg.RateLimitAttempts, "WORDTRACK_RATE_LIMIT_ATTEMPTS")
	setDuration(&cfg.WalkBudget, "WORDTRACK_WALK_BUDGET")

	// Unprefixed LLM_* names are shared with other OpenAI-compatible tools.
	setString(&cfg.LLMBaseURL, "WORDTRACK_LLM_BASE_URL", "LLM_BASE_URL")
	setString(&cfg.LLMModel, "WORDTRACK_LLM_MODEL", "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "WORDTRACK_LLM_API_KEY", "LLM_API_KEY")

	setString(&cfg.CacheDir, "WORDTRACK_CACHE_DIR")
	setDuration(&cfg.CacheMaxAge, "WORDTRACK_CACHE_MAX_AGE")
	setBool(&cfg.CacheClear, "WORDTRACK_CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "WORDTRACK_CACHE_STRICT_PERMS")

	setString(&cfg.StorePath, "WORDTRACK_STORE")
	setBool(&cfg.Verbose, "WORDTRACK_VERBOSE")
}
