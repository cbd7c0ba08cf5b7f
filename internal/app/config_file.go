package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/alphax/wordtrack/internal/orchestrate"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Extraction struct {
		Policy          string    `yaml:"policy" json:"policy"`
		GoodEnoughWords int       `yaml:"goodEnoughWords" json:"goodEnoughWords"`
		Budget          *Duration `yaml:"budget" json:"budget"`
		UserAgent       string    `yaml:"userAgent" json:"userAgent"`
		RequestTimeout  *Duration `yaml:"requestTimeout" json:"requestTimeout"`
		RetryAttempts   int       `yaml:"retryAttempts" json:"retryAttempts"`
		RetryBaseDelay  *Duration `yaml:"retryBaseDelay" json:"retryBaseDelay"`
	} `yaml:"extraction" json:"extraction"`

	Outline struct {
		BaseURL           string    `yaml:"base" json:"base"`
		Token             string    `yaml:"token" json:"token"`
		RequestDelay      *Duration `yaml:"requestDelay" json:"requestDelay"`
		MaxDepth          int       `yaml:"maxDepth" json:"maxDepth"`
		Exhaustive        bool      `yaml:"exhaustive" json:"exhaustive"`
		RateLimitAttempts int       `yaml:"rateLimitAttempts" json:"rateLimitAttempts"`
		Budget            *Duration `yaml:"budget" json:"budget"`
	} `yaml:"outline" json:"outline"`

	LLM struct {
		BaseURL          string `yaml:"base" json:"base"`
		Model            string `yaml:"model" json:"model"`
		APIKey           string `yaml:"key" json:"key"`
		GoalSystemPrompt string `yaml:"goalSystemPrompt" json:"goalSystemPrompt"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Dir         string    `yaml:"dir" json:"dir"`
		MaxAge      *Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool      `yaml:"clear" json:"clear"`
		StrictPerms bool      `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Store   string `yaml:"store" json:"store"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// Duration decodes "250ms"-style strings from YAML and JSON. A bare integer
// is nanoseconds, as with time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration: %s is neither a string nor an integer", b)
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg. It is applied
// on top of DefaultConfig and below env and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	// Durations are pointers so an explicit 0 (e.g. requestDelay: 0 to
	// disable pacing) is distinguishable from an absent key.
	dur := func(dst *time.Duration, v *Duration) {
		if v != nil && *v >= 0 {
			*dst = time.Duration(*v)
		}
	}
	flag := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	str(&cfg.Policy, fc.Extraction.Policy)
	num(&cfg.GoodEnoughWords, fc.Extraction.GoodEnoughWords)
	dur(&cfg.Budget, fc.Extraction.Budget)
	str(&cfg.UserAgent, fc.Extraction.UserAgent)
	dur(&cfg.PerRequestTimeout, fc.Extraction.RequestTimeout)
	num(&cfg.RetryAttempts, fc.Extraction.RetryAttempts)
	dur(&cfg.RetryBaseDelay, fc.Extraction.RetryBaseDelay)

	str(&cfg.OutlineBaseURL, fc.Outline.BaseURL)
	str(&cfg.OutlineToken, fc.Outline.Token)
	dur(&cfg.RequestDelay, fc.Outline.RequestDelay)
	num(&cfg.MaxDepth, fc.Outline.MaxDepth)
	flag(&cfg.Exhaustive, fc.Outline.Exhaustive)
	num(&cfg.RateLimitAttempts, fc.Outline.RateLimitAttempts)
	dur(&cfg.WalkBudget, fc.Outline.Budget)

	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)
	str(&cfg.GoalSystemPrompt, fc.LLM.GoalSystemPrompt)

	str(&cfg.CacheDir, fc.Cache.Dir)
	dur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	flag(&cfg.CacheClear, fc.Cache.Clear)
	flag(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)

	str(&cfg.StorePath, fc.Store)
	flag(&cfg.Verbose, fc.Verbose)
}

// ValidateConfig rejects settings no command can run with.
func ValidateConfig(cfg Config) error {
	if _, err := orchestrate.ParsePolicy(cfg.Policy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.GoodEnoughWords < 0 || cfg.RetryAttempts < 0 || cfg.MaxDepth < 0 || cfg.RateLimitAttempts < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.Budget < 0 || cfg.WalkBudget < 0 || cfg.PerRequestTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.RateLimitAttempts > 10 {
		return errors.New("config: outline.rateLimitAttempts may not exceed 10")
	}
	if cfg.OutlineToken != "" && strings.TrimSpace(cfg.OutlineBaseURL) == "" {
		return errors.New("config: outline.token is set but outline.base is empty")
	}
	return nil
}
