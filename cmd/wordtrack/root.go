package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
)

type rootOptions struct {
	configPath   string
	envFiles     []string
	verbose      bool
	policy       string
	cacheDir     string
	cacheClear   bool
	storePath    string
	outlineURL   string
	outlineToken string
	llmBaseURL   string
	llmModel     string

	cfg app.Config
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "wordtrack",
		Short:         "Word counts and windowed writing progress for goal tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if cfg.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	f.StringVar(&opts.policy, "policy", "", "Extraction policy: smart, enhanced, fast or aggressive")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "HTTP and LLM cache directory; empty disables caching")
	f.BoolVar(&opts.cacheClear, "cache-clear", false, "Clear the cache before running")
	f.StringVar(&opts.storePath, "store", "", "Snapshot database path")
	f.StringVar(&opts.outlineURL, "outline-url", "", "Outline children API base URL")
	f.StringVar(&opts.outlineToken, "outline-token", "", "Outline API bearer token")
	f.StringVar(&opts.llmBaseURL, "llm-base", "", "OpenAI-compatible API base URL")
	f.StringVar(&opts.llmModel, "llm-model", "", "Model used for goal validation")

	root.AddCommand(
		newCountCmd(stdout, opts),
		newProgressCmd(stdout, opts),
		newValidateGoalCmd(stdout, opts),
		newHistoryCmd(stdout, opts),
		newVersionCmd(stdout),
	)
	return root
}

// loadConfig layers defaults, the config file, env and explicitly set flags,
// in increasing precedence.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (app.Config, error) {
	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg := app.DefaultConfig()
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if flags.Changed("policy") {
		cfg.Policy = opts.policy
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if flags.Changed("cache-clear") {
		cfg.CacheClear = opts.cacheClear
	}
	if flags.Changed("store") {
		cfg.StorePath = opts.storePath
	}
	if flags.Changed("outline-url") {
		cfg.OutlineBaseURL = opts.outlineURL
	}
	if flags.Changed("outline-token") {
		cfg.OutlineToken = opts.outlineToken
	}
	if flags.Changed("llm-base") {
		cfg.LLMBaseURL = opts.llmBaseURL
	}
	if flags.Changed("llm-model") {
		cfg.LLMModel = opts.llmModel
	}
	return cfg, app.ValidateConfig(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
