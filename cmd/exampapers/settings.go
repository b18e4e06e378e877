package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/exampapers/internal/config"
	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/parsing"
	"github.com/jonathan/exampapers/internal/prompt"
	"github.com/jonathan/exampapers/internal/types"
)

var (
	flagConfigPath string
	flagBaseURL    string
	flagInsecure   bool
	flagUseBrowser bool
	flagVerbose    bool
)

func init() {
	// Config file flag (processed first)
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Site root hosting the listing (default https://www.actuariesindia.org, or EXAMPAPERS_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	rootCmd.PersistentFlags().BoolVar(&flagUseBrowser, "use-browser", false, "Re-render listing pages without rows in a headless browser (requires Chrome)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
}

// rangeFlags are the selection flags shared by download and sessions.
type rangeFlags struct {
	start    string
	end      string
	subject  string
	maxPages int
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First session to include, e.g. 'Jun 2019' (prompted when omitted)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last session to include, e.g. 'May 2025' (prompted when omitted)")
	cmd.Flags().StringVarP(&f.subject, "subject", "s", "", "Subject code, name or filter value, e.g. CS1 (prompted when omitted)")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "Maximum listing pages to scan when the site has no year filter")
}

func (f *rangeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("start") {
		cfg.Start = f.start
	}
	if cmd.Flags().Changed("end") {
		cfg.End = f.end
	}
	if cmd.Flags().Changed("subject") {
		cfg.Subject = f.subject
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
}

// resolveConfig layers flags over the config file over the environment over
// built-in defaults. extra applies command-specific flags.
func resolveConfig(cmd *cobra.Command, extra func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loadedCfg, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if flagVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", flagConfigPath)
		}
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if cmd.Flags().Changed("insecure") {
		cfg.InsecureSkipVerify = flagInsecure
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = flagUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if extra != nil {
		extra(&cfg)
	}

	env := config.FromEnv()
	cfg = cfg.MergeWithDefaults(env.MergeWithDefaults(config.Defaults()))

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *fetch.Client {
	if cfg.InsecureSkipVerify {
		fmt.Fprintln(os.Stderr, "Warning: TLS certificate verification is disabled")
	}
	return fetch.NewClient(cfg.FetchOptions())
}

// resolveRange uses the configured range or asks for one.
func resolveRange(cfg *config.Config, p *prompt.Prompter) (r types.DateRange, startText, endText string, err error) {
	if cfg.Start != "" && cfg.End != "" {
		r, err = parsing.ParseDateRange(cfg.Start, cfg.End)
		return r, cfg.Start, cfg.End, err
	}
	return p.DateRange()
}

// selectSubject matches query against the listing's subjects, or asks when
// query is empty. A listing without a subject filter accepts any query as a
// label for the output file name.
func selectSubject(subjects []types.FilterOption, query string, p *prompt.Prompter) (types.FilterOption, error) {
	query = strings.TrimSpace(query)

	if len(subjects) == 0 {
		if query == "" {
			return types.FilterOption{}, nil
		}
		return types.FilterOption{Text: query}, nil
	}

	if query != "" {
		subject, ok := types.FindSubject(subjects, query)
		if !ok {
			return types.FilterOption{}, fmt.Errorf("unknown subject %q; run 'exampapers subjects' to list them", query)
		}
		return subject, nil
	}

	subject, err := p.Subject(subjects)
	if errors.Is(err, prompt.ErrNoInput) {
		return types.FilterOption{}, fmt.Errorf("no subject selected: pass --subject or answer the prompt")
	}
	return subject, err
}
