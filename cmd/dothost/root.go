package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/config"
	"github.com/benithors/dothost/internal/logger"
)

type cli struct {
	Version string

	// Global flags.
	ConfigPath  string
	VersionFlag bool
	Format      string
	JSON        bool
	NDJSON      bool
	Plain       bool
	Timeout     time.Duration
	Quiet       bool
	Verbose     bool

	// Derived runtime state.
	cfg       config.Config
	outFormat outputFormat
	log       logger.Logger
}

func newRootCmd(ver string) *cobra.Command {
	c := &cli{Version: ver}

	root := &cobra.Command{
		Use:           "dothost",
		Short:         "Check domain availability, pricing and suggestions against the registrar",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return &cliError{Code: 2, ShowUsage: true, Cmd: cmd}
		},
	}
	root.SetFlagErrorFunc(usageErr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.ConfigPath, "config", "", "Config file (default ./dothost.yaml if present)")
	pf.BoolVar(&c.VersionFlag, "version", false, "Print version and exit")
	pf.StringVar(&c.Format, "format", "auto", "Output format: auto|table|ndjson|json|plain")
	pf.BoolVar(&c.JSON, "json", false, "Alias for --format json")
	pf.BoolVar(&c.NDJSON, "ndjson", false, "Alias for --format ndjson (one JSON object per line)")
	pf.BoolVar(&c.Plain, "plain", false, "Alias for --format plain (stable tab-separated)")
	pf.DurationVar(&c.Timeout, "timeout", 0, "Per-request registrar timeout (overrides registrar.timeout)")
	pf.BoolVarP(&c.Quiet, "quiet", "q", false, "Only log errors to stderr")
	pf.BoolVarP(&c.Verbose, "verbose", "v", false, "Debug logging to stderr, including registrar payloads")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.VersionFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "dothost %s (%s/%s)\n", c.Version, runtime.GOOS, runtime.GOARCH)
			return errExit0
		}

		format, err := c.formatFlag()
		if err != nil {
			return usageErr(cmd, err)
		}
		c.outFormat = resolveFormat(format, cmd.OutOrStdout())

		cfg, err := config.Load(c.ConfigPath)
		if err != nil {
			return &cliError{Code: 2, Err: err, Cmd: cmd}
		}
		if cmd.Flags().Changed("timeout") {
			if c.Timeout <= 0 {
				return usageErr(cmd, fmt.Errorf("--timeout must be positive"))
			}
			cfg.Registrar.Timeout = c.Timeout
		}
		c.cfg = cfg

		log, err := logger.New(c.loggerConfig(cmd.Name() == "serve"))
		if err != nil {
			return &cliError{Code: 1, Err: err, Cmd: cmd}
		}
		c.log = logger.BestEffort(log)
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if c.log != nil {
			_ = c.log.Sync()
		}
	}

	root.AddCommand(newCheckCmd(c))
	root.AddCommand(newSuggestCmd(c))
	root.AddCommand(newTLDsCmd(c))
	root.AddCommand(newPriceCmd(c))
	root.AddCommand(newServeCmd(c))

	return root
}

func (c *cli) formatFlag() (string, error) {
	format := strings.ToLower(strings.TrimSpace(c.Format))
	if format == "" {
		format = "auto"
	}

	aliases := 0
	for _, set := range []bool{c.JSON, c.NDJSON, c.Plain} {
		if set {
			aliases++
		}
	}
	if aliases > 1 {
		return "", fmt.Errorf("flags are mutually exclusive: --json, --ndjson, --plain")
	}
	if format != "auto" && aliases == 1 {
		return "", fmt.Errorf("do not combine --format with --json/--ndjson/--plain")
	}

	switch {
	case c.JSON:
		return "json", nil
	case c.NDJSON:
		return "ndjson", nil
	case c.Plain:
		return "plain", nil
	}
	return format, nil
}

// loggerConfig keeps one-shot commands quiet on stderr unless asked; the
// server logs at the configured level.
func (c *cli) loggerConfig(serving bool) logger.Config {
	lc := logger.Config{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}}
	if serving {
		lc.Level = c.cfg.Logging.Level
		lc.Format = c.cfg.Logging.Format
	}
	switch {
	case c.Verbose && !c.Quiet:
		lc.Level = "debug"
	case c.Quiet:
		lc.Level = "error"
	}
	return lc
}
