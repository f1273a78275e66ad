// Package main provides the specgap binary entry point.
// Specgap compares what feature specifications claim against what the source tree
// contains and reports confidence-scored implementation gaps.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/c360studio/specgap/config"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specgap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	project    string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Specification-to-code gap analysis",
		Long: `Specgap reads feature specifications (speckit specs/ or kiro .kiro/specs/
layouts), checks each requirement against the TypeScript/JavaScript source tree
and reports gaps with a status, a 0-100 confidence and an effort estimate.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML); replaces specgap.yaml discovery")
	cmd.PersistentFlags().StringVar(&flags.project, "project", "", "Project root (default: nearest specgap.yaml, git root or current directory)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(&flags))
	cmd.AddCommand(detectCmd(&flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		source    string
		specs     string
		format    string
		route     string
		threshold int
		workers   int
		noStubs   bool
		noPartial bool
		noTests   bool
		metrics   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze specifications against the source tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*flags)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("source") {
				cfg.Paths.Source = source
			}
			if f.Changed("specs") {
				cfg.Paths.Specs = specs
			}
			if f.Changed("format") {
				cfg.Analysis.Format = format
			}
			if f.Changed("route") {
				cfg.Analysis.Route = route
			}
			if f.Changed("threshold") {
				cfg.Analysis.ConfidenceThreshold = threshold
			}
			if f.Changed("workers") {
				cfg.Analysis.Workers = workers
			}
			if noStubs {
				cfg.Analysis.IncludeStubs = false
			}
			if noPartial {
				cfg.Analysis.IncludePartial = false
			}
			if noTests {
				cfg.Analysis.CheckTestCoverage = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			report, err := app.Analyze(ctx)
			if err != nil {
				return err
			}

			app.PrintReport(cmd.OutOrStdout(), report)
			if metrics {
				return app.WriteMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source root (default: project root)")
	cmd.Flags().StringVar(&specs, "specs", "", "Base directory of the spec layouts (default: project root)")
	cmd.Flags().StringVar(&format, "format", "", "Force a spec layout: speckit, kiro, both (default: detect)")
	cmd.Flags().StringVar(&route, "route", "", "Speckit route hint: full or spec")
	cmd.Flags().IntVar(&threshold, "threshold", 50, "Drop gaps with confidence below this value")
	cmd.Flags().IntVar(&workers, "workers", 1, "Requirements analyzed concurrently")
	cmd.Flags().BoolVar(&noStubs, "no-stubs", false, "Do not report stub gaps")
	cmd.Flags().BoolVar(&noPartial, "no-partial", false, "Do not report partial gaps")
	cmd.Flags().BoolVar(&noTests, "no-test-coverage", false, "Skip test file checks")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Write analyzer metrics to stderr after the report")

	return cmd
}

func detectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Report which specification layouts the project contains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*flags)
			if err != nil {
				return err
			}
			logger, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			app.PrintDetection(cmd.OutOrStdout())
			return nil
		},
	}
}

// loadConfig applies the layered config, an explicit --config file and the
// global flags, in that order.
func loadConfig(flags globalFlags) (*config.Config, error) {
	loader := config.NewLoader(slog.Default())
	if flags.project != "" {
		abs, err := filepath.Abs(flags.project)
		if err != nil {
			return nil, fmt.Errorf("resolve project path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat project path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		loader.SetDir(abs)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.configPath != "" {
		if err := cfg.Overlay(flags.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if flags.project != "" {
		abs, _ := filepath.Abs(flags.project)
		cfg.Paths.Project = abs
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
