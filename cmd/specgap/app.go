package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/c360studio/specgap/config"
	"github.com/c360studio/specgap/gap"
	filesearch "github.com/c360studio/specgap/processor/file-search"
	gapanalyzer "github.com/c360studio/specgap/processor/gap-analyzer"
	"github.com/c360studio/specgap/spec"
	"github.com/c360studio/specgap/spec/parser"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Report is the combined outcome of reading specs and analyzing them.
type Report struct {
	Format   spec.Format
	Specs    int
	Skipped  []*spec.SpecParsingError
	Analysis *gapanalyzer.Result
}

// App wires configuration, the spec reader and the gap analyzer together.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	reader   *parser.Reader
	analyzer *gapanalyzer.Analyzer
	registry *prometheus.Registry
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	analyzer, err := gapanalyzer.New(cfg.AnalyzerConfig(),
		gapanalyzer.WithLogger(logger),
		gapanalyzer.WithSearcher(filesearch.New(cfg.SearchConfig(), logger)),
		gapanalyzer.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		reader:   parser.NewReader(logger),
		analyzer: analyzer,
		registry: registry,
	}, nil
}

// Analyze reads every specification and analyzes its requirements.
func (a *App) Analyze(ctx context.Context) (*Report, error) {
	read, err := a.reader.Read(ctx, a.cfg.ReaderOptions())
	if err != nil {
		return nil, fmt.Errorf("read specifications: %w", err)
	}

	result, err := a.analyzer.Analyze(ctx, read.Specifications)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	return &Report{
		Format:   read.Format,
		Specs:    len(read.Specifications),
		Skipped:  read.Skipped,
		Analysis: result,
	}, nil
}

var statusColors = map[gap.Status]*color.Color{
	gap.StatusMissing:  color.New(color.FgRed, color.Bold),
	gap.StatusStub:     color.New(color.FgYellow, color.Bold),
	gap.StatusPartial:  color.New(color.FgCyan),
	gap.StatusComplete: color.New(color.FgGreen),
}

// PrintReport writes one line per gap, highest priority and lowest confidence
// first, followed by a summary and any skipped-document warnings.
func (a *App) PrintReport(w io.Writer, r *Report) {
	gaps := sortGaps(r.Analysis.Gaps)
	for _, g := range gaps {
		label := fmt.Sprintf("%-8s", g.Status)
		if c, ok := statusColors[g.Status]; ok {
			label = c.Sprint(label)
		}
		priority := g.Priority
		if priority == "" {
			priority = "-"
		}
		fmt.Fprintf(w, "%s %-28s %3d%% %4dh  %-4s %s\n",
			label, g.ID, g.Confidence, g.EffortHours, priority, firstLine(g.Description))
	}

	bold := color.New(color.Bold)
	fmt.Fprintf(w, "\n%s %d gaps from %d requirements in %d specs (format: %s); %d suppressed, %d below threshold %d\n",
		bold.Sprint("Summary:"), len(gaps), r.Analysis.Analyzed, r.Specs, r.Format,
		r.Analysis.Suppressed, r.Analysis.Filtered, a.cfg.Analysis.ConfidenceThreshold)

	if n := len(r.Skipped) + len(r.Analysis.SkippedFiles); n > 0 {
		yellow := color.New(color.FgYellow)
		fmt.Fprintf(w, "%s %d documents and %d source files were skipped\n",
			yellow.Sprint("Warning:"), len(r.Skipped), len(r.Analysis.SkippedFiles))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  - %s\n", s.Error())
		}
		for _, path := range r.Analysis.SkippedFiles {
			fmt.Fprintf(w, "  - %s: could not be parsed\n", path)
		}
	}
}

// PrintDetection writes the layouts found under the spec root.
func (a *App) PrintDetection(w io.Writer) {
	root := a.cfg.Paths.Specs
	if root == "" {
		root = a.cfg.Paths.Project
	}
	d := parser.Detect(root)

	fmt.Fprintf(w, "format: %s\n", d.Format())
	formats := make([]string, 0, len(d.Paths))
	for f := range d.Paths {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)
	for _, f := range formats {
		fmt.Fprintf(w, "  %s: %s\n", f, d.Paths[spec.Format(f)])
	}
}

// WriteMetrics writes the analyzer metrics in the Prometheus text format.
func (a *App) WriteMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// sortGaps returns a copy of gaps ordered by priority rank, then confidence
// ascending, then ID. Priorities of equal rank such as P1 and high compare equal.
func sortGaps(gaps []gap.Gap) []gap.Gap {
	sorted := append([]gap.Gap(nil), gaps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ri, rj := priorityRank(sorted[i].Priority), priorityRank(sorted[j].Priority); ri != rj {
			return ri < rj
		}
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence < sorted[j].Confidence
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// priorityRank orders P0 < P1 < ... and critical < high < medium < low; unknown last.
func priorityRank(p string) int {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "critical":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	}
	if len(p) == 2 && p[0] == 'p' && p[1] >= '0' && p[1] <= '9' {
		return int(p[1] - '0')
	}
	return 100
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// setupLogger builds the process logger from the log config.
func setupLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
