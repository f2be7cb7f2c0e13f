// Package main implements the dsrf-parse CLI tool.
// It parses one or more DSRF flat files as a single report and reports every
// block and issue found.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/godsrf/dsrf"
	"github.com/godsrf/dsrf/pkg/logger"
	"github.com/godsrf/dsrf/queue"
	"github.com/godsrf/dsrf/report"
	"github.com/godsrf/dsrf/schema"
)

const (
	version = "0.1.0"
	usage   = `dsrf-parse - DDEX Sales Report Flat File parser

Usage:
  dsrf-parse [options] <file>...

Examples:
  dsrf-parse DSR_Rec_Sen_Srv_2015-02_AT_1of1_20150219T141005.tsv
  dsrf-parse -profile AudioVisualRelease report_1of3.tsv report_2of3.tsv report_3of3.tsv
  dsrf-parse -output json report.tsv.gz
  dsrf-parse -output queue report.tsv | downstream-consumer
  dsrf-parse -schema-dir ./schemas -version 3.0 report.tsv

Options:
`
)

// Terminal escape codes used for the colored text output.
const (
	colorGreen = "\033[92m"
	colorRed   = "\033[01;31m"
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputQueue OutputFormat = "queue"
)

// Config holds CLI configuration.
type Config struct {
	Version     string
	Profile     string
	SchemaDir   string
	Workers     int
	Output      OutputFormat
	LogLevel    string
	Quiet       bool
	NoColor     bool
	FailFast    bool
	MaxIssues   int
	ShowMetrics bool
	ShowVersion bool
	Help        bool
	Files       []string
}

// RunOutput is the JSON run document.
type RunOutput struct {
	RunID    string         `json:"run_id,omitempty"`
	Version  string         `json:"version"`
	Profile  string         `json:"profile"`
	Files    []string       `json:"files"`
	Valid    bool           `json:"valid"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Blocks   int            `json:"blocks"`
	Duration string         `json:"duration"`
	Issues   []dsrf.Issue   `json:"issues,omitempty"`
	Metrics  *dsrf.Snapshot `json:"metrics,omitempty"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("dsrf-parse v%s\n", version)
		os.Exit(0)
	}

	if config.Help {
		flag.Usage()
		os.Exit(0)
	}
	if len(config.Files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(config))
}

func parseFlags() *Config {
	config := &Config{}

	var output string
	flag.StringVar(&config.Version, "version", string(dsrf.DefaultVersion), "Report standard version (3.0)")
	flag.StringVar(&config.Profile, "profile", string(dsrf.ProfileUgc), "Report profile (e.g. Ugc, AudioVisualRelease)")
	flag.StringVar(&config.SchemaDir, "schema-dir", "", "Directory with schema documents, consulted before the embedded set")
	flag.IntVar(&config.Workers, "workers", 0, "Number of files to parse concurrently (0 = one per CPU)")
	flag.StringVar(&output, "output", "text", "Output format: text, json, queue")
	flag.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.Quiet, "quiet", false, "Suppress logging entirely")
	flag.BoolVar(&config.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&config.FailFast, "fail-fast", false, "Stop at the first dropped row")
	flag.IntVar(&config.MaxIssues, "max-issues", 0, "Cap on stored issues (0 = unlimited)")
	flag.BoolVar(&config.ShowMetrics, "metrics", false, "Report parse metrics when done")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")
	flag.BoolVar(&config.Help, "help", false, "Show help")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	case "queue":
		config.Output = OutputQueue
	default:
		config.Output = OutputText
	}

	config.Files = flag.Args()

	return config
}

func run(config *Config) int {
	ver := dsrf.Version(config.Version)
	if !ver.IsValid() {
		fmt.Fprintf(os.Stderr, "Error: unsupported version %q; supported: %v\n", config.Version, dsrf.SupportedVersions())
		return 2
	}
	profile, ok := dsrf.ParseProfile(config.Profile)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown profile %q; profiles for %s: %v\n", config.Profile, ver, ver.Profiles())
		return 2
	}

	resolver := schema.Default()
	if config.SchemaDir != "" {
		resolver = schema.NewChain(schema.NewDirResolver(config.SchemaDir), resolver)
	}
	s, err := resolver.Resolve(ver, profile)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no schema for version %s profile %s\n", ver, profile)
		} else {
			fmt.Fprintf(os.Stderr, "Error: loading schema: %v\n", err)
		}
		return 2
	}

	log := logger.Nop()
	if !config.Quiet {
		level, ok := logger.ParseLevel(config.LogLevel)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown log level %q\n", config.LogLevel)
			return 2
		}
		log = logger.New(os.Stderr, level)
	}

	opts := []dsrf.Option{
		dsrf.WithLogger(log),
		dsrf.WithChannelBuffer(16),
		dsrf.WithMaxIssues(config.MaxIssues),
	}
	if config.Workers > 0 {
		opts = append(opts, dsrf.WithWorkers(config.Workers))
	}
	if config.FailFast {
		opts = append(opts, dsrf.WithFailFast(true))
	}
	var metrics *dsrf.Metrics
	if config.ShowMetrics {
		metrics = dsrf.NewMetrics()
		opts = append(opts, dsrf.WithMetrics(metrics))
	}

	start := time.Now()
	m := report.NewManager(s, opts...)
	reportRun, err := m.ParseReport(context.Background(), config.Files)
	if err != nil {
		var ve *report.ValidationError
		if errors.As(err, &ve) {
			emitFailedRun(config, ve.Result, time.Since(start))
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	var blockCount int
	switch config.Output {
	case OutputQueue:
		blockCount, err = streamQueue(s, reportRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing queue stream: %v\n", err)
			return 2
		}
	case OutputText:
		for b := range reportRun.Blocks {
			blockCount++
			fmt.Printf("  %s\n", b)
		}
	default:
		for range reportRun.Blocks {
			blockCount++
		}
	}

	res := reportRun.Result()
	duration := time.Since(start)

	switch config.Output {
	case OutputJSON:
		emitJSON(config, reportRun.ID, res, blockCount, duration, metrics)
	case OutputText:
		printSummary(os.Stdout, config, reportRun.ID, res, blockCount, duration)
	default:
		// Queue mode keeps stdout for frames; issues go to stderr.
		printIssues(os.Stderr, config, res.Issues)
	}

	if config.ShowMetrics && config.Output != OutputJSON {
		printMetrics(os.Stderr, metrics)
	}

	if res.HasErrors() {
		return 1
	}
	return 0
}

// emitFailedRun reports a file set that never started parsing.
func emitFailedRun(config *Config, res *dsrf.Result, duration time.Duration) {
	if config.Output == OutputJSON {
		emitJSON(config, "", res, 0, duration, nil)
		return
	}
	out := os.Stdout
	if config.Output == OutputQueue {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s\n", colored(config, colorBold, "== Report rejected =="))
	printIssues(out, config, res.Issues)
}

func streamQueue(s *schema.Schema, run *report.Run) (int, error) {
	w := queue.NewWriter(os.Stdout)
	err := w.WriteHeader(queue.Header{
		RunID:     run.ID,
		Version:   string(s.Version),
		Profile:   string(s.Profile),
		FileCount: len(run.Files),
		Created:   time.Now().UTC(),
	})
	if err != nil {
		return 0, err
	}
	count := 0
	for b := range run.Blocks {
		if err := w.Write(b); err != nil {
			return count, err
		}
		count++
	}
	return count, w.Flush()
}

func emitJSON(config *Config, runID string, res *dsrf.Result, blocks int, duration time.Duration, metrics *dsrf.Metrics) {
	out := RunOutput{
		RunID:    runID,
		Version:  config.Version,
		Profile:  config.Profile,
		Files:    config.Files,
		Valid:    res.Valid,
		Errors:   res.ErrorCount(),
		Warnings: res.WarningCount(),
		Blocks:   blocks,
		Duration: duration.Round(time.Millisecond).String(),
		Issues:   res.Issues,
	}
	if metrics != nil {
		snapshot := metrics.Snapshot()
		out.Metrics = &snapshot
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printSummary(w io.Writer, config *Config, runID string, res *dsrf.Result, blocks int, duration time.Duration) {
	status := colored(config, colorGreen, "VALID")
	if res.HasErrors() {
		status = colored(config, colorRed, "INVALID")
	}

	fmt.Fprintf(w, "%s\n", colored(config, colorBold, "== Report run "+runID+" =="))
	fmt.Fprintf(w, "Files: %d, Blocks: %d, Duration: %s\n", len(config.Files), blocks, duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", res.ErrorCount(), res.WarningCount())
	fmt.Fprintf(w, "Status: %s\n", status)
	printIssues(w, config, res.Issues)
}

func printIssues(w io.Writer, config *Config, issues []dsrf.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w, "\nIssues:")
	for _, iss := range issues {
		severity := strings.ToUpper(string(iss.Severity))
		switch iss.Severity {
		case dsrf.SeverityError, dsrf.SeverityFatal:
			severity = colored(config, colorRed, severity)
		case dsrf.SeverityWarning:
			severity = colored(config, colorBold, severity)
		}
		location := ""
		if iss.FileName != "" {
			location = " (" + iss.FileName
			if iss.RowNumber > 0 {
				location = fmt.Sprintf("%s:%d", location, iss.RowNumber)
			}
			location += ")"
		}
		fmt.Fprintf(w, "  %s [%s] %s%s\n", severity, iss.Code, iss.Diagnostics, location)
	}
}

func printMetrics(w io.Writer, metrics *dsrf.Metrics) {
	fmt.Fprintln(w, "\nParse metrics:")
	fmt.Fprintf(w, "  files:   %d\n", metrics.FilesTotal())
	fmt.Fprintf(w, "  rows:    %d parsed, %d skipped, %d comments\n",
		metrics.RowsParsed(), metrics.RowsSkipped(), metrics.CommentsSeen())
	fmt.Fprintf(w, "  blocks:  %d (%d body)\n", metrics.BlocksTotal(), metrics.BodyBlocks())
	fmt.Fprintf(w, "  cells:   %d\n", metrics.CellsBuilt())
	fmt.Fprintf(w, "  issues:  %d errors, %d warnings\n", metrics.ErrorsTotal(), metrics.WarningsTotal())
	fmt.Fprintf(w, "  timing:  avg %s, min %s, max %s\n",
		metrics.AverageParseTime().Round(time.Millisecond),
		metrics.MinParseTime().Round(time.Millisecond),
		metrics.MaxParseTime().Round(time.Millisecond))
}

func colored(config *Config, color, s string) string {
	if config.NoColor {
		return s
	}
	return color + s + colorReset
}
