// Command hoover analyses YouTube videos from the terminal and exports
// Markdown, JSON, HTML and CSV reports.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
	"github.com/anatolykoptev/go_hoover/internal/engine/report"
	"github.com/anatolykoptev/go_hoover/internal/engine/sources"
	"github.com/anatolykoptev/go_hoover/internal/toolutil"
)

var version = "dev"

// keyCheckVideoID is a long-lived public video used to verify API keys.
const keyCheckVideoID = "jNQXAC9IVRw"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseOptions(args)
	if errors.Is(err, errHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if opts.Version {
		fmt.Println("hoover", version)
		return 0
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		return 2
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if opts.Verbose {
		level = "debug"
	}
	engine.InitLogging(level, opts.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath, err := userConfigPath()
	if err != nil {
		slog.Warn("user config unavailable", slog.Any("error", err))
	}

	if opts.Setup {
		if err := setup(ctx, cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render("setup failed: ")+err.Error())
			return 1
		}
		return 0
	}

	uc, err := loadUserConfig(cfgPath)
	if err != nil {
		slog.Warn("ignoring user config", slog.Any("error", err))
	}
	key, fallbackKey := resolveAPIKey(opts.APIKey, uc)
	initEngine(opts, key, fallbackKey)

	o, err := newOrchestrator(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		return 1
	}

	if opts.Batch != "" {
		return runBatch(ctx, o, opts)
	}
	return runSingle(ctx, o, opts)
}

func initEngine(opts *options, key, fallbackKey string) {
	c := engineConfig(opts, key, fallbackKey)
	engine.Init(c)
	engine.InitCache(opts.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// engineConfig layers flags over the environment the server reads. Flags
// that mirror an env key carry it as their go-flags env tag.
func engineConfig(opts *options, key, fallbackKey string) engine.Config {
	c := engine.ConfigFromEnv()
	c.YouTubeAPIKey = key
	c.YouTubeAPIKeyFallback = fallbackKey
	c.CatalogFile = opts.Catalog
	c.ItemTimeout = opts.Timeout
	c.BatchConcurrency = opts.Concurrency
	c.MinConfidence = opts.MinConfidence
	if opts.NoFallback {
		c.FallbackEnabled = false
	}
	return c
}

func newOrchestrator(opts *options) (*analysis.Orchestrator, error) {
	var (
		cat *extract.Catalog
		err error
	)
	if opts.Catalog != "" {
		cat, err = extract.LoadCatalogFile(opts.Catalog)
	} else {
		cat, err = extract.LoadCatalog()
	}
	if err != nil {
		return nil, err
	}

	player := sources.NewPlayerClient()
	var meta analysis.MetadataSource = player
	if engine.Cfg.YouTubeAPIKey != "" {
		meta = sources.NewYouTubeClient()
	} else {
		slog.Warn("no YouTube API key; run `hoover --setup` for full metadata. Using the public player endpoint.")
	}

	aopts := analysis.OptionsFromConfig(engine.Cfg)
	aopts.Quota = analysis.NewQuotaFromConfig(engine.Cfg)
	aopts.Cache = engine.MetadataCache{}
	ex := extract.NewExtractor(cat, analysis.ScoringFromConfig(engine.Cfg))
	return analysis.New(meta, player, ex, aopts), nil
}

func runSingle(ctx context.Context, o *analysis.Orchestrator, opts *options) int {
	res, err := o.Analyze(ctx, opts.Args.Video)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (%s)\n", errStyle.Render("analysis failed:"), err, engine.KindOf(err))
		return 1
	}
	format, _ := report.ParseFormat(opts.Format)

	if opts.Output != "" {
		if err := writeReportFile(opts.Output, res, format); err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
			return 1
		}
		fmt.Fprintln(os.Stderr, summaryBox(res))
		fmt.Fprintln(os.Stderr, okStyle.Render("saved ")+opts.Output)
		return 0
	}

	if format == report.FormatMarkdown && isTerminal(os.Stdout) {
		fmt.Print(renderMarkdown(report.Markdown(res), terminalWidth()))
		return 0
	}
	if err := report.Render(os.Stdout, res, format); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		return 1
	}
	return 0
}

func runBatch(ctx context.Context, o *analysis.Orchestrator, opts *options) int {
	inputs, err := readInputsFile(opts.Batch)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		return 1
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+"no videos in "+opts.Batch)
		return 1
	}
	fmt.Fprintf(os.Stderr, "analysing %d videos (concurrency %d)\n", len(inputs), opts.Concurrency)

	ctx, cancel := toolutil.WithOptionalTimeout(ctx, opts.BatchTimeout)
	defer cancel()
	b := o.AnalyzeBatch(ctx, inputs)
	for i, it := range b.Items {
		printBatchLine(os.Stderr, i, len(b.Items), it)
	}

	format, _ := report.ParseFormat(opts.Format)
	if err := exportBatch(b, format, opts); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		return 1
	}
	fmt.Fprintf(os.Stderr, "done: %s succeeded, %s failed\n",
		okStyle.Render(fmt.Sprint(b.Succeeded)), errStyle.Render(fmt.Sprint(b.Failed)))
	if b.Succeeded == 0 {
		return 1
	}
	return 0
}

// exportBatch writes per-video reports into OutputDir, a combined report to
// Output (or stdout when neither is set) and the CSV summary.
func exportBatch(b analysis.BatchResult, format report.Format, opts *options) error {
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		for _, it := range b.Items {
			if it.Result == nil {
				continue
			}
			path := filepath.Join(opts.OutputDir, report.FileName(it.Result, format))
			if err := writeReportFile(path, it.Result, format); err != nil {
				return err
			}
		}
	}

	switch {
	case opts.Output != "":
		if err := writeFile(opts.Output, func(w io.Writer) error { return report.RenderBatch(w, b, format) }); err != nil {
			return err
		}
	case opts.OutputDir == "":
		if err := report.RenderBatch(os.Stdout, b, format); err != nil {
			return err
		}
	}

	if opts.CSV != "" {
		return writeFile(opts.CSV, func(w io.Writer) error { return report.WriteCSVSummary(w, b) })
	}
	return nil
}

func writeReportFile(path string, r *analysis.AnalysisResult, f report.Format) error {
	return writeFile(path, func(w io.Writer) error { return report.Render(w, r, f) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func readInputsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()
	return toolutil.ReadInputs(f)
}

// setup prompts for an API key, checks it against the Data API and saves it.
func setup(ctx context.Context, cfgPath string) error {
	if cfgPath == "" {
		return errors.New("no user config directory")
	}
	fmt.Fprintln(os.Stderr, titleStyle.Render("YouTube Data API setup"))
	fmt.Fprintln(os.Stderr, "Create a key at https://console.cloud.google.com/apis/credentials with the YouTube Data API v3 enabled.")
	fmt.Fprint(os.Stderr, "API key: ")

	key, err := readSecret(os.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("empty key")
	}

	engine.Init(engine.DefaultConfig())
	if err := verifyAPIKey(ctx, sources.NewYouTubeClientWith("", engine.Cfg.HTTPClient, key)); err != nil {
		return fmt.Errorf("key rejected: %w", err)
	}

	uc, _ := loadUserConfig(cfgPath)
	uc.APIKey = key
	if err := saveUserConfig(cfgPath, uc); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, okStyle.Render("saved ")+cfgPath)
	return nil
}

// verifyAPIKey makes one metadata call. Not-found still proves the key works.
func verifyAPIKey(ctx context.Context, src analysis.MetadataSource) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := src.FetchMetadata(ctx, keyCheckVideoID)
	if err == nil || errors.Is(err, engine.ErrNotFound) {
		return nil
	}
	return err
}

func readSecret(f *os.File) (string, error) {
	if isTerminal(f) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
