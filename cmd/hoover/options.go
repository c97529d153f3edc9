package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Batch         string        `long:"batch" short:"b" value-name:"FILE" description:"Analyse every video listed in FILE (one URL or ID per line, # comments)"`
	Output        string        `long:"output" short:"o" value-name:"FILE" description:"Write the report to FILE instead of stdout"`
	OutputDir     string        `long:"output-dir" value-name:"DIR" description:"Write one report per video into DIR (batch mode)"`
	Format        string        `long:"format" short:"f" default:"markdown" choice:"markdown" choice:"json" choice:"html" description:"Report format"`
	CSV           string        `long:"csv" value-name:"FILE" description:"Write a CSV summary of the batch to FILE"`
	APIKey        string        `long:"api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key (falls back to the user config file)"`
	Setup         bool          `long:"setup" description:"Prompt for a YouTube API key, verify it and save it"`
	Catalog       string        `long:"catalog" env:"CATALOG_FILE" value-name:"FILE" description:"Pattern catalog YAML replacing the built-in one"`
	Timeout       time.Duration `long:"timeout" env:"ITEM_TIMEOUT" default:"30s" description:"Per-video timeout"`
	BatchTimeout  time.Duration `long:"batch-timeout" env:"BATCH_TIMEOUT" description:"Give up on videos still pending after this long (0 = no limit)"`
	Concurrency   int           `long:"concurrency" short:"c" env:"BATCH_CONCURRENCY" default:"4" description:"Videos analysed at once in batch mode"`
	NoFallback    bool          `long:"no-fallback" description:"Never fetch page content for thin descriptions"`
	MinConfidence float64       `long:"min-confidence" env:"MIN_CONFIDENCE" default:"0.3" description:"Drop entities scored below this"`
	RedisURL      string        `long:"redis-url" env:"REDIS_URL" description:"Share the metadata cache through Redis"`
	LogFile       string        `long:"log-file" env:"LOG_FILE" value-name:"FILE" description:"Also write logs to FILE (rotated)"`
	Verbose       bool          `long:"verbose" short:"v" description:"Debug logging"`
	Version       bool          `long:"version" description:"Print version and exit"`

	Args struct {
		Video string `positional-arg-name:"VIDEO" description:"YouTube URL or video ID"`
	} `positional-args:"yes"`
}

// errHelp means help was printed and the program should exit cleanly.
var errHelp = errors.New("help requested")

func parseOptions(args []string) (*options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [VIDEO]"
	if _, err := parser.ParseArgs(args); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			return nil, errHelp
		}
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	return &opts, nil
}

func (o *options) validate() error {
	if o.Setup || o.Version {
		return nil
	}
	if o.Args.Video == "" && o.Batch == "" {
		return errors.New("give a VIDEO or --batch FILE (see --help)")
	}
	if o.Args.Video != "" && o.Batch != "" {
		return errors.New("VIDEO and --batch are mutually exclusive")
	}
	if o.Concurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive, got %d", o.Concurrency)
	}
	if o.BatchTimeout < 0 {
		return fmt.Errorf("--batch-timeout must not be negative, got %s", o.BatchTimeout)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return fmt.Errorf("--min-confidence must be within [0, 1], got %g", o.MinConfidence)
	}
	return nil
}
