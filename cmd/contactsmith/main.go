package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/contactsmith/contactsmith/internal/config"
	"github.com/contactsmith/contactsmith/internal/models"
	"github.com/contactsmith/contactsmith/pkg/crawler"
	"github.com/contactsmith/contactsmith/pkg/reporter"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "contactsmith",
	Short: "ContactSmith - contact discovery for a single domain",
	Long: `ContactSmith crawls a website within its own domain and extracts
validated, deduplicated contact emails and phone numbers as JSON.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [URL]",
	Short: "Crawl a site and extract contacts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().Int("max-pages", 0, "Maximum pages to fetch")
	crawlCmd.Flags().Duration("timeout", 0, "Per-request timeout")
	crawlCmd.Flags().Duration("delay", 0, "Minimum delay between requests per worker")
	crawlCmd.Flags().Int("workers", 0, "Number of concurrent fetchers")
	crawlCmd.Flags().Int64("max-page-bytes", 0, "Maximum response body size in bytes")
	crawlCmd.Flags().Int("max-retries", 0, "Extra attempts for transient fetch failures (0-3)")
	crawlCmd.Flags().String("region", "", "Default region for phone numbers without a country code (e.g. RU)")
	crawlCmd.Flags().StringP("output", "o", "", "Output file, or directory in batch mode")
	crawlCmd.Flags().String("batch", "", "File with one seed URL per line")
	crawlCmd.Flags().Bool("sources", false, "Include the page each contact was first found on")
	crawlCmd.Flags().Bool("no-robots", false, "Ignore robots.txt")
	crawlCmd.Flags().Bool("simple-validation", false, "Use loose syntactic checks instead of full validation")
	crawlCmd.Flags().BoolP("quiet", "q", false, "Suppress progress logging")

	rootCmd.AddCommand(crawlCmd)

	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
}

// crawlerOptions maps resolved configuration onto the engine's options.
func crawlerOptions(cfg *config.Config) crawler.Options {
	return crawler.Options{
		MaxPages:           cfg.Crawler.MaxPages,
		Timeout:            cfg.Crawler.Timeout,
		Delay:              cfg.Crawler.Delay,
		Workers:            cfg.Crawler.Workers,
		MaxPageBytes:       cfg.Crawler.MaxPageBytes,
		UserAgent:          cfg.Crawler.UserAgent,
		DefaultRegion:      cfg.Crawler.DefaultRegion,
		ValidateEmails:     cfg.Crawler.ValidateEmails,
		ValidatePhones:     cfg.Crawler.ValidatePhones,
		RejectPlaceholders: cfg.Crawler.RejectPlaceholderDomains,
		FollowRobots:       cfg.Crawler.FollowRobotsTxt,
		MaxRetries:         cfg.Crawler.MaxRetries,
	}
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		cfg.Crawler.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("timeout") {
		cfg.Crawler.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("delay") {
		cfg.Crawler.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("workers") {
		cfg.Crawler.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-page-bytes") {
		cfg.Crawler.MaxPageBytes, _ = flags.GetInt64("max-page-bytes")
	}
	if flags.Changed("max-retries") {
		cfg.Crawler.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("region") {
		cfg.Crawler.DefaultRegion, _ = flags.GetString("region")
	}
	if flags.Changed("no-robots") {
		noRobots, _ := flags.GetBool("no-robots")
		cfg.Crawler.FollowRobotsTxt = !noRobots
	}
	if flags.Changed("simple-validation") {
		simple, _ := flags.GetBool("simple-validation")
		cfg.Crawler.ValidateEmails = !simple
		cfg.Crawler.ValidatePhones = !simple
	}
	if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
}

// newLogger builds the stderr logger. Stdout stays reserved for JSON output.
func newLogger(cfg *config.Config, quiet bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func runCrawl(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	logger := newLogger(cfg, quiet)

	batchPath, _ := cmd.Flags().GetString("batch")
	output, _ := cmd.Flags().GetString("output")
	sources, _ := cmd.Flags().GetBool("sources")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if batchPath != "" {
		if len(args) > 0 {
			return fmt.Errorf("either a URL or --batch, not both")
		}
		return runBatch(ctx, cfg, logger, batchPath, output, sources)
	}

	if len(args) != 1 {
		return fmt.Errorf("a seed URL is required unless --batch is given")
	}
	return runSingle(ctx, cfg, logger, args[0], output, sources)
}

func runSingle(ctx context.Context, cfg *config.Config, logger zerolog.Logger, seedURL, output string, sources bool) error {
	c, err := crawler.New(seedURL, crawlerOptions(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	report := c.Run(ctx)
	if !sources {
		report.Contacts = nil
	}
	logger.Info().
		Int("pages_visited", report.PagesVisited).
		Int("pages_failed", report.PagesFailed).
		Int("emails", len(report.Emails)).
		Int("phones", len(report.Phones)).
		Str("status", string(report.Status)).
		Msg("crawl finished")

	r := reporter.New()
	if output != "" {
		if err := r.Save(report, output); err != nil {
			return err
		}
		logger.Info().Str("path", output).Msg("report saved")
		return nil
	}
	return r.WriteJSON(os.Stdout, report)
}

// runBatch crawls each seed independently and in order. A failed seed is
// recorded in the summary and never aborts the rest of the batch.
func runBatch(ctx context.Context, cfg *config.Config, logger zerolog.Logger, batchPath, output string, sources bool) error {
	seeds, err := readSeeds(batchPath)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return fmt.Errorf("batch file %s contains no URLs", batchPath)
	}

	opts := crawlerOptions(cfg)

	// reports stays parallel to entries: a failed seed leaves a nil slot so
	// per-seed file numbering tracks batch input order.
	var reports []*models.CrawlReport
	var entries []models.BatchEntry

	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		c, err := crawler.New(seed, opts, logger)
		if err != nil {
			logger.Error().Err(err).Str("url", seed).Msg("skipping seed")
			reports = append(reports, nil)
			entries = append(entries, models.BatchEntry{URL: seed})
			continue
		}
		report := c.Run(ctx)
		if !sources {
			report.Contacts = nil
		}
		reports = append(reports, report)
		entries = append(entries, models.BatchEntry{
			URL:        seed,
			Success:    true,
			EmailCount: len(report.Emails),
			PhoneCount: len(report.Phones),
		})
		logger.Info().
			Str("url", seed).
			Int("emails", len(report.Emails)).
			Int("phones", len(report.Phones)).
			Msg("seed finished")
	}

	r := reporter.New()
	if output != "" {
		if err := r.SaveBatch(reports, entries, output); err != nil {
			return err
		}
		logger.Info().Str("dir", output).Int("seeds", len(seeds)).Msg("batch reports saved")
		return nil
	}
	return r.WriteBatchJSON(os.Stdout, reports)
}

// readSeeds parses a batch file: one URL per line, blank lines and
// #-comments skipped.
func readSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return seeds, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
