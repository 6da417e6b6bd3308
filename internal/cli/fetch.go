package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzhdanov/finsent/internal/cache"
	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/pipeline"
)

var (
	fetchOutput  string
	fetchTimeout time.Duration
	userAgent    string
	maxBytes     int64
	noCache      bool
	httpProxy    string
	httpsProxy   string
	socksProxy   string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a corpus file",
	Long: `Fetch downloads a labeled corpus file over HTTP.

Downloads respect the host's robots.txt, are rate limited per host and
are cached on disk so repeated runs do not re-download.

Example:
  finsent fetch https://example.com/financial_phrasebank.txt
  finsent fetch https://example.com/corpus.txt --output data/corpus.txt --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "dataset.txt", "output file path")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "download timeout")
	fetchCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	fetchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "max response bytes to read (default from config)")
	fetchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh download)")
	fetchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	fetchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	fetchCmd.Flags().StringVar(&socksProxy, "socks-proxy", "", "SOCKS5 proxy address (host:port)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = model.Duration(fetchTimeout)
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if maxBytes > 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if socksProxy != "" {
		cfg.HTTP.SocksProxy = socksProxy
	}

	var store cache.Cache
	if cfg.Cache.Enabled && !noCache {
		store = cache.NewLayeredCache(cfg.Cache.TTL.Std(), cfg.Cache.Dir, cfg.Cache.TTL.Std())
	}

	fetcher, err := pipeline.NewFetcher(cfg.HTTP, store, cfg.Cache.TTL.Std())
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Fetching: %s\n", url)
	}

	result, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if err := os.WriteFile(fetchOutput, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fetchOutput, err)
	}

	source := "origin"
	if result.FromCache {
		source = "cache"
	}
	fmt.Printf("✓ Wrote %s (%d bytes, from %s)\n", fetchOutput, len(result.Data), source)
	return nil
}
