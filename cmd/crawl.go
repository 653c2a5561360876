package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/config"
	"github.com/JakeFAU/contact-harvester/internal/crawler"
	"github.com/JakeFAU/contact-harvester/internal/decode"
	"github.com/JakeFAU/contact-harvester/internal/extract"
	collyfetcher "github.com/JakeFAU/contact-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/contact-harvester/internal/id/uuid"
	"github.com/JakeFAU/contact-harvester/internal/policy/ratelimit"
	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// newCrawlCmd creates the 'crawl' subcommand, which resolves and scrapes every domain of
// the input CSV and writes the success and failure CSVs to the blob store.
func newCrawlCmd() *cobra.Command {
	var domainsFile string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the input domains and extract contact signals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()
			logger := appInstance.GetLogger()
			if domainsFile == "" {
				domainsFile = cfg.Input.DomainsFile
			}

			domains, err := readDomains(domainsFile)
			if err != nil {
				return err
			}
			engine := buildEngine(appInstance, cfg, logger)
			summary, err := engine.Run(cmd.Context(), domains)
			if err != nil {
				return fmt.Errorf("run crawl: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("print summary: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domainsFile, "domains", "", "input CSV with a 'domain' column (default input.domains_file)")
	return cmd
}

func readDomains(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domains file: %w", err)
	}
	defer f.Close()
	domains, err := tabular.ReadDomains(f)
	if err != nil {
		return nil, fmt.Errorf("read domains from %s: %w", path, err)
	}
	return domains, nil
}

func buildEngine(appInstance App, cfg config.Config, logger *zap.Logger) *crawler.Engine {
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.Crawler.RequestTimeout,
		Retries:     cfg.Crawler.Retries,
		RetryDelay:  cfg.Crawler.RetryDelay,
		VerifyTLS:   cfg.Crawler.VerifyTLS,
		Concurrency: int64(cfg.Crawler.Concurrency),
	},
		collyfetcher.WithLogger(logger.Named("fetcher")),
		collyfetcher.WithDecoder(decode.New(nil, logger.Named("decoder"))),
		collyfetcher.WithLimiter(ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Crawler.RateLimitRPS,
			DefaultBurst: cfg.Crawler.RateLimitBurst,
		})),
	)

	opts := crawler.EngineOptions{
		IDs:    uuid.New(),
		Logger: logger.Named("engine"),
	}
	if pub := appInstance.GetPublisher(); pub != nil {
		opts.Publisher = pub
		opts.Topic = cfg.PubSub.TopicName
	}
	return crawler.NewEngine(
		crawler.NewResolver(fetcher, logger.Named("resolver")),
		extract.New(logger.Named("extract")),
		tabular.NewSink(appInstance.GetStorage(), cfg.Output.Prefix),
		opts,
	)
}
