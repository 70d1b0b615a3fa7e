package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	crawlDepth int
	crawlPages int
)

// crawlCmd walks a site breadth-first and scores every page it reaches
var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a site and score each page",
	Long: `Crawl fetches the seed page, follows absolute links breadth-first up to
--depth levels, and scores each page it fetches. The crawl stops after
--max-pages pages; failed fetches count toward the limit.

Example:
  truthguard crawl https://example.com
  truthguard crawl https://example.com --depth 2 --max-pages 20 --json crawl.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&crawlDepth, "depth", -1, "maximum link depth (default from config)")
	crawlCmd.Flags().IntVar(&crawlPages, "max-pages", 0, "maximum pages to visit (default from config)")
	crawlCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	crawlCmd.Flags().StringVar(&profile, "profile", "", "scoring profile (high-fidelity, ratio)")
	crawlCmd.Flags().BoolVar(&noStore, "no-store", false, "score without stored examples and domain ratings")
	addHTTPFlags(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig()
	if err != nil {
		return err
	}
	if crawlDepth >= 0 {
		cfg.Crawl.MaxDepth = crawlDepth
	}
	if crawlPages > 0 {
		cfg.Crawl.MaxPages = crawlPages
	}

	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Crawling: %s (depth %d, max %d pages)\n", args[0], cfg.Crawl.MaxDepth, cfg.Crawl.MaxPages)
		fmt.Fprintf(os.Stderr, "Robots:   %v\n", cfg.HTTP.RespectRobots)
		fmt.Fprintln(os.Stderr)
	}

	report, err := p.CrawlAndScore(cmdContext(cmd), args[0], cfg.Crawl.MaxDepth, cfg.Crawl.MaxPages)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if outJSON != "" {
		if err := p.Renderer().RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	p.Renderer().RenderCrawlSummary(os.Stdout, report)
	return nil
}
