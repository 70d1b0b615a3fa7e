package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	profile     string
	noStore     bool
	noFooter    bool
	insecureTLS bool
	noRobots    bool
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// textCmd scores text given as arguments or on stdin
var textCmd = &cobra.Command{
	Use:   "text [text...]",
	Short: "Score a piece of text",
	Long: `Text scores the credibility cues of free text. With no arguments, or
with "-", the text is read from standard input.

Example:
  truthguard text "Researchers found the study was published in a journal."
  cat article.txt | truthguard text --json report.json`,
	RunE: runText,
}

// urlCmd fetches a page and scores its visible text
var urlCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch a web page and score it",
	Long: `URL fetches a page, strips scripts and styles, and scores the visible
text. The stored credibility of the page's domain is blended in.

Example:
  truthguard url https://www.reuters.com/world/
  truthguard url https://example.com --json report.json --md report.md
  truthguard url https://example.com --llm --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

// fileCmd scores a local text, Markdown or HTML file
var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Score a local text, Markdown or HTML file",
	Long: `File scores the text of a local .txt, .md or .html file. PDF and Word
documents are not supported; convert them to text first.`,
	Args: cobra.ExactArgs(1),
	RunE: runFile,
}

func init() {
	rootCmd.AddCommand(textCmd, urlCmd, fileCmd)

	for _, cmd := range []*cobra.Command{textCmd, urlCmd, fileCmd} {
		addReportFlags(cmd)
		addLLMFlags(cmd)
	}
	addHTTPFlags(urlCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	cmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	cmd.Flags().StringVar(&profile, "profile", "", "scoring profile (high-fidelity, ratio)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "score without stored examples and domain ratings")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (default from config)")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "max response bytes to read (default from config)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "add an LLM explanation of the score")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
}

// commandConfig loads configuration and applies the shared command flags
func commandConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		cfg.HTTP.Timeout = timeout
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if maxBytes > 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if profile != "" {
		cfg.Scoring.Profile = profile
	}
	if noStore {
		cfg.Storage.Driver = "none"
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if err := applyLLMFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyLLMFlags(cfg *model.Config) error {
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		if llmModel != "" {
			cfg.LLM.Model = llmModel
		}
		cfg.LLM.StrictEvidence = true // Always enforce
	}

	keyVar := selectLLMKey(cfg)
	if llmEnabled && keyVar != "" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("%s environment variable not set", keyVar)
	}
	return nil
}

// selectLLMKey applies the provider's conventional key variable and returns
// its name, or "" for providers that need no key
func selectLLMKey(cfg *model.Config) string {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic", "claude":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		} else if cfg.LLM.APIKey != "" && cfg.LLM.APIKey == os.Getenv("OPENAI_API_KEY") {
			cfg.LLM.APIKey = ""
		}
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func runText(cmd *cobra.Command, args []string) error {
	text, err := readTextArgs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := commandConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := p.AnalyzeText(cmdContext(cmd), text)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return renderReport(p, report, cfg.Output.Verbose)
}

func runURL(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Scoring: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.HTTP.Timeout)
		fmt.Fprintf(os.Stderr, "Profile: %s\n", p.Profile())
		fmt.Fprintln(os.Stderr)
	}

	report, err := p.ScoreURL(cmdContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return renderReport(p, report, cfg.Output.Verbose)
}

func runFile(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := p.ScoreFile(cmdContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return renderReport(p, report, cfg.Output.Verbose)
}

func renderReport(p *pipeline.Pipeline, report *model.Report, verbose bool) error {
	if verbose {
		m := report.Result.Metrics
		fmt.Fprintf(os.Stderr, "✓ Counted %d words, %d sources\n", m.WordCount, m.SourcesCount)
		fmt.Fprintf(os.Stderr, "✓ Applied %d signals\n", len(report.Result.Signals))
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM explanation using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// readTextArgs joins the arguments, or reads stdin when there are none or the only one is "-"
func readTextArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
