package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/model"
)

var (
	importTrue      string
	importFalse     string
	importSources   string
	feedbackVerdict string
	feedbackSystem  string
	feedbackConf    float64
)

// dbCmd groups knowledge-base maintenance
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the knowledge base",
	Long: `Manage stored examples, domain credibility ratings and feedback.

The backend is chosen by storage.driver: sqlite (default, under
~/.truthguard/data) or mysql (storage.dsn).`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if s, ok := store.(*knowledge.SQLiteStore); ok {
			fmt.Printf("✓ Knowledge base ready: %s\n", s.Path())
		} else {
			fmt.Println("✓ Knowledge base ready")
		}
		return nil
	},
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample articles and domain ratings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		res, err := knowledge.Seed(cmdContext(cmd), store)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Printf("✓ Seeded %d examples and %d domain ratings\n", res.Examples, res.Domains)
		return nil
	},
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import examples and ratings from CSV files",
	Long: `Import reads CSV files with a header row:
  --true / --false   title,content,source   (content required)
  --sources          domain,credibility_score

Rows that fail are reported and skipped. Ratings replace existing ones.

Example:
  truthguard db import --true True.csv --false Fake.csv
  truthguard db import --sources sources.csv`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		stats, err := store.Stats(cmdContext(cmd))
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		fmt.Printf("  Known true:   %d\n", stats.KnownTrue)
		fmt.Printf("  Known false:  %d\n", stats.KnownFalse)
		fmt.Printf("  Domains:      %d\n", stats.Domains)
		fmt.Printf("  Feedback:     %d\n", stats.Feedback)
		return nil
	},
}

var dbFeedbackCmd = &cobra.Command{
	Use:   "feedback <content>",
	Short: "Record whether a verdict was correct",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedbackVerdict != "correct" && feedbackVerdict != "incorrect" {
			return fmt.Errorf("%w: --verdict must be correct or incorrect", model.ErrInvalidInput)
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		err = store.RecordFeedback(cmdContext(cmd), knowledge.Feedback{
			Content:       args[0],
			UserVerdict:   feedbackVerdict,
			SystemVerdict: feedbackSystem,
			Confidence:    feedbackConf,
		})
		if err != nil {
			return fmt.Errorf("record feedback: %w", err)
		}
		count, err := store.FeedbackCount(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("read feedback: %w", err)
		}
		fmt.Printf("✓ Feedback recorded (%d for this content)\n", count)
		return nil
	},
}

var dbRateCmd = &cobra.Command{
	Use:   "rate <domain> <score>",
	Short: "Set a domain's credibility rating (0 to 1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("%w: score %q is not a number", model.ErrInvalidInput, args[1])
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.UpsertCredibility(cmdContext(cmd), args[0], score); err != nil {
			return fmt.Errorf("rate domain: %w", err)
		}
		fmt.Printf("✓ %s rated %.2f\n", knowledge.NormalizeDomain(args[0]), score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd, dbSeedCmd, dbImportCmd, dbStatsCmd, dbFeedbackCmd, dbRateCmd)

	dbImportCmd.Flags().StringVar(&importTrue, "true", "", "CSV of known-true articles")
	dbImportCmd.Flags().StringVar(&importFalse, "false", "", "CSV of known-false articles")
	dbImportCmd.Flags().StringVar(&importSources, "sources", "", "CSV of domain credibility ratings")

	dbFeedbackCmd.Flags().StringVar(&feedbackVerdict, "verdict", "", "correct or incorrect")
	dbFeedbackCmd.Flags().StringVar(&feedbackSystem, "system-verdict", "", "verdict TruthGuard gave (True or False)")
	dbFeedbackCmd.Flags().Float64Var(&feedbackConf, "confidence", 0, "confidence TruthGuard gave")
	_ = dbFeedbackCmd.MarkFlagRequired("verdict")
}

// openDB opens the configured store without a cache; unlike scoring
// commands, db commands fail when storage is disabled
func openDB() (knowledge.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := knowledge.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: storage.driver is none", knowledge.ErrStorageUnavailable)
	}
	return store, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if importTrue == "" && importFalse == "" && importSources == "" {
		return fmt.Errorf("%w: nothing to import (use --true, --false or --sources)", model.ErrInvalidInput)
	}

	store, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmdContext(cmd)

	importFile := func(path, label string, fn func(f *os.File) (knowledge.ImportResult, error)) error {
		if path == "" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		res, err := fn(f)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Printf("✓ %s: imported %d %s, skipped %d\n", path, res.Imported, label, res.Skipped)
		return nil
	}

	if err := importFile(importTrue, "known-true examples", func(f *os.File) (knowledge.ImportResult, error) {
		return knowledge.ImportExamplesCSV(ctx, store, f, true)
	}); err != nil {
		return err
	}
	if err := importFile(importFalse, "known-false examples", func(f *os.File) (knowledge.ImportResult, error) {
		return knowledge.ImportExamplesCSV(ctx, store, f, false)
	}); err != nil {
		return err
	}
	return importFile(importSources, "domain ratings", func(f *os.File) (knowledge.ImportResult, error) {
		return knowledge.ImportSourcesCSV(ctx, store, f)
	})
}
