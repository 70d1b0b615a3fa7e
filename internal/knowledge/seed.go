package knowledge

import (
	"context"
	"fmt"
)

// SampleExamples are the starter articles loaded by Seed
var SampleExamples = []Example{
	{
		Title:   "New Study on Exercise Benefits",
		Content: "According to a recent research study published in the Journal of Medicine, scientists at Harvard University have confirmed that regular exercise reduces the risk of heart disease by 30%. The data was collected over a 10-year period, involving 5,000 participants. The research was verified by multiple independent laboratories and was funded by the National Institute of Health.",
		Source:  "Sample Data",
		IsTrue:  true,
	},
	{
		Title:   "COVID-19 Vaccine Effectiveness",
		Content: "A peer-reviewed study published in Nature Medicine shows that COVID-19 vaccines reduced hospitalizations by 85% among those fully vaccinated. Researchers analyzed data from 32,000 patients across multiple hospitals. The findings were consistent across different age groups, according to the lead scientist Dr. Robert Chen.",
		Source:  "Sample Data",
		IsTrue:  true,
	},
	{
		Title:   "Secret Miracle Cure Revealed",
		Content: "SHOCKING NEWS!!! Scientists don't want you to know this MIRACLE cure for ALL diseases!!! A secret conspiracy of doctors is HIDING this from you because they want you to stay sick!!! Anonymous sources confirm this EXCLUSIVE information that Big Pharma doesn't want you to see!!! Share before they take this down!!!",
		Source:  "Sample Data",
		IsTrue:  false,
	},
	{
		Title:   "Aliens Among Us",
		Content: "Some people say that there might possibly be aliens living among us. They could be your neighbors or coworkers. They might be planning something big, according to anonymous sources. The government allegedly knows about this but is keeping it secret.",
		Source:  "Sample Data",
		IsTrue:  false,
	},
}

// SampleCredibility are the starter domain ratings loaded by Seed
var SampleCredibility = map[string]float64{
	"reuters.com":            0.95,
	"apnews.com":             0.95,
	"bbc.com":                0.9,
	"npr.org":                0.9,
	"nature.com":             0.95,
	"science.org":            0.95,
	"scientificamerican.com": 0.9,
	"nejm.org":               0.95,
	"who.int":                0.9,
	"cdc.gov":                0.9,
	"nih.gov":                0.95,
	"harvard.edu":            0.9,
	"mit.edu":                0.9,
	"infowars.com":           0.1,
	"naturalcures.com":       0.2,
	"theonion.com":           0.2, // satire
	"clickbait-news.com":     0.15,
}

// SeedResult reports what Seed wrote
type SeedResult struct {
	Examples int
	Domains  int
}

// Seed loads the sample ratings and, into an empty corpus, the sample articles
func Seed(ctx context.Context, store Store) (SeedResult, error) {
	var res SeedResult

	stats, err := store.Stats(ctx)
	if err != nil {
		return res, fmt.Errorf("read stats: %w", err)
	}

	if stats.KnownTrue+stats.KnownFalse == 0 {
		for _, ex := range SampleExamples {
			if err := store.AddExample(ctx, ex); err != nil {
				return res, fmt.Errorf("seed example %q: %w", ex.Title, err)
			}
			res.Examples++
		}
	}

	for domain, score := range SampleCredibility {
		if err := store.UpsertCredibility(ctx, domain, score); err != nil {
			return res, fmt.Errorf("seed domain %s: %w", domain, err)
		}
		res.Domains++
	}

	return res, nil
}
