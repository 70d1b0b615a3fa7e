package model

// CrawlStats summarises a finished crawl
type CrawlStats struct {
	SeedURL      string `json:"startUrl"`
	PagesVisited int    `json:"pagesVisited"`
	MaxDepth     int    `json:"maxDepth"`
	MaxPages     int    `json:"maxPages"`
}

// PageResult is the scored outcome for one successfully fetched page
type PageResult struct {
	URL        string          `json:"url"`
	Title      string          `json:"title"`
	Depth      int             `json:"depth"`
	Language   string          `json:"language,omitempty"`
	Verdict    Verdict         `json:"verdict"`
	Confidence float64         `json:"confidence"`
	Metrics    AnalysisMetrics `json:"metrics"`
}

// PageFailure records a visited URL whose fetch failed
type PageFailure struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
	Error string `json:"error"`
}

// CrawlReport is the output of a bounded crawl
type CrawlReport struct {
	CrawlStats CrawlStats    `json:"crawlStats"`
	Results    []PageResult  `json:"results"`
	Failures   []PageFailure `json:"failures,omitempty"`
}
