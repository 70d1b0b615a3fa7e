package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/truthguard/internal/model"
)

var (
	wordPattern        = regexp.MustCompile(`[\p{L}\p{N}_]+`) // Unicode letters, digits, underscore
	upperPattern       = regexp.MustCompile(`[A-Z]`)
	punctuationPattern = regexp.MustCompile(`[!?]{2,}`)
	quotePattern       = regexp.MustCompile(`["“”][^"“”]+["“”]`)
)

// Lexical is the raw feature set computed from a text
type Lexical struct {
	FakeScore            int     // Unweighted misinformation cue hits
	TruthHits            int     // Unweighted credibility cue hits
	TruthScore           int     // TruthHits multiplied by the credibility weight
	CredibilityWeight    int
	CapsRatio            float64 // [A-Z] count over character count
	ExcessivePunctuation int
	WeaselCount          int
	FactualCount         int
	Quotations           int
	SourcesCount         int
	WordCount            int
	CharCount            int
}

// Analyzer counts vocabulary cues and stylistic features in text.
// Safe for concurrent use; patterns are compiled once.
type Analyzer struct {
	misinformation []*regexp.Regexp
	credibility    []*regexp.Regexp
	weasel         []*regexp.Regexp
	factual        []string
	weight         int
}

// NewAnalyzer compiles the vocabulary for the given credibility weight
func NewAnalyzer(vocab model.Vocabulary, credibilityWeight int) *Analyzer {
	if credibilityWeight <= 0 {
		credibilityWeight = 1
	}

	factual := make([]string, 0, len(vocab.FactualPhrases))
	for _, p := range vocab.FactualPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			factual = append(factual, p)
		}
	}

	return &Analyzer{
		misinformation: compileBoundaryPatterns(vocab.MisinformationCues),
		credibility:    compileBoundaryPatterns(vocab.CredibilityCues),
		weasel:         compileBoundaryPatterns(vocab.WeaselWords),
		factual:        factual,
		weight:         credibilityWeight,
	}
}

// Analyze computes the lexical features of text
func (a *Analyzer) Analyze(text string) Lexical {
	lower := strings.ToLower(text)
	charCount := utf8.RuneCountInString(text)

	truthHits := countAll(a.credibility, lower)

	lex := Lexical{
		FakeScore:            countAll(a.misinformation, lower),
		TruthHits:            truthHits,
		TruthScore:           truthHits * a.weight,
		CredibilityWeight:    a.weight,
		ExcessivePunctuation: len(punctuationPattern.FindAllStringIndex(text, -1)),
		WeaselCount:          countAll(a.weasel, lower),
		Quotations:           len(quotePattern.FindAllStringIndex(text, -1)),
		SourcesCount:         CountSources(text),
		WordCount:            len(wordPattern.FindAllStringIndex(text, -1)),
		CharCount:            charCount,
	}

	for _, phrase := range a.factual {
		lex.FactualCount += strings.Count(lower, phrase)
	}

	if charCount > 0 {
		lex.CapsRatio = float64(len(upperPattern.FindAllStringIndex(text, -1))) / float64(charCount)
	}

	return lex
}

// compileBoundaryPatterns builds case-insensitive whole-phrase matchers
func compileBoundaryPatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(phrase)+`\b`))
	}
	return patterns
}

func countAll(patterns []*regexp.Regexp, text string) int {
	total := 0
	for _, p := range patterns {
		total += len(p.FindAllStringIndex(text, -1))
	}
	return total
}
