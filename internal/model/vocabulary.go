package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the phrase lists the analyzer matches against.
// Lists are matched case-insensitively and never mutated after construction.
type Vocabulary struct {
	MisinformationCues []string `yaml:"misinformation_cues"`
	CredibilityCues    []string `yaml:"credibility_cues"`
	WeaselWords        []string `yaml:"weasel_words"`
	FactualPhrases     []string `yaml:"factual_phrases"`
	PositiveWords      []string `yaml:"positive_words"`
	NegativeWords      []string `yaml:"negative_words"`
}

// DefaultVocabulary returns a fresh copy of the built-in phrase lists
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		MisinformationCues: []string{
			"conspiracy", "hoax", "fraud", "scam", "fake",
			"clickbait", "shocking", "you won't believe",
			"secret", "they don't want you to know",
			"miraculous", "cure", "exclusive", "anonymous sources",
			"hidden truth", "cover-up", "what they don't tell you",
			"mainstream media won't report", "doctors hate this",
			"one weird trick", "without a prescription", "banned",
			"censored", "the truth about", "they refused to publish",
			"what the government doesn't want you to know",
			"shocking revelation", "suppressed", "exposed",
			"wake up", "sheeple", "mind control", "plandemic",
		},
		CredibilityCues: []string{
			"research", "study", "evidence", "according to experts",
			"scientists", "verified", "official", "fact check",
			"investigation", "confirmed", "source", "data",
			"peer-reviewed", "published in", "journal", "university",
			"professor", "expert", "analyzed", "statistics",
			"survey", "clinical trial", "experiment", "meta-analysis",
			"research paper", "findings suggest", "evidence indicates",
			"researchers found", "according to the study",
			"multiple sources confirmed", "citation", "reference",
			"statistical significance", "correlation", "causation",
		},
		WeaselWords: []string{
			"may", "might", "could", "possibly", "allegedly", "reportedly",
			"some say", "they say", "many people", "sources say", "rumored",
			"supposedly",
		},
		FactualPhrases: []string{
			"according to", "stated that", "reported by", "confirms that", "found that",
		},
		PositiveWords: []string{"good", "great", "excellent", "positive", "happy", "wonderful", "beneficial"},
		NegativeWords: []string{"bad", "terrible", "awful", "negative", "sad", "horrible", "harmful"},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Lists missing from the file
// keep their built-in defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}

	merge := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	merge(&vocab.MisinformationCues, override.MisinformationCues)
	merge(&vocab.CredibilityCues, override.CredibilityCues)
	merge(&vocab.WeaselWords, override.WeaselWords)
	merge(&vocab.FactualPhrases, override.FactualPhrases)
	merge(&vocab.PositiveWords, override.PositiveWords)
	merge(&vocab.NegativeWords, override.NegativeWords)

	return vocab, nil
}
