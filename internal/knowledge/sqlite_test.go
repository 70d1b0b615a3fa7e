package knowledge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/truthguard/internal/cache"
	"github.com/ppiankov/truthguard/internal/model"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.UpsertCredibility(ctx, "reuters.com", 0.95))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	score, found, err := reopened.DomainCredibility(ctx, "reuters.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 0.95, score, 1e-9)
}

func TestSQLiteStore_FindExactMatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExample(ctx, Example{Title: "t", Content: "Alpha beta gamma delta", IsTrue: true}))
	require.NoError(t, store.AddExample(ctx, Example{Title: "f", Content: "The moon is made of cheese", IsTrue: false}))

	tests := []struct {
		name string
		text string
		want model.KnowledgeMatch
	}{
		{"known true substring", "beta gamma", model.MatchKnownTrue},
		{"known false substring", "  moon is made of  ", model.MatchKnownFalse},
		{"no match", "unrelated text", model.MatchNone},
		{"empty", "", model.MatchNone},
		{"whitespace", "   ", model.MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindExactMatch(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteStore_FindExactMatch_TruePrecedence(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExample(ctx, Example{Content: "shared sentence", IsTrue: false}))
	require.NoError(t, store.AddExample(ctx, Example{Content: "shared sentence", IsTrue: true}))

	got, err := store.FindExactMatch(ctx, "shared sentence")
	require.NoError(t, err)
	assert.Equal(t, model.MatchKnownTrue, got)
}

func TestSQLiteStore_FindExactMatch_OnlyLeadingSnippet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("abcdefghij", 60) // 600 characters
	require.NoError(t, store.AddExample(ctx, Example{Content: long, IsTrue: true}))

	got, err := store.FindExactMatch(ctx, long[:SnippetRunes]+" entirely different tail")
	require.NoError(t, err)
	assert.Equal(t, model.MatchKnownTrue, got)
}

func TestSQLiteStore_DomainCredibility(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCredibility(ctx, "www.Reuters.com", 0.95))

	score, found, err := store.DomainCredibility(ctx, "reuters.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 0.95, score, 1e-9)

	require.NoError(t, store.UpsertCredibility(ctx, "reuters.com", 0.8))
	score, _, err = store.DomainCredibility(ctx, "reuters.com")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 1e-9)

	_, found, err = store.DomainCredibility(ctx, "unknown.example")
	require.NoError(t, err)
	assert.False(t, found)

	err = store.UpsertCredibility(ctx, "bad.example", 1.5)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSQLiteStore_AddExample_RejectsEmpty(t *testing.T) {
	store := setupTestStore(t)

	err := store.AddExample(context.Background(), Example{Content: "  "})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSQLiteStore_RecordFeedback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	fb := Feedback{Content: "some article", UserVerdict: "incorrect", SystemVerdict: "True", Confidence: 72}
	require.NoError(t, store.RecordFeedback(ctx, fb))
	require.NoError(t, store.RecordFeedback(ctx, fb))

	count, err := store.FeedbackCount(ctx, "some article")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Feedback)
}

func TestSeed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	res, err := Seed(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(SampleExamples), res.Examples)
	assert.Equal(t, len(SampleCredibility), res.Domains)

	res, err = Seed(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Examples, "examples are only seeded into an empty corpus")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.KnownTrue)
	assert.Equal(t, int64(2), stats.KnownFalse)
	assert.Equal(t, int64(len(SampleCredibility)), stats.Domains)

	match, err := store.FindExactMatch(ctx, SampleExamples[2].Content)
	require.NoError(t, err)
	assert.Equal(t, model.MatchKnownFalse, match)
}

func TestImportExamplesCSV(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	input := "title,content,source\n" +
		"First,\"Content one, with comma\",csv\n" +
		"Empty,,csv\n" +
		"Second,Content two,csv\n"

	res, err := ImportExamplesCSV(ctx, store, strings.NewReader(input), true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	match, err := store.FindExactMatch(ctx, "Content one, with comma")
	require.NoError(t, err)
	assert.Equal(t, model.MatchKnownTrue, match)
}

func TestImportSourcesCSV(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	input := "domain,credibility_score\nexample.org,0.7\nbad.org,notanumber\n"

	res, err := ImportSourcesCSV(ctx, store, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	_, err = ImportSourcesCSV(ctx, store, strings.NewReader("host,score\na.org,0.5\n"))
	assert.Error(t, err)
}

func TestCachedStore_DomainCredibility(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertCredibility(ctx, "bbc.com", 0.9))

	cached := NewCachedStore(store, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	score, found, err := cached.DomainCredibility(ctx, "bbc.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.9, score, 1e-9)

	// Writes that bypass the decorator are not visible until invalidated
	require.NoError(t, store.UpsertCredibility(ctx, "bbc.com", 0.5))
	score, _, _ = cached.DomainCredibility(ctx, "bbc.com")
	assert.InDelta(t, 0.9, score, 1e-9)

	require.NoError(t, cached.UpsertCredibility(ctx, "www.bbc.com", 0.4))
	score, _, _ = cached.DomainCredibility(ctx, "bbc.com")
	assert.InDelta(t, 0.4, score, 1e-9)
}

func TestNewCachedStore_NilCache(t *testing.T) {
	store := setupTestStore(t)
	assert.Same(t, store, NewCachedStore(store, nil, time.Minute))
}
