package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ImportResult counts imported and skipped CSV rows
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportExamplesCSV imports a title,content,source file as known-true or known-false examples.
// Bad rows are logged and skipped.
func ImportExamplesCSV(ctx context.Context, store Store, r io.Reader, isTrue bool) (ImportResult, error) {
	var res ImportResult

	err := readCSV(r, []string{"content"}, func(line int, row map[string]string) {
		ex := Example{
			Title:   row["title"],
			Content: row["content"],
			Source:  row["source"],
			IsTrue:  isTrue,
		}
		if err := store.AddExample(ctx, ex); err != nil {
			slog.Warn("skipping example row", "line", line, "error", err)
			res.Skipped++
			return
		}
		res.Imported++
	})

	return res, err
}

// ImportSourcesCSV imports a domain,credibility_score file, replacing existing ratings
func ImportSourcesCSV(ctx context.Context, store Store, r io.Reader) (ImportResult, error) {
	var res ImportResult

	err := readCSV(r, []string{"domain", "credibility_score"}, func(line int, row map[string]string) {
		score, err := strconv.ParseFloat(strings.TrimSpace(row["credibility_score"]), 64)
		if err != nil {
			slog.Warn("skipping source row", "line", line, "error", err)
			res.Skipped++
			return
		}
		if err := store.UpsertCredibility(ctx, row["domain"], score); err != nil {
			slog.Warn("skipping source row", "line", line, "error", err)
			res.Skipped++
			return
		}
		res.Imported++
	})

	return res, err
}

// readCSV maps each record to its header names and hands it to fn
func readCSV(r io.Reader, required []string, fn func(line int, row map[string]string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	for _, col := range required {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("missing column %q (have %s)", col, strings.Join(header, ","))
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read line %d: %w", line, err)
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		fn(line, row)
	}
}
