// Package migrate moves review data between the local cache, the remote
// document store, and portable JSONL files.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

// ExportOptions contains configuration for a JSONL export.
type ExportOptions struct {
	ToJSONL string // Output JSONL file path
	UserID  string // Optional: export only this user's reviews
}

// ExportResult contains statistics about an export.
type ExportResult struct {
	ReviewsWritten int
}

// ImportOptions contains configuration for a JSONL import.
type ImportOptions struct {
	FromJSONL string // Input JSONL file path
	DryRun    bool   // Preview without writing
	Backup    bool   // Create backup of the input file
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	ReviewsImported int
	Skipped         int
	BackupCreated   string
	Errors          []string
}

// FromJSONL reads a JSONL file and returns the parsed reviews.
func FromJSONL(jsonlPath string) ([]*model.Review, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	var reviews []*model.Review
	decoder := json.NewDecoder(file)
	lineNum := 0

	for {
		var r model.Review
		if err := decoder.Decode(&r); err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++

		r.SetDefaults()
		reviews = append(reviews, &r)
	}

	return reviews, nil
}

// Export writes cached reviews to a JSONL file, one document per line.
// The file is written atomically via a temp file.
func Export(ctx context.Context, store *cache.Store, opts ExportOptions) (*ExportResult, error) {
	if opts.ToJSONL == "" {
		return nil, fmt.Errorf("output path is required")
	}

	var reviews []*model.Review
	var err error
	if opts.UserID != "" {
		reviews, err = store.ReviewsByUser(ctx, opts.UserID)
	} else {
		reviews, err = store.AllReviews(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached reviews: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.ToJSONL), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := opts.ToJSONL + ".tmp"
	// #nosec G304 - controlled path from CLI
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	for _, r := range reviews {
		if err := encoder.Encode(r); err != nil {
			_ = file.Close()
			_ = os.Remove(tmpPath)
			return nil, fmt.Errorf("failed to encode review %s: %w", r.ID, err)
		}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, opts.ToJSONL); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &ExportResult{ReviewsWritten: len(reviews)}, nil
}

// Import loads reviews from a JSONL file into the remote store, preserving
// their document ids. Invalid records are skipped and reported in the
// result; they do not abort the import. Run a refresh afterwards to bring
// the cache up to date.
func Import(ctx context.Context, docs remote.DocStore, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	if _, err := os.Stat(opts.FromJSONL); err != nil {
		return nil, fmt.Errorf("input file does not exist: %w", err)
	}

	if opts.Backup && !opts.DryRun {
		backupPath := opts.FromJSONL + ".backup." + time.Now().Format("20060102-150405")
		input, err := os.ReadFile(opts.FromJSONL)
		if err != nil {
			return nil, fmt.Errorf("failed to read input for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupCreated = backupPath
	}

	reviews, err := FromJSONL(opts.FromJSONL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONL: %w", err)
	}

	seen := make(map[string]bool)
	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("skipping review %q: %v", r.ID, err))
			continue
		}
		if seen[r.ID] {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("skipping duplicate review %q", r.ID))
			continue
		}
		seen[r.ID] = true

		if !opts.DryRun {
			if err := docs.SetReview(ctx, r.ID, r); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("failed to import review %s: %v", r.ID, err))
				continue
			}
		}
		result.ReviewsImported++
	}

	return result, nil
}
