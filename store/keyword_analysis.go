package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veltaire/plume/keywords"
)

// SaveKeywordAnalysis appends a new analysis row for the tenant. The row
// becomes the tenant's live analysis immediately; older rows are kept for
// history until PruneKeywordAnalyses trims them.
func (s *Store) SaveKeywordAnalysis(ctx context.Context, tenant string, a *keywords.Analysis) (string, error) {
	id := "kwa_" + uuid.Must(uuid.NewV7()).String()
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO keyword_analyses (id, tenant, main_products, problems_solved,
		customer_searches, legacy_keywords, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tenant, marshalStrings(a.MainProducts), marshalStrings(a.ProblemsSolved),
		marshalStrings(a.CustomerSearches), marshalStrings(a.LegacyKeywords),
		updated.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("save keyword analysis: %w", err)
	}
	return id, nil
}

// LatestAnalysis returns the tenant's most recent keyword analysis, or
// (nil, nil) when the tenant has none.
func (s *Store) LatestAnalysis(ctx context.Context, tenant string) (*keywords.Analysis, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT main_products, problems_solved, customer_searches, legacy_keywords, updated_at
		FROM keyword_analyses WHERE tenant = ?
		ORDER BY updated_at DESC, id DESC LIMIT 1`, tenant)

	var products, problems, searches, legacy string
	var updated int64
	err := row.Scan(&products, &problems, &searches, &legacy, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan keyword analysis: %w", err)
	}
	return &keywords.Analysis{
		MainProducts:     unmarshalStrings(products),
		ProblemsSolved:   unmarshalStrings(problems),
		CustomerSearches: unmarshalStrings(searches),
		LegacyKeywords:   unmarshalStrings(legacy),
		UpdatedAt:        time.UnixMilli(updated),
	}, nil
}

// PruneKeywordAnalyses deletes superseded analysis rows, keeping the newest
// `keep` per tenant. Returns the number of rows removed.
func (s *Store) PruneKeywordAnalyses(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM keyword_analyses WHERE id NOT IN (
			SELECT id FROM keyword_analyses ka
			WHERE (SELECT COUNT(*) FROM keyword_analyses newer
			       WHERE newer.tenant = ka.tenant
			         AND (newer.updated_at > ka.updated_at
			              OR (newer.updated_at = ka.updated_at AND newer.id > ka.id))) < ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune keyword analyses: %w", err)
	}
	return res.RowsAffected()
}
