package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// AnalysisRepository persists completed analysis results. The full result
// envelope is stored as JSONB next to its indexed identifiers.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts a completed analysis record. Rows are keyed per user: two
// users analyzing the same nominal video share a deterministic analysis id
// but each keeps a queryable record. Re-inserting the same (id, user) pair is
// a no-op since results for a fingerprint are value-identical.
func (r *AnalysisRepository) Create(ctx context.Context, a *models.Analysis) error {
	resultJSON, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := `
		INSERT INTO analyses (id, user_id, video_id, fingerprint, version, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id, user_id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.VideoID,
		a.Fingerprint,
		a.Version,
		resultJSON,
	)
	return err
}

// GetByID retrieves an analysis by id, scoped to its owner.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string, userID int) (*models.Analysis, error) {
	query := `
		SELECT id, user_id, video_id, fingerprint, version, result, created_at
		FROM analyses
		WHERE id = $1 AND user_id = $2`

	return r.scanAnalysis(ctx, query, id, userID)
}

// GetByFingerprint retrieves the stored analysis for a fingerprint, if any.
func (r *AnalysisRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.Analysis, error) {
	query := `
		SELECT id, user_id, video_id, fingerprint, version, result, created_at
		FROM analyses
		WHERE fingerprint = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanAnalysis(ctx, query, fingerprint)
}

// ListByUser returns a user's analyses, newest first.
func (r *AnalysisRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Analysis, error) {
	query := `
		SELECT id, user_id, video_id, fingerprint, version, result, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []models.Analysis{}
	for rows.Next() {
		var a models.Analysis
		var resultJSON []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.VideoID, &a.Fingerprint, &a.Version, &resultJSON, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(resultJSON) > 0 {
			var result models.AnalysisResult
			if err := json.Unmarshal(resultJSON, &result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
			}
			a.Result = &result
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// CountByUser returns the number of analyses for a user.
func (r *AnalysisRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM analyses WHERE user_id = $1`, userID)
	return count, err
}

// StatsByUser aggregates metric averages across a user's analyses for the
// analytics dashboard.
func (r *AnalysisRepository) StatsByUser(ctx context.Context, userID int) (*models.AnalysisStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG((result->'metrics'->>'overall')::numeric), 0),
			COALESCE(AVG((result->'metrics'->>'eyeContact')::numeric), 0),
			COALESCE(AVG((result->'metrics'->>'confidence')::numeric), 0),
			COALESCE(AVG((result->'metrics'->>'bodyLanguage')::numeric), 0),
			COALESCE(AVG((result->'metrics'->>'speaking')::numeric), 0),
			COALESCE(AVG((result->'metrics'->>'engagement')::numeric), 0)
		FROM analyses
		WHERE user_id = $1`

	var stats models.AnalysisStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalAnalyses,
		&stats.AvgOverall,
		&stats.AvgEyeContact,
		&stats.AvgConfidence,
		&stats.AvgBodyLanguage,
		&stats.AvgSpeaking,
		&stats.AvgEngagement,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// scanAnalysis scans a single row into an Analysis.
func (r *AnalysisRepository) scanAnalysis(ctx context.Context, query string, args ...interface{}) (*models.Analysis, error) {
	var a models.Analysis
	var resultJSON []byte

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.UserID,
		&a.VideoID,
		&a.Fingerprint,
		&a.Version,
		&resultJSON,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(resultJSON) > 0 {
		var result models.AnalysisResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
		}
		a.Result = &result
	}
	return &a, nil
}
