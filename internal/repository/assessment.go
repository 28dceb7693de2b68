package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/phash"
)

// AssessmentRepository persists finished assessments and answers
// read-back and cross-claim fingerprint queries.
type AssessmentRepository struct {
	pool PgxPool
}

func NewAssessmentRepository(pool PgxPool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Name implements service.ResultSink
func (r *AssessmentRepository) Name() string {
	return "postgres"
}

// Publish implements service.ResultSink
func (r *AssessmentRepository) Publish(ctx context.Context, a *domain.Assessment) error {
	return r.Save(ctx, a)
}

// Save writes the assessment, its per-image results and fingerprints in
// one transaction.
func (r *AssessmentRepository) Save(ctx context.Context, a *domain.Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	summary, err := json.Marshal(a.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO assessments (id, claim_id, summary, overall_damage_severity, total_images, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Summary.ClaimID, summary, a.Summary.OverallDamageSeverity,
		a.Summary.SourceImageCounts.Total, a.Summary.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	for i, res := range a.Results {
		var area *string
		if res.Area != nil {
			s := string(*res.Area)
			area = &s
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO image_results (assessment_id, position, url, wind_damage, severity, area, discard_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, a.ID, i, res.Reference.String(), res.DamageDetected, int(res.Severity), area, string(res.DiscardReason))
		if err != nil {
			return fmt.Errorf("insert image result %d: %w", i, err)
		}
	}

	for _, fp := range a.Fingerprints {
		hash := phash.Fingerprint(fp.Hash)
		_, err = tx.Exec(ctx, `
			INSERT INTO image_fingerprints (assessment_id, claim_id, url, phash, hash_bits, sharpness, cluster, representative, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, a.ID, a.Summary.ClaimID, fp.Reference.String(), hash.String(), pgvector.NewVector(hash.Bits()),
			fp.Sharpness, fp.Cluster, fp.Representative, a.Summary.GeneratedAt)
		if err != nil {
			return fmt.Errorf("insert fingerprint %s: %w", fp.Reference, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assessment: %w", err)
	}
	return nil
}

// GetLatestByClaimID loads the newest assessment for a claim. Assessments
// generated in the same second are ordered by insertion. Fingerprints are
// not loaded.
func (r *AssessmentRepository) GetLatestByClaimID(ctx context.Context, claimID string) (*domain.Assessment, error) {
	query := `
		SELECT id, summary
		FROM assessments
		WHERE claim_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`

	var a domain.Assessment
	var summary []byte
	err := r.pool.QueryRow(ctx, query, claimID).Scan(&a.ID, &summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment by claim: %w", err)
	}

	if err := json.Unmarshal(summary, &a.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	results, err := r.results(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Results = results

	return &a, nil
}

func (r *AssessmentRepository) results(ctx context.Context, id uuid.UUID) ([]domain.ImageResult, error) {
	query := `
		SELECT url, wind_damage, severity, area, discard_reason
		FROM image_results
		WHERE assessment_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list image results: %w", err)
	}
	defer rows.Close()

	results := []domain.ImageResult{}
	for rows.Next() {
		var (
			res      domain.ImageResult
			url      string
			severity int
			area     *string
			reason   string
		)
		if err := rows.Scan(&url, &res.DamageDetected, &severity, &area, &reason); err != nil {
			return nil, fmt.Errorf("scan image result: %w", err)
		}
		res.Reference = domain.ImageReference(url)
		res.Severity = domain.SeverityLevel(severity)
		res.DiscardReason = domain.DiscardReason(reason)
		if area != nil {
			a := domain.DamageArea(*area)
			res.Area = &a
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// FindCrossClaimMatches compares the fingerprints of the claim's latest
// assessment against fingerprints stored for every other claim. hash_bits
// holds 0/1 components, so the L1 operator yields the Hamming distance.
func (r *AssessmentRepository) FindCrossClaimMatches(ctx context.Context, claimID string, maxDistance int) ([]domain.CrossClaimMatch, error) {
	query := `
		WITH latest AS (
			SELECT id FROM assessments
			WHERE claim_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT 1
		)
		SELECT f.url, o.claim_id, o.url, (f.hash_bits <+> o.hash_bits)::int AS distance, o.created_at
		FROM image_fingerprints f
		JOIN latest l ON f.assessment_id = l.id
		JOIN image_fingerprints o ON o.claim_id <> f.claim_id
		WHERE (f.hash_bits <+> o.hash_bits) <= $2
		ORDER BY distance, f.url, o.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, claimID, maxDistance)
	if err != nil {
		return nil, fmt.Errorf("find cross claim matches: %w", err)
	}
	defer rows.Close()

	matches := []domain.CrossClaimMatch{}
	for rows.Next() {
		var m domain.CrossClaimMatch
		var url, otherURL string
		if err := rows.Scan(&url, &m.OtherClaimID, &otherURL, &m.Distance, &m.OtherCreatedAt); err != nil {
			return nil, fmt.Errorf("scan cross claim match: %w", err)
		}
		m.Reference = domain.ImageReference(url)
		m.OtherReference = domain.ImageReference(otherURL)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}
