// Package postgres provides the PostgreSQL audit store backed by pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
	"finaudit/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the audit schema. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Save persists an audit with its gaps, locations, and remediation steps.
// Audit ids are write-once; duplicate ids report a conflict.
func (s *Store) Save(ctx context.Context, audit models.Audit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin audit insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO audits (id, requester, document_name, category, score, grade, executive_summary, report_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		audit.ID.String(),
		audit.Requester.String(),
		audit.DocumentName,
		audit.Category.String(),
		audit.Score,
		audit.Grade.String(),
		audit.ExecutiveSummary,
		audit.ReportPath,
		audit.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert audit: %w", err)
	}

	for i, gap := range audit.Gaps {
		var gapID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO audit_gaps (audit_id, position, severity, title, description, regulation)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			audit.ID.String(), i, gap.Severity.String(), gap.Title, gap.Description, gap.Regulation,
		).Scan(&gapID)
		if err != nil {
			return fmt.Errorf("insert gap: %w", err)
		}
		for j, loc := range gap.Locations {
			if _, err := tx.Exec(ctx, `
				INSERT INTO gap_locations (gap_id, position, page, quote, context)
				VALUES ($1, $2, $3, $4, $5)`,
				gapID, j, loc.Page, loc.Quote, loc.Context,
			); err != nil {
				return fmt.Errorf("insert gap location: %w", err)
			}
		}
	}

	for i, step := range audit.Remediation {
		if _, err := tx.Exec(ctx, `
			INSERT INTO audit_remediations (audit_id, position, step)
			VALUES ($1, $2, $3)`,
			audit.ID.String(), i, step,
		); err != nil {
			return fmt.Errorf("insert remediation step: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit audit insert: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, auditID id.AuditID) (models.Audit, error) {
	var (
		audit     models.Audit
		requester string
		category  string
		grade     string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, requester, document_name, category, score, grade, executive_summary, report_path, created_at
		FROM audits WHERE id = $1`,
		auditID.String(),
	).Scan(&audit.ID, &requester, &audit.DocumentName, &category, &audit.Score, &grade,
		&audit.ExecutiveSummary, &audit.ReportPath, &audit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Audit{}, sentinel.ErrNotFound
		}
		return models.Audit{}, fmt.Errorf("query audit: %w", err)
	}
	audit.Requester = id.RequesterID(requester)
	audit.Category = id.Category(category)
	audit.Grade = id.Grade(grade)
	audit.Timestamp = models.WireTimestamp(audit.CreatedAt)

	gaps, err := s.loadGaps(ctx, auditID)
	if err != nil {
		return models.Audit{}, err
	}
	audit.Gaps = gaps

	remediation, err := s.loadRemediation(ctx, auditID)
	if err != nil {
		return models.Audit{}, err
	}
	audit.Remediation = remediation
	return audit, nil
}

func (s *Store) loadGaps(ctx context.Context, auditID id.AuditID) ([]models.Gap, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, severity, title, description, regulation
		FROM audit_gaps WHERE audit_id = $1 ORDER BY position`,
		auditID.String())
	if err != nil {
		return nil, fmt.Errorf("query gaps: %w", err)
	}
	defer rows.Close()

	gaps := make([]models.Gap, 0)
	gapIDs := make([]int64, 0)
	for rows.Next() {
		var (
			gapID    int64
			severity string
			gap      models.Gap
		)
		if err := rows.Scan(&gapID, &severity, &gap.Title, &gap.Description, &gap.Regulation); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		gap.Severity = id.Severity(severity)
		gaps = append(gaps, gap)
		gapIDs = append(gapIDs, gapID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gaps: %w", err)
	}

	for i, gapID := range gapIDs {
		locations, err := s.loadLocations(ctx, gapID)
		if err != nil {
			return nil, err
		}
		gaps[i].Locations = locations
	}
	return gaps, nil
}

func (s *Store) loadLocations(ctx context.Context, gapID int64) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT page, quote, context
		FROM gap_locations WHERE gap_id = $1 ORDER BY position`,
		gapID)
	if err != nil {
		return nil, fmt.Errorf("query gap locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.Page, &loc.Quote, &loc.Context); err != nil {
			return nil, fmt.Errorf("scan gap location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *Store) loadRemediation(ctx context.Context, auditID id.AuditID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT step FROM audit_remediations WHERE audit_id = $1 ORDER BY position`,
		auditID.String())
	if err != nil {
		return nil, fmt.Errorf("query remediation: %w", err)
	}
	defer rows.Close()

	var steps []string
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, fmt.Errorf("scan remediation step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// ListByRequester returns summaries for one requester, newest first.
func (s *Store) ListByRequester(ctx context.Context, requester id.RequesterID) ([]models.Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.document_name, a.category, a.score, a.grade, a.created_at
		FROM audits a WHERE a.requester = $1 ORDER BY a.created_at DESC`,
		requester.String())
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.Summary, 0)
	for rows.Next() {
		var (
			summary   models.Summary
			category  string
			grade     string
			createdAt time.Time
		)
		if err := rows.Scan(&summary.ID, &summary.DocumentName, &category, &summary.Score, &grade, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit summary: %w", err)
		}
		summary.Category = id.Category(category)
		summary.Grade = id.Grade(grade)
		summary.Timestamp = models.WireTimestamp(createdAt)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
