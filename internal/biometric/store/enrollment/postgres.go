package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// uniqueViolation is the SQLSTATE for a unique constraint hit.
const uniqueViolation = "23505"

// Postgres persists enrollments in PostgreSQL. This store is pure I/O; the
// crypto and matching logic belong to the service.
//
// The lookup-then-write upsert is an inherent race under concurrent
// first-time enrollments. The unique constraints on user_id and email are the
// backstop: a concurrent insert that loses the race fails with SQLSTATE
// 23505 and is retried as an update, never surfaced to the caller.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed enrollment store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const enrollmentColumns = `id, user_id, COALESCE(name, ''), email, embedding_ciphertext, nonce_b64, COALESCE(snapshot_path, ''), updated_at`

func (s *Postgres) Upsert(ctx context.Context, p models.UpsertParams) (*models.EnrollmentRecord, models.UpsertOutcome, error) {
	// One retry: the only recoverable failure is losing the insert race,
	// after which the lookup is guaranteed to find the winner's row. A
	// violation on the retry means the write collides with a second live
	// record and can never succeed.
	rec, outcome, err := s.tryUpsert(ctx, p)
	if err != nil && isUniqueViolation(err) {
		rec, outcome, err = s.tryUpsert(ctx, p)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.UpsertOutcome{}, fmt.Errorf("upsert enrollment: %w", sentinel.ErrConflict)
		}
		return nil, models.UpsertOutcome{}, err
	}
	return rec, outcome, nil
}

func (s *Postgres) tryUpsert(ctx context.Context, p models.UpsertParams) (*models.EnrollmentRecord, models.UpsertOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, models.UpsertOutcome{}, fmt.Errorf("begin upsert enrollment: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Lock whichever row either alternate key points at so concurrent
	// upserts for the same identity serialize here.
	var (
		id        int64
		prevUser  string
		prevEmail string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, email FROM enrollments
		WHERE user_id = $1 OR email = $2
		ORDER BY (user_id = $1) DESC
		LIMIT 1
		FOR UPDATE
	`, p.UserID, p.Email).Scan(&id, &prevUser, &prevEmail)

	var rec *models.EnrollmentRecord
	outcome := models.UpsertOutcome{}
	switch {
	case err == nil:
		outcome.Updated = true
		outcome.Migrated = prevUser != p.UserID || prevEmail != p.Email
		rec, err = scanEnrollment(tx.QueryRowContext(ctx, `
			UPDATE enrollments SET
				user_id = $2,
				name = NULLIF($3, ''),
				email = $4,
				embedding_ciphertext = $5,
				nonce_b64 = $6,
				snapshot_path = CASE WHEN $7 = '' THEN snapshot_path ELSE $7 END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+enrollmentColumns+`
		`, id, p.UserID, p.Name, p.Email, p.EmbeddingCiphertext, p.NonceB64, p.SnapshotPath))
		if err != nil {
			return nil, models.UpsertOutcome{}, fmt.Errorf("update enrollment: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		rec, err = scanEnrollment(tx.QueryRowContext(ctx, `
			INSERT INTO enrollments (user_id, name, email, embedding_ciphertext, nonce_b64, snapshot_path, updated_at)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), NOW())
			RETURNING `+enrollmentColumns+`
		`, p.UserID, p.Name, p.Email, p.EmbeddingCiphertext, p.NonceB64, p.SnapshotPath))
		if err != nil {
			return nil, models.UpsertOutcome{}, fmt.Errorf("insert enrollment: %w", err)
		}
	default:
		return nil, models.UpsertOutcome{}, fmt.Errorf("lookup enrollment for upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.UpsertOutcome{}, fmt.Errorf("commit upsert enrollment: %w", err)
	}
	return rec, outcome, nil
}

func (s *Postgres) GetByUserID(ctx context.Context, userID string) (*models.EnrollmentRecord, error) {
	rec, err := scanEnrollment(s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment by user id: %w", err)
	}
	return rec, nil
}

func (s *Postgres) GetByEmail(ctx context.Context, email string) (*models.EnrollmentRecord, error) {
	rec, err := scanEnrollment(s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment by email: %w", err)
	}
	return rec, nil
}

type enrollmentRow interface {
	Scan(dest ...any) error
}

func scanEnrollment(row enrollmentRow) (*models.EnrollmentRecord, error) {
	var rec models.EnrollmentRecord
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Name,
		&rec.Email,
		&rec.EmbeddingCiphertext,
		&rec.NonceB64,
		&rec.SnapshotPath,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
