package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leadripper/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Job struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	TotalCount     int        `json:"totalCount"`
	ProcessedCount int        `json:"processedCount"`
	CheckSMTP      bool       `json:"checkSMTP"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// ResultRow is one stored address. Data is the full ValidationResult JSON.
type ResultRow struct {
	Email          string          `json:"email"`
	Verified       bool            `json:"verified"`
	Score          int             `json:"score"`
	Warnings       string          `json:"warnings"`
	Disposable     bool            `json:"disposable"`
	RoleBased      bool            `json:"roleBased"`
	Recommendation string          `json:"recommendation"`
	Data           json.RawMessage `json:"data"`
}

type Stats struct {
	TotalLeads       int     `json:"totalLeads"`
	VerifiedEmails   int     `json:"verifiedEmails"`
	DisposableEmails int     `json:"disposableEmails"`
	RoleBasedEmails  int     `json:"roleBasedEmails"`
	AverageScore     int     `json:"averageScore"`
	VerificationRate float64 `json:"verificationRate"`
}

func (s *Store) CreateJob(ctx context.Context, id string, total int, checkSMTP bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, total_count, check_smtp, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, StatusPending, total, checkSMTP, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", id, err)
	}
	return nil
}

// SaveResult stores one result and advances the job's progress in the same
// transaction; the job is marked completed when the last address lands.
func (s *Store) SaveResult(ctx context.Context, jobID string, res models.ValidationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO results (job_id, email, verified, score, warnings, disposable, role_based, recommendation, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, jobID, res.Email, res.Valid, res.Score, strings.Join(res.Warnings, "; "),
		res.Checks.Disposable, res.Checks.RoleBased, string(res.Recommendation), data)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE jobs
		SET processed_count = processed_count + 1,
		    status = CASE WHEN processed_count + 1 >= total_count THEN $2 ELSE status END,
		    completed_at = CASE WHEN processed_count + 1 >= total_count THEN NOW() ELSE completed_at END
		WHERE id = $1
	`, jobID, StatusCompleted)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (Job, error) {
	var job Job
	err := s.pool.QueryRow(ctx, `
		SELECT id, status, total_count, processed_count, check_smtp, created_at, completed_at
		FROM jobs
		WHERE id = $1
	`, id).Scan(&job.ID, &job.Status, &job.TotalCount, &job.ProcessedCount, &job.CheckSMTP, &job.CreatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ListResults returns rows in the order they were saved; never nil.
func (s *Store) ListResults(ctx context.Context, jobID string) ([]ResultRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email, verified, score, warnings, disposable, role_based, recommendation, data
		FROM results
		WHERE job_id = $1
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []ResultRow{}
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.Email, &r.Verified, &r.Score, &r.Warnings, &r.Disposable, &r.RoleBased, &r.Recommendation, &r.Data); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// JobStats aggregates the stored results. The average only counts scored
// addresses, so syntax failures do not drag it down.
func (s *Store) JobStats(ctx context.Context, jobID string) (Stats, error) {
	var total, verified, disposable, role int
	var avg *float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verified),
		       COUNT(*) FILTER (WHERE disposable),
		       COUNT(*) FILTER (WHERE role_based),
		       (AVG(score) FILTER (WHERE score > 0))::float8
		FROM results
		WHERE job_id = $1
	`, jobID).Scan(&total, &verified, &disposable, &role, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("job stats: %w", err)
	}

	var mean float64
	if avg != nil {
		mean = *avg
	}
	return NewStats(total, verified, disposable, role, mean), nil
}

// NewStats rounds the average to an integer and the verification rate to
// one decimal place of a percentage.
func NewStats(total, verified, disposable, role int, avgScore float64) Stats {
	st := Stats{
		TotalLeads:       total,
		VerifiedEmails:   verified,
		DisposableEmails: disposable,
		RoleBasedEmails:  role,
		AverageScore:     int(math.Round(avgScore)),
	}
	if total > 0 {
		st.VerificationRate = math.Round(float64(verified)/float64(total)*1000) / 10
	}
	return st
}
