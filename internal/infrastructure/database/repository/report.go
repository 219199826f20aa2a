package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"honeytrap-lab/internal/domain/models"
)

// SessionReport is one archived final report row
type SessionReport struct {
	ID            uuid.UUID                 `json:"id"`
	SessionID     string                    `json:"session_id"`
	Status        models.SessionStatus      `json:"status"`
	ScamDetected  bool                      `json:"scam_detected"`
	ScamType      string                    `json:"scam_type,omitempty"`
	Confidence    float64                   `json:"confidence"`
	MessageCount  int                       `json:"message_count"`
	DurationSecs  int                       `json:"duration_secs"`
	Intelligence  models.IntelligenceReport `json:"intelligence"`
	AgentNotes    []string                  `json:"agent_notes"`
	CompletedAt   time.Time                 `json:"completed_at"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// ReportRepository archives finalized session reports
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// EnsureSchema creates the reports table when it does not exist
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS session_reports (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			status TEXT NOT NULL,
			scam_detected BOOLEAN NOT NULL,
			scam_type TEXT,
			confidence DOUBLE PRECISION NOT NULL,
			message_count INT NOT NULL,
			duration_secs INT NOT NULL,
			intelligence JSONB NOT NULL,
			agent_notes JSONB NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_session_reports_session_id ON session_reports (session_id);`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure session_reports schema: %w", err)
	}
	return nil
}

// Save archives one finalized session
func (r *ReportRepository) Save(ctx context.Context, session *models.Session) (*SessionReport, error) {
	completedAt := time.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	report := &SessionReport{
		ID:           uuid.New(),
		SessionID:    session.ID,
		Status:       session.Status,
		ScamDetected: session.ScamDetected,
		ScamType:     session.ScamType,
		Confidence:   session.ScamConfidence,
		MessageCount: session.MessageCount,
		DurationSecs: int(session.EngagementDuration().Seconds()),
		Intelligence: session.Intelligence,
		AgentNotes:   session.AgentNotes,
		CompletedAt:  completedAt,
		CreatedAt:    time.Now(),
	}

	intelJSON, err := json.Marshal(report.Intelligence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intelligence: %w", err)
	}
	notesJSON, err := json.Marshal(report.AgentNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent notes: %w", err)
	}

	query := `
		INSERT INTO session_reports (
			id, session_id, status, scam_detected, scam_type, confidence,
			message_count, duration_secs, intelligence, agent_notes,
			completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.pool.Exec(ctx, query,
		report.ID, report.SessionID, report.Status, report.ScamDetected,
		report.ScamType, report.Confidence, report.MessageCount,
		report.DurationSecs, intelJSON, notesJSON,
		report.CompletedAt, report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save session report: %w", err)
	}

	return report, nil
}

// GetBySessionID returns the most recent archived report for a session
func (r *ReportRepository) GetBySessionID(ctx context.Context, sessionID string) (*SessionReport, error) {
	query := `
		SELECT id, session_id, status, scam_detected, scam_type, confidence,
			   message_count, duration_secs, intelligence, agent_notes,
			   completed_at, created_at
		FROM session_reports
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanReport(r.pool.QueryRow(ctx, query, sessionID))
}

// ListRecent returns the latest archived reports
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]*SessionReport, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, status, scam_detected, scam_type, confidence,
			   message_count, duration_secs, intelligence, agent_notes,
			   completed_at, created_at
		FROM session_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list session reports: %w", err)
	}
	defer rows.Close()

	var reports []*SessionReport
	for rows.Next() {
		report, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) scanReport(row pgx.Row) (*SessionReport, error) {
	var report SessionReport
	var intelJSON, notesJSON []byte

	err := row.Scan(
		&report.ID, &report.SessionID, &report.Status, &report.ScamDetected,
		&report.ScamType, &report.Confidence, &report.MessageCount,
		&report.DurationSecs, &intelJSON, &notesJSON,
		&report.CompletedAt, &report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session report: %w", err)
	}

	if err := json.Unmarshal(intelJSON, &report.Intelligence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intelligence: %w", err)
	}
	if err := json.Unmarshal(notesJSON, &report.AgentNotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent notes: %w", err)
	}
	return &report, nil
}
