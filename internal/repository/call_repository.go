package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voicedesk/internal/entities"
)

// CallRepository is the durable call log. Everything here is append-style:
// the controller re-derives turn state from the call SID, it never reads
// history back mid-call.
type CallRepository struct {
	db *pgxpool.Pool
}

func NewCallRepository(db *pgxpool.Pool) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) CreateCall(ctx context.Context, rec *entities.CallRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO calls (call_sid, tenant_id, caller_number, callee_number, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (call_sid) DO NOTHING
	`, rec.CallSID, rec.TenantID, rec.CallerNumber, rec.CalleeNumber, rec.Status)
	return err
}

func (r *CallRepository) AppendTurn(ctx context.Context, turn *entities.ConversationTurn) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_turns (call_sid, speaker, content)
		VALUES ($1, $2, $3)
	`, turn.CallSID, turn.Speaker, turn.Content)
	return err
}

// AppendTranscript concatenates the caller's latest utterance onto the call
// row and records where the recording lives.
func (r *CallRepository) AppendTranscript(ctx context.Context, callSID, text, recordingURL string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE calls
		SET transcript = CASE WHEN transcript = '' THEN $2 ELSE transcript || E'\n' || $2 END,
		    recording_url = $3
		WHERE call_sid = $1
	`, callSID, text, recordingURL)
	return err
}

func (r *CallRepository) FinishCall(ctx context.Context, callSID, status string, durationSeconds int, endedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE calls SET status=$2, duration_seconds=$3, ended_at=$4
		WHERE call_sid=$1
	`, callSID, status, durationSeconds, endedAt)
	return err
}

func (r *CallRepository) GetCall(ctx context.Context, callSID string) (*entities.CallRecord, error) {
	var rec entities.CallRecord
	err := r.db.QueryRow(ctx, `
		SELECT call_sid, tenant_id, caller_number, callee_number, transcript, recording_url,
		       duration_seconds, status, created_at, ended_at
		FROM calls WHERE call_sid = $1
	`, callSID).Scan(&rec.CallSID, &rec.TenantID, &rec.CallerNumber, &rec.CalleeNumber, &rec.Transcript,
		&rec.RecordingURL, &rec.DurationSeconds, &rec.Status, &rec.CreatedAt, &rec.EndedAt)
	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCalls returns the tenant's most recent calls for the dashboard.
func (r *CallRepository) ListCalls(ctx context.Context, tenantID, limit int) ([]entities.CallRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT call_sid, tenant_id, caller_number, callee_number, transcript, recording_url,
		       duration_seconds, status, created_at, ended_at
		FROM calls WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := []entities.CallRecord{}
	for rows.Next() {
		var rec entities.CallRecord
		if err := rows.Scan(&rec.CallSID, &rec.TenantID, &rec.CallerNumber, &rec.CalleeNumber, &rec.Transcript,
			&rec.RecordingURL, &rec.DurationSeconds, &rec.Status, &rec.CreatedAt, &rec.EndedAt); err != nil {
			return nil, err
		}
		calls = append(calls, rec)
	}
	return calls, rows.Err()
}

// ListTurns returns the audit trail for one call.
func (r *CallRepository) ListTurns(ctx context.Context, callSID string) ([]entities.ConversationTurn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT call_sid, speaker, content, created_at
		FROM conversation_turns WHERE call_sid = $1
		ORDER BY id ASC
	`, callSID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []entities.ConversationTurn{}
	for rows.Next() {
		var t entities.ConversationTurn
		if err := rows.Scan(&t.CallSID, &t.Speaker, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
