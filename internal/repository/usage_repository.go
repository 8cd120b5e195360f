package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository tracks per-tenant daily call counters, used both for the
// dashboard and for the answered-call quota check at greeting time.
type UsageRepository struct {
	db *pgxpool.Pool
}

type DailyCallUsage struct {
	Date          time.Time `json:"date"`
	CallsAnswered int       `json:"calls_answered"`
	SecondsTotal  int       `json:"seconds_total"`
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementAnswered counts one answered call for today.
func (r *UsageRepository) IncrementAnswered(ctx context.Context, tenantID int) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(ctx, `
		INSERT INTO call_usage (tenant_id, date, calls_answered, seconds_total)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (tenant_id, date)
		DO UPDATE SET calls_answered = call_usage.calls_answered + 1
	`, tenantID, today)
	return err
}

// AddSeconds adds a finished call's duration to today's total.
func (r *UsageRepository) AddSeconds(ctx context.Context, tenantID, seconds int) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(ctx, `
		INSERT INTO call_usage (tenant_id, date, calls_answered, seconds_total)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (tenant_id, date)
		DO UPDATE SET seconds_total = call_usage.seconds_total + $3
	`, tenantID, today, seconds)
	return err
}

// GetTodayAnswered returns how many calls were answered today. Missing row
// means zero usage, not an error.
func (r *UsageRepository) GetTodayAnswered(ctx context.Context, tenantID int) (int, error) {
	today := time.Now().Format("2006-01-02")
	var answered int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(calls_answered, 0) FROM call_usage
		WHERE tenant_id = $1 AND date = $2
	`, tenantID, today).Scan(&answered)
	if err != nil {
		return 0, nil
	}
	return answered, nil
}

// GetUsageHistory returns the last N days of call usage.
func (r *UsageRepository) GetUsageHistory(ctx context.Context, tenantID, days int) ([]DailyCallUsage, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := r.db.Query(ctx, `
		SELECT date, calls_answered, seconds_total
		FROM call_usage
		WHERE tenant_id = $1 AND date >= $2
		ORDER BY date ASC
	`, tenantID, startDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := []DailyCallUsage{}
	for rows.Next() {
		var u DailyCallUsage
		if err := rows.Scan(&u.Date, &u.CallsAnswered, &u.SecondsTotal); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// CanAnswerCall checks the tenant's daily answered-call cap (0 = unlimited).
func (r *UsageRepository) CanAnswerCall(ctx context.Context, tenantID, dailyCap int) (bool, error) {
	if dailyCap <= 0 {
		return true, nil
	}
	answered, err := r.GetTodayAnswered(ctx, tenantID)
	if err != nil {
		return true, err
	}
	return answered < dailyCap, nil
}
