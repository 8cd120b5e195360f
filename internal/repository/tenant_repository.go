package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voicedesk/internal/entities"
)

// TenantRepository loads and saves per-tenant call configuration. The call
// pipeline only ever reads through the config cache; writes come from the
// dashboard.
type TenantRepository struct {
	db *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `id, company_name, callee_number, language, voice, greeting,
	business_hours, faqs, reference_docs, company_info, telegram_chat, daily_call_cap`

// GetByCallee resolves the tenant owning a called number. Returns (nil, nil)
// when the number is unmapped or the tenant is deactivated.
func (r *TenantRepository) GetByCallee(ctx context.Context, calleeNumber string) (*entities.TenantCallConfig, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM tenants WHERE callee_number = $1 AND is_active = TRUE", tenantColumns),
		calleeNumber)
	return scanTenant(row)
}

// GetByID loads a tenant config regardless of active flag (dashboard use).
func (r *TenantRepository) GetByID(ctx context.Context, tenantID int) (*entities.TenantCallConfig, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM tenants WHERE id = $1", tenantColumns),
		tenantID)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (*entities.TenantCallConfig, error) {
	var cfg entities.TenantCallConfig
	var hours, faqs, docs []byte

	err := row.Scan(&cfg.TenantID, &cfg.CompanyName, &cfg.CalleeNumber, &cfg.Language,
		&cfg.Voice, &cfg.Greeting, &hours, &faqs, &docs, &cfg.CompanyInfo,
		&cfg.TelegramChat, &cfg.DailyCallCap)
	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(hours, &cfg.BusinessHours); err != nil {
		return nil, fmt.Errorf("decode business_hours: %w", err)
	}
	if err := json.Unmarshal(faqs, &cfg.FAQs); err != nil {
		return nil, fmt.Errorf("decode faqs: %w", err)
	}
	if err := json.Unmarshal(docs, &cfg.ReferenceDocs); err != nil {
		return nil, fmt.Errorf("decode reference_docs: %w", err)
	}
	return &cfg, nil
}

// Create inserts a tenant and returns its id.
func (r *TenantRepository) Create(ctx context.Context, cfg *entities.TenantCallConfig) error {
	hours, faqs, docs, err := encodeTenantJSON(cfg)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO tenants (company_name, callee_number, language, voice, greeting,
			business_hours, faqs, reference_docs, company_info, telegram_chat, daily_call_cap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, cfg.CompanyName, cfg.CalleeNumber, cfg.Language, cfg.Voice, cfg.Greeting,
		hours, faqs, docs, cfg.CompanyInfo, cfg.TelegramChat, cfg.DailyCallCap).Scan(&cfg.TenantID)
}

// Update persists dashboard edits. The caller is responsible for
// invalidating the config cache afterwards.
func (r *TenantRepository) Update(ctx context.Context, cfg *entities.TenantCallConfig) error {
	hours, faqs, docs, err := encodeTenantJSON(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE tenants SET company_name=$1, language=$2, voice=$3, greeting=$4,
			business_hours=$5, faqs=$6, reference_docs=$7, company_info=$8,
			telegram_chat=$9, daily_call_cap=$10, updated_at=NOW()
		WHERE id=$11
	`, cfg.CompanyName, cfg.Language, cfg.Voice, cfg.Greeting,
		hours, faqs, docs, cfg.CompanyInfo, cfg.TelegramChat, cfg.DailyCallCap, cfg.TenantID)
	return err
}

// SetActive toggles whether a tenant's number is answered at all.
func (r *TenantRepository) SetActive(ctx context.Context, tenantID int, active bool) error {
	_, err := r.db.Exec(ctx, "UPDATE tenants SET is_active=$1, updated_at=NOW() WHERE id=$2", active, tenantID)
	return err
}

func encodeTenantJSON(cfg *entities.TenantCallConfig) (hours, faqs, docs []byte, err error) {
	if cfg.BusinessHours == nil {
		cfg.BusinessHours = entities.BusinessHours{}
	}
	if cfg.FAQs == nil {
		cfg.FAQs = []entities.FAQ{}
	}
	if cfg.ReferenceDocs == nil {
		cfg.ReferenceDocs = []entities.ReferenceDoc{}
	}
	if hours, err = json.Marshal(cfg.BusinessHours); err != nil {
		return nil, nil, nil, fmt.Errorf("encode business_hours: %w", err)
	}
	if faqs, err = json.Marshal(cfg.FAQs); err != nil {
		return nil, nil, nil, fmt.Errorf("encode faqs: %w", err)
	}
	if docs, err = json.Marshal(cfg.ReferenceDocs); err != nil {
		return nil, nil, nil, fmt.Errorf("encode reference_docs: %w", err)
	}
	return hours, faqs, docs, nil
}
