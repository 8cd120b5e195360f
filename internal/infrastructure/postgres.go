package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Users Table (dashboard accounts)
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			tenant_id INT DEFAULT 0,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// Tenants Table (one row per business customer)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id SERIAL PRIMARY KEY,
			company_name VARCHAR(255) NOT NULL,
			callee_number VARCHAR(32) UNIQUE NOT NULL,
			language VARCHAR(16) DEFAULT 'es-ES',
			voice VARCHAR(64) DEFAULT '',
			greeting TEXT DEFAULT '',
			business_hours JSONB DEFAULT '{}',
			faqs JSONB DEFAULT '[]',
			reference_docs JSONB DEFAULT '[]',
			company_info TEXT DEFAULT '',
			telegram_chat BIGINT DEFAULT 0,
			daily_call_cap INT DEFAULT 0,
			is_active BOOLEAN DEFAULT TRUE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}

	// Calls Table (durable call log, one row per call)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS calls (
			call_sid VARCHAR(64) PRIMARY KEY,
			tenant_id INT NOT NULL,
			caller_number VARCHAR(32) NOT NULL,
			callee_number VARCHAR(32) NOT NULL DEFAULT '',
			transcript TEXT DEFAULT '',
			recording_url TEXT DEFAULT '',
			duration_seconds INT DEFAULT 0,
			status VARCHAR(32) DEFAULT 'in-progress',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			ended_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create calls table: %w", err)
	}

	// Conversation Turns Table (audit trail, never read on the hot path)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversation_turns (
			id SERIAL PRIMARY KEY,
			call_sid VARCHAR(64) NOT NULL,
			speaker VARCHAR(16) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create conversation_turns table: %w", err)
	}

	// Call Usage Table (per-tenant daily counters for quotas and stats)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS call_usage (
			tenant_id INT NOT NULL,
			date DATE NOT NULL,
			calls_answered INT DEFAULT 0,
			seconds_total INT DEFAULT 0,
			PRIMARY KEY (tenant_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("create call_usage table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
