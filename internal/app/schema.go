package app

import (
	"context"

	"github.com/storably/storage-service/internal/utils"
)

// Table definitions, applied in dependency order on startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		unit_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		city TEXT NOT NULL,
		address_link TEXT NOT NULL,
		status TEXT NOT NULL,
		size_sqm DOUBLE PRECISION NOT NULL,
		base_rate DOUBLE PRECISION NOT NULL,
		monthly_rate DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL,
		climate_controlled BOOLEAN NOT NULL DEFAULT FALSE,
		floor_level TEXT NOT NULL,
		rental_duration_days INTEGER NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id),
		tenant_id UUID REFERENCES users(id),
		shared_user_emails TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		row_version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS units_name_city_idx
		ON units (LOWER(name), LOWER(city))`,
	`CREATE TABLE IF NOT EXISTS security_features (
		id UUID PRIMARY KEY,
		unit_id TEXT NOT NULL REFERENCES units(unit_id) ON DELETE CASCADE,
		feature_type TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (unit_id, feature_type)
	)`,
	`CREATE TABLE IF NOT EXISTS rentals (
		id UUID PRIMARY KEY,
		unit_id TEXT NOT NULL REFERENCES units(unit_id),
		tenant_id UUID NOT NULL REFERENCES users(id),
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		monthly_rate DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		shared_user_emails TEXT NOT NULL DEFAULT '[]',
		total_cost DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS rentals_unit_id_idx ON rentals (unit_id)`,
	`CREATE INDEX IF NOT EXISTS rentals_tenant_id_idx ON rentals (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS blacklisted_tokens (
		id UUID PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS blacklisted_tokens_expires_at_idx
		ON blacklisted_tokens (expires_at)`,
}

// EnsureSchema creates any missing tables and indexes. Statements are
// idempotent so repeated startups are safe.
func (a *App) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := a.DB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	utils.Logger.Info("Database schema is up to date.")
	return nil
}
