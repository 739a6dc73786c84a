package db

import (
	"fmt"

	"gorm.io/gorm"

	"complaint-service/internal/config"
	"complaint-service/internal/model"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_status') THEN
			CREATE TYPE complaint_status AS ENUM ('PENDING', 'IN_PROGRESS', 'RESOLVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_category') THEN
			CREATE TYPE complaint_category AS ENUM (
				'ROAD_DAMAGE', 'STREET_LIGHT', 'GARBAGE_COLLECTION', 'WATER_SUPPLY', 'DRAINAGE',
				'ILLEGAL_CONSTRUCTION', 'NOISE_POLLUTION', 'PUBLIC_PROPERTY_DAMAGE', 'OTHER'
			);
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS zones (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		code VARCHAR(10) NOT NULL UNIQUE,
		description TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		role VARCHAR(32) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		mobile_number VARCHAR(15) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		address TEXT,
		pin_code VARCHAR(10),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		zone_id INTEGER REFERENCES zones(id) ON DELETE RESTRICT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_users_super_admin_zone CHECK (role <> 'SUPER_ADMIN' OR zone_id IS NULL)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_zone_id ON users (zone_id);`,
	`CREATE TABLE IF NOT EXISTS complaint_sequences (
		zone_id INTEGER NOT NULL REFERENCES zones(id) ON DELETE RESTRICT,
		year INTEGER NOT NULL,
		current_value INTEGER NOT NULL,
		PRIMARY KEY (zone_id, year)
	);`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		complaint_number VARCHAR(64) NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category complaint_category NOT NULL,
		status complaint_status NOT NULL DEFAULT 'PENDING',
		latitude NUMERIC(10, 8) CHECK (latitude BETWEEN -90 AND 90),
		longitude NUMERIC(11, 8) CHECK (longitude BETWEEN -180 AND 180),
		location_note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_user_id ON complaints (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_user_created ON complaints (user_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status_created ON complaints (status, created_at);`,
	`CREATE TABLE IF NOT EXISTS complaint_attachments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		content_type VARCHAR(50) NOT NULL CHECK (content_type IN ('image/jpeg', 'image/png', 'image/webp')),
		file_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL CHECK (file_size > 0 AND file_size <= 2097152),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_attachments_complaint_id ON complaint_attachments (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS attachment_contents (
		id UUID PRIMARY KEY,
		content_type VARCHAR(50) NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS complaint_status_log (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		old_status complaint_status,
		new_status complaint_status NOT NULL,
		changed_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_status_log_complaint_id ON complaint_status_log (complaint_id);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_updated_at') THEN
			CREATE TRIGGER trg_complaints_updated_at
				BEFORE UPDATE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
	`CREATE OR REPLACE FUNCTION delete_attachment_content()
	RETURNS TRIGGER AS $$
	BEGIN
		DELETE FROM attachment_contents WHERE id = OLD.id;
		RETURN OLD;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaint_attachments_content') THEN
			CREATE TRIGGER trg_complaint_attachments_content
				AFTER DELETE ON complaint_attachments
				FOR EACH ROW
				EXECUTE PROCEDURE delete_attachment_content();
		END IF;
	END
	$$;`,
}

// sqliteAttachmentCleanup removes database-held payloads together with their metadata rows.
const sqliteAttachmentCleanup = `CREATE TRIGGER IF NOT EXISTS trg_complaint_attachments_content
AFTER DELETE ON complaint_attachments
FOR EACH ROW
BEGIN
	DELETE FROM attachment_contents WHERE id = OLD.id;
END;`

// Migrate brings the schema up to date. Postgres gets the hand-written schema with enum types,
// checks and triggers; sqlite (local runs and tests) is migrated from the gorm models.
func Migrate(database *gorm.DB, driver string) error {
	if driver == config.DriverSQLite {
		return AutoMigrate(database)
	}
	return runMigrations(database)
}

// AutoMigrate builds the sqlite schema from the models.
func AutoMigrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&model.Zone{},
		&model.User{},
		&model.ComplaintSequence{},
		&model.Complaint{},
		&model.Attachment{},
		&model.ComplaintStatusLog{},
		&model.AttachmentContent{},
	); err != nil {
		return err
	}
	return database.Exec(sqliteAttachmentCleanup).Error
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
