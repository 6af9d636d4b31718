package migrations

import (
	"github.com/rimareum/gatekeeper/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20261001_create_security_events_table",
		Name: "Create security_events table for the audit trail",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS security_events (
					id          UUID PRIMARY KEY,
					trace_id    TEXT,
					occurred_at TIMESTAMPTZ NOT NULL,
					ip          TEXT NOT NULL,
					user_agent  TEXT,
					path        TEXT,
					method      TEXT,
					threat_type TEXT NOT NULL,
					severity    TEXT NOT NULL,
					blocked     BOOLEAN NOT NULL DEFAULT FALSE,
					risk_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
					reasons     TEXT[],
					details     JSONB
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_security_events_occurred_at
				ON security_events (occurred_at DESC);
			`).Error; err != nil {
				return err
			}

			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_security_events_ip
				ON security_events (ip);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS security_events;`).Error
		},
	})
}
