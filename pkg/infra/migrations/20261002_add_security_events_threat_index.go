package migrations

import (
	"github.com/rimareum/gatekeeper/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20261002_add_security_events_threat_index",
		Name: "Index blocked security events by threat type",

		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_security_events_blocked_threat
				ON security_events (threat_type, occurred_at DESC)
				WHERE blocked;
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_security_events_blocked_threat;`).Error
		},
	})
}
