package db

import (
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Catalog (user-authored)
		// =========================
		&types.Merchant{},
		&types.Campaign{},
		&types.Project{},
		&types.RootCampaign{},
		&types.ProjectCampaignTag{},

		// =========================
		// Touch store (collector-written)
		// =========================
		&types.Touch{},

		// =========================
		// Analysis-derived state
		// =========================
		&types.PathAttribution{},
		&types.PathEvent{},
		&types.PathEdge{},
	)
}
