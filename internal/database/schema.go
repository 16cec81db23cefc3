package database

import (
	"context"
	"fmt"

	"blogrr/internal/config"
	"blogrr/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Post{},
	}
}

// ApplySchema creates or upgrades the schema. It is idempotent and safe to run on every startup.
func ApplySchema(ctx context.Context, db *gorm.DB, mode string) error {
	switch mode {
	case config.SchemaModeAuto, "":
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		return nil
	case config.SchemaModeSQL:
		return RunMigrations(ctx, db)
	default:
		return fmt.Errorf("unsupported schema mode %q", mode)
	}
}
