package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/study-group-api/internal/models"
	"gorm.io/gorm"
)

// requiredIndex names an index declared in model tags that queries rely on.
type requiredIndex struct {
	model interface{}
	name  string
}

var requiredIndexes = []requiredIndex{
	// Task listing by group, optionally filtered by status
	{&models.Task{}, "idx_tasks_group_status"},
	{&models.Task{}, "DueDate"},

	// Membership lookups by user for group listing
	{&models.GroupMember{}, "UserID"},

	// Group listing order
	{&models.Group{}, "CreatedAt"},
}

// EnsureIndexes creates any required index AutoMigrate did not.
func EnsureIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range requiredIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", slog.String("index", idx.name))
	}

	return nil
}
