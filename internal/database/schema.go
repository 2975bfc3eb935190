package database

import (
	"context"

	"gorm.io/gorm"
)

// TableStatus reports whether a model's table is present.
type TableStatus struct {
	Model  string
	Table  string
	Exists bool
}

// SchemaStatus lists every persistent model with the presence of its table.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	migrator := db.WithContext(ctx).Migrator()
	statuses := make([]TableStatus, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		statuses = append(statuses, TableStatus{
			Model:  stmt.Schema.Name,
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(model),
		})
	}
	return statuses, nil
}

// Pending reports whether any table in statuses is missing.
func Pending(statuses []TableStatus) bool {
	for _, s := range statuses {
		if !s.Exists {
			return true
		}
	}
	return false
}
