package database

import (
	"time"

	"yatube/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "yatube:query_start"

// registerMetrics times every GORM operation into the query latency histogram.
func registerMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			observability.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Query().Before("gorm:query").Register("metrics:before_query", before) },
		func() error { return cb.Query().After("gorm:query").Register("metrics:after_query", after("query")) },
		func() error { return cb.Create().Before("gorm:create").Register("metrics:before_create", before) },
		func() error { return cb.Create().After("gorm:create").Register("metrics:after_create", after("create")) },
		func() error { return cb.Update().Before("gorm:update").Register("metrics:before_update", before) },
		func() error { return cb.Update().After("gorm:update").Register("metrics:after_update", after("update")) },
		func() error { return cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before) },
		func() error { return cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")) },
	}

	for _, register := range steps {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
