package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// DBTracingConfig holds database tracing settings
type DBTracingConfig struct {
	Enabled bool
	DBName  string
}

// RegisterOtelGorm installs the otelgorm plugin so every query runs
// inside a child span of the request trace. Query variables are never
// recorded.
func RegisterOtelGorm(db *gorm.DB, cfg DBTracingConfig) error {
	if !cfg.Enabled {
		return nil
	}
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(cfg.DBName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}
	return nil
}
