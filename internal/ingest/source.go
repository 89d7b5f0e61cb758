package ingest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/pkg/config"
	"github.com/wonny/revcast/pkg/database"
)

// Open returns the history source selected by SOURCE
func Open(cfg *config.Config, db *database.DB, log zerolog.Logger) (contracts.HistorySource, error) {
	switch cfg.Data.Source {
	case config.SourceCSV:
		return NewCSVSource(cfg.Data.RawDir(), log), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("source %q requires a database connection", cfg.Data.Source)
		}
		return NewRepository(db.Pool, log), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Data.Source)
	}
}
