package storage

import (
	"context"
	"fmt"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
)

// Open opens the backend selected by cfg.StoreDriver and attaches the
// metrics recorder. Callers that must keep serving on failure wrap the
// error with NewUnavailable.
func Open(ctx context.Context, cfg *config.Config, recorder MetricsRecorder) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		db.SetMetrics(recorder)
		return db, nil
	case config.StoreDriverMongo:
		s, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.SetMetrics(recorder)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
