package journal

import (
	"context"

	"github.com/rotisserie/eris"
)

// Open creates a Journal for the configured driver and runs migrations.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Journal, error) {
	var (
		j   Journal
		err error
	)
	switch driver {
	case "", "sqlite":
		j, err = NewSQLite(dsn)
	case "postgres":
		j, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("journal: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}
