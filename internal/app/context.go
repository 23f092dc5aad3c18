package app

import (
	"context"
	"database/sql"
	"fmt"

	"northstar/internal/config"
	"northstar/internal/db"
	"northstar/internal/engine"
	"northstar/internal/migrate"
)

// App bundles the opened workspace: database, engine, and optional config.
type App struct {
	DB     *sql.DB
	Engine engine.Engine
	Config *config.Config
}

// Open prepares the workspace: opens the database, applies migrations, loads
// northstar.yml when present, and seeds the directory from it.
func Open(ctx context.Context, workspace string) (*App, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	e := engine.New(conn, cfg)
	if cfg != nil {
		if err := e.SeedDirectory(ctx, cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("seed directory: %w", err)
		}
	}
	return &App{DB: conn, Engine: e, Config: cfg}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
