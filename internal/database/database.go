package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"reflections/internal/config"
)

//go:embed migrations
var migrations embed.FS

// Open connects to the configured store and checks the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

// InitSchema creates the users and reflections tables when they are missing.
// Running it against an initialized database is a no-op. SQLite files left
// by the older tools are upgraded in place, see upgradeLegacyReflections.
func InitSchema(db *sql.DB, driver string) error {
	ctx := context.Background()

	var (
		target database.Driver
		err    error
	)

	switch driver {
	case "sqlite":
		// the sqlite driver keeps db itself, so m must not be closed
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	case "postgres":
		// postgres pins one connection for its lock; m.Close hands it back
		var conn *sql.Conn
		conn, err = db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("reserving migration connection: %w", err)
		}
		target, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
		}
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("preparing migration target: %w", err)
	}

	source, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("loading schema files: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	upErr := m.Up()
	if driver == "postgres" {
		if srcErr, dbErr := m.Close(); dbErr != nil || srcErr != nil {
			return fmt.Errorf("closing migrator: %w", errors.Join(srcErr, dbErr))
		}
	}
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("applying schema: %w", upErr)
	}

	if driver == "sqlite" {
		if err := upgradeLegacyReflections(ctx, db); err != nil {
			return fmt.Errorf("upgrading reflections table: %w", err)
		}
	}

	return nil
}

type column struct {
	notNull bool
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]column, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, "notnull" FROM pragma_table_info($1)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]column)
	for rows.Next() {
		var (
			name    string
			notNull int
		)
		if err := rows.Scan(&name, &notNull); err != nil {
			return nil, err
		}
		cols[name] = column{notNull: notNull != 0}
	}

	return cols, rows.Err()
}

// upgradeLegacyReflections fixes the user_id column of a reflections table
// that CREATE TABLE IF NOT EXISTS left alone. The passphrase-only tool wrote
// no user_id at all, the accounts tool declared it NOT NULL. Both must
// accept a nullable owner.
func upgradeLegacyReflections(ctx context.Context, db *sql.DB) error {
	cols, err := tableColumns(ctx, db, "reflections")
	if err != nil {
		return err
	}

	userID, ok := cols["user_id"]
	switch {
	case !ok:
		_, err = db.ExecContext(ctx, `ALTER TABLE reflections ADD COLUMN user_id INTEGER REFERENCES users(id)`)
		return err
	case userID.notNull:
		return rebuildReflections(ctx, db)
	default:
		return nil
	}
}

// rebuildReflections recreates the table with a nullable user_id, since
// SQLite cannot drop a NOT NULL constraint in place. Ids are kept.
func rebuildReflections(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE reflections_upgrade (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			dificultad INTEGER NOT NULL,
			sentimiento INTEGER NOT NULL,
			seleccion TEXT NOT NULL,
			comentarios TEXT
		)`,
		`INSERT INTO reflections_upgrade (id, user_id, dificultad, sentimiento, seleccion, comentarios)
			SELECT id, user_id, dificultad, sentimiento, seleccion, comentarios FROM reflections`,
		`DROP TABLE reflections`,
		`ALTER TABLE reflections_upgrade RENAME TO reflections`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
