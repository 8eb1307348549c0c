package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflections/internal/config"
)

func TestInitSchema_Idempotent(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "r.db")})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, InitSchema(db, "sqlite"))
	require.NoError(t, InitSchema(db, "sqlite"))

	for _, table := range []string{"users", "reflections"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}
}

func TestInitSchema_ExistingTables(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "legacy.db")})
	require.NoError(t, err)
	defer Close(db)

	// layout written by the earlier tool, without a migrations table
	_, err = db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (username, password, role) VALUES ('profesor', 'admin123', 'admin')`)
	require.NoError(t, err)

	require.NoError(t, InitSchema(db, "sqlite"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInitSchema_UpgradesLegacyReflections(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
	}{
		{
			name: "passphrase layout without user_id",
			layout: []string{
				`CREATE TABLE reflections (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					dificultad INTEGER NOT NULL,
					sentimiento INTEGER NOT NULL,
					seleccion TEXT NOT NULL,
					comentarios TEXT
				)`,
				`INSERT INTO reflections (dificultad, sentimiento, seleccion, comentarios) VALUES (2, 4, 'Time', 'old')`,
			},
		},
		{
			name: "accounts layout with required user_id",
			layout: []string{
				`CREATE TABLE users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					password TEXT NOT NULL,
					role TEXT NOT NULL
				)`,
				`INSERT INTO users (username, password, role) VALUES ('lopez', 'pass123', 'student')`,
				`CREATE TABLE reflections (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL,
					dificultad INTEGER NOT NULL,
					sentimiento INTEGER NOT NULL,
					seleccion TEXT NOT NULL,
					comentarios TEXT,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`INSERT INTO reflections (user_id, dificultad, sentimiento, seleccion, comentarios) VALUES (1, 2, 4, 'Time', 'old')`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "legacy.db")})
			require.NoError(t, err)
			defer Close(db)

			for _, stmt := range tt.layout {
				_, err := db.Exec(stmt)
				require.NoError(t, err)
			}

			require.NoError(t, InitSchema(db, "sqlite"))
			require.NoError(t, InitSchema(db, "sqlite"))

			var id int
			err = db.QueryRow(`INSERT INTO reflections (user_id, dificultad, sentimiento, seleccion, comentarios)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`, nil, 3, 3, "Other", "new").Scan(&id)
			require.NoError(t, err)
			assert.Equal(t, 2, id)

			var comment string
			require.NoError(t, db.QueryRow(`SELECT comentarios FROM reflections WHERE id = 1`).Scan(&comment))
			assert.Equal(t, "old", comment)

			cols, err := tableColumns(context.Background(), db, "reflections")
			require.NoError(t, err)
			require.Contains(t, cols, "user_id")
			assert.False(t, cols["user_id"].notNull)
		})
	}
}

func TestInitSchema_PostgresReleasesConnection(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, InitSchema(db, "postgres"))
	require.NoError(t, InitSchema(db, "postgres"))

	assert.Zero(t, db.Stats().InUse)
	require.NoError(t, db.Ping())
}

func TestInitSchema_UnknownDriver(t *testing.T) {
	assert.Error(t, InitSchema(nil, "oracle"))
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
