package repository

import (
	"context"
	"database/sql"
	"fmt"

	"reflections/internal/entity"
)

type ReflectionRepository struct {
	db *sql.DB
}

func NewReflectionRepository(db *sql.DB) *ReflectionRepository {
	return &ReflectionRepository{db: db}
}

// Insert appends a reflection and returns its id. A nil UserID stores an
// anonymous reflection.
func (r *ReflectionRepository) Insert(ctx context.Context, ref entity.Reflection) (int, error) {
	var userID sql.NullInt64
	if ref.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*ref.UserID), Valid: true}
	}

	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reflections (user_id, dificultad, sentimiento, seleccion, comentarios)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID, ref.Difficulty, ref.Sentiment, string(ref.Category), ref.Comment).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting reflection: %w", err)
	}

	return id, nil
}

// ListForUser returns the reflections owned by userID, newest first.
func (r *ReflectionRepository) ListForUser(ctx context.Context, userID int) ([]entity.Reflection, error) {
	query := `
SELECT
    r.id,
    r.user_id,
    COALESCE(u.username, ''),
    r.dificultad,
    r.sentimiento,
    r.seleccion,
    COALESCE(r.comentarios, '')
FROM reflections r
LEFT JOIN users u ON u.id = r.user_id
WHERE r.user_id = $1
ORDER BY r.id DESC
`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReflections(rows)
}

// ListAll returns every reflection with its author's username, newest first.
// Anonymous reflections have an empty Username.
func (r *ReflectionRepository) ListAll(ctx context.Context) ([]entity.Reflection, error) {
	query := `
SELECT
    r.id,
    r.user_id,
    COALESCE(u.username, ''),
    r.dificultad,
    r.sentimiento,
    r.seleccion,
    COALESCE(r.comentarios, '')
FROM reflections r
LEFT JOIN users u ON u.id = r.user_id
ORDER BY r.id DESC
`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReflections(rows)
}

func scanReflections(rows *sql.Rows) ([]entity.Reflection, error) {
	refs := make([]entity.Reflection, 0)

	for rows.Next() {
		var (
			ref      entity.Reflection
			userID   sql.NullInt64
			category string
		)

		err := rows.Scan(
			&ref.ID,
			&userID,
			&ref.Username,
			&ref.Difficulty,
			&ref.Sentiment,
			&category,
			&ref.Comment,
		)
		if err != nil {
			return refs, err
		}

		if userID.Valid {
			id := int(userID.Int64)
			ref.UserID = &id
		}
		ref.Category = entity.Category(category)

		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return refs, err
	}

	return refs, nil
}
