// Package records persists backend documents as JSON in SQLite.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/dbx"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context, collection string) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT document FROM records
		WHERE collection = ?
		ORDER BY json_extract(document, '$.created_date') DESC, rowid DESC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, collection, id string) (models.Document, error) {
	return r.one(ctx, `SELECT document FROM records WHERE collection = ? AND id = ?`, collection, id)
}

func (r *SQLiteRepository) FindBy(ctx context.Context, collection, field, value string) (models.Document, error) {
	return r.one(ctx, `
		SELECT document FROM records
		WHERE collection = ? AND json_extract(document, '$.' || ?) = ?
		LIMIT 1
	`, collection, field, value)
}

func (r *SQLiteRepository) one(ctx context.Context, query string, args ...any) (models.Document, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decode(raw)
}

func (r *SQLiteRepository) Insert(ctx context.Context, collection string, doc models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, document) VALUES (?, ?, ?)`,
		collection, doc.ID(), string(raw)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, collection string, doc models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET document = ? WHERE collection = ? AND id = ?`,
		string(raw), collection, doc.ID())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func decode(raw string) (models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
