// Package credentials keeps the two durable tokens the console owns: the
// confirmed identity (the signed-in email) and the provisional email of a
// sign-in that has not completed yet.
package credentials

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/assetflow/internal/dbx"
)

const (
	identityKey = "auth_email"
	pendingKey  = "pending_email"
)

// Tokens reads and writes the tokens in the local metadata table.
// It satisfies api.IdentitySource.
type Tokens struct {
	db   *sql.DB
	repo metadata.Repository
}

func NewTokens(db *sql.DB) *Tokens {
	return &Tokens{db: db, repo: metadata.NewSQLiteRepository(db)}
}

func (t *Tokens) get(ctx context.Context, key string) (string, error) {
	v, err := t.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(v)), nil
}

func (t *Tokens) set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return t.repo.Delete(ctx, key)
	}
	return t.repo.Set(ctx, key, []byte(value))
}

// Identity returns the confirmed identity token, "" when none is stored.
func (t *Tokens) Identity(ctx context.Context) (string, error) {
	return t.get(ctx, identityKey)
}

func (t *Tokens) SetIdentity(ctx context.Context, email string) error {
	return t.set(ctx, identityKey, email)
}

func (t *Tokens) ClearIdentity(ctx context.Context) error {
	return t.repo.Delete(ctx, identityKey)
}

// Pending returns the provisional token, "" when none is stored.
func (t *Tokens) Pending(ctx context.Context) (string, error) {
	return t.get(ctx, pendingKey)
}

func (t *Tokens) SetPending(ctx context.Context, email string) error {
	return t.set(ctx, pendingKey, email)
}

func (t *Tokens) ClearPending(ctx context.Context) error {
	return t.repo.Delete(ctx, pendingKey)
}

// Clear removes both tokens in one transaction.
func (t *Tokens) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, identityKey); err != nil {
			return err
		}
		return repo.Delete(ctx, pendingKey)
	})
}
