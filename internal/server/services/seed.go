package services

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/dbx"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/dmitrijs2005/assetflow/internal/server/repositories/repomanager"
)

//go:embed seed.json
var seedJSON []byte

// Seed fills an empty database with demo users and records. It reports
// whether anything was inserted; a non-empty database is left alone.
func Seed(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, now time.Time) (bool, error) {
	var data map[string][]models.Document
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		return false, fmt.Errorf("decode seed: %w", err)
	}

	today := now.Format("2006-01-02")
	relative := map[string]map[string]string{
		"loans": {
			"loan_date":            today,
			"expected_return_date": now.AddDate(0, 0, 30).Format("2006-01-02"),
		},
		"maintenances": {
			"scheduled_date": now.AddDate(0, 0, 4).Format("2006-01-02"),
		},
	}

	seeded := false
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := rm.Records(tx)
		n, err := repo.Count(ctx)
		if err != nil || n > 0 {
			return err
		}
		for _, collection := range models.Collections {
			for _, doc := range data[collection] {
				doc["created_date"] = models.Timestamp(now)
				for k, v := range relative[collection] {
					doc[k] = v
				}
				if err := repo.Insert(ctx, collection, doc); err != nil {
					return fmt.Errorf("seed %s: %w", collection, err)
				}
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
