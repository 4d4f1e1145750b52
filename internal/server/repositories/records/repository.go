package records

import (
	"context"

	"github.com/dmitrijs2005/assetflow/internal/server/models"
)

// Repository stores documents grouped by collection. Lookups of a missing
// document return common.ErrorNotFound.
type Repository interface {
	// List returns the documents of collection, newest created_date first.
	List(ctx context.Context, collection string) ([]models.Document, error)
	Get(ctx context.Context, collection, id string) (models.Document, error)
	// FindBy returns the first document whose field equals value.
	FindBy(ctx context.Context, collection, field, value string) (models.Document, error)
	Insert(ctx context.Context, collection string, doc models.Document) error
	Replace(ctx context.Context, collection string, doc models.Document) error
	Delete(ctx context.Context, collection, id string) error
	Count(ctx context.Context) (int, error)
}
