package services

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/dbx"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/dmitrijs2005/assetflow/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var ErrUnknownCollection = errors.New("collection not found")

// NotFoundError names the collection a missing document was looked up in.
type NotFoundError struct {
	Collection string
}

func (e *NotFoundError) Error() string {
	return singular(e.Collection) + " not found"
}

func (e *NotFoundError) Unwrap() error { return common.ErrorNotFound }

var irregular = map[string]string{
	"properties": "Property",
	"activities": "Activity",
}

func singular(collection string) string {
	if s, ok := irregular[collection]; ok {
		return s
	}
	s := strings.TrimSuffix(collection, "s")
	if s == "" {
		return "Record"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ownedCollections are filtered to the caller's own documents for the
// standard role.
var ownedCollections = map[string]bool{
	"loans":        true,
	"maintenances": true,
	"procurements": true,
}

// readOnlyFields are never changed by an update.
var readOnlyFields = []string{"id", "created_date", "created_by"}

type RecordService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	now func() time.Time
}

func NewRecordService(db *sql.DB, rm repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, rm: rm, now: time.Now}
}

func checkCollection(collection string) error {
	if !models.ValidCollection(collection) {
		return ErrUnknownCollection
	}
	return nil
}

// List returns the documents of collection visible to user.
func (s *RecordService) List(ctx context.Context, user models.Document, collection string) ([]models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	docs, err := s.rm.Records(s.db).List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return visible(user, collection, docs), nil
}

func visible(user models.Document, collection string, docs []models.Document) []models.Document {
	email, role := user.String("email"), user.String("role")

	var keep func(models.Document) bool
	switch {
	case collection == "assets" && role != models.RoleAdmin:
		keep = func(d models.Document) bool { return d.String("assigned_to_email") == email }
	case ownedCollections[collection] && role == models.RoleUser:
		keep = func(d models.Document) bool {
			return d.String("created_by") == email || d.String("borrower_email") == email
		}
	default:
		return docs
	}

	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s *RecordService) Get(ctx context.Context, collection, id string) (models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	doc, err := s.rm.Records(s.db).Get(ctx, collection, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, &NotFoundError{Collection: collection}
	}
	return doc, err
}

// Create stores payload with fresh metadata and returns the stored document.
func (s *RecordService) Create(ctx context.Context, user models.Document, collection string, payload models.Document) (models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	doc := make(models.Document, len(payload)+3)
	for k, v := range payload {
		doc[k] = v
	}

	switch collection {
	case "users":
		setDefault(doc, "full_name", user["full_name"])
		setDefault(doc, "role", user["role"])
	case "notifications":
		setDefault(doc, "user_email", user["email"])
		doc["read"] = false
	case "procurements":
		doc["total_cost"] = totalCost(doc)
	}

	doc["id"] = uuid.NewString()
	doc["created_date"] = models.Timestamp(s.now())
	doc["created_by"] = user.String("email")

	if err := s.rm.Records(s.db).Insert(ctx, collection, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update merges payload into the stored document. Identity and creation
// fields are ignored.
func (s *RecordService) Update(ctx context.Context, collection, id string, payload models.Document) (models.Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	var doc models.Document
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Records(tx)
		existing, err := repo.Get(ctx, collection, id)
		if errors.Is(err, common.ErrorNotFound) {
			return &NotFoundError{Collection: collection}
		}
		if err != nil {
			return err
		}

		for k, v := range payload {
			if !slices.Contains(readOnlyFields, k) {
				existing[k] = v
			}
		}
		_, hasQty := payload["quantity"]
		_, hasCost := payload["estimated_cost"]
		if collection == "procurements" && (hasQty || hasCost) {
			existing["total_cost"] = totalCost(existing)
		}
		existing["modified_date"] = models.Timestamp(s.now())

		doc = existing
		return repo.Replace(ctx, collection, existing)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *RecordService) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	err := s.rm.Records(s.db).Delete(ctx, collection, id)
	if errors.Is(err, common.ErrorNotFound) {
		return &NotFoundError{Collection: collection}
	}
	return err
}

// MarkAllRead marks the caller's unread notifications read and returns how
// many were changed.
func (s *RecordService) MarkAllRead(ctx context.Context, user models.Document) (int, error) {
	email := user.String("email")
	count := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Records(tx)
		docs, err := repo.List(ctx, "notifications")
		if err != nil {
			return err
		}
		for _, n := range docs {
			if n.String("user_email") != email {
				continue
			}
			if read, _ := n["read"].(bool); read {
				continue
			}
			n["read"] = true
			n["modified_date"] = models.Timestamp(s.now())
			if err := repo.Replace(ctx, "notifications", n); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func setDefault(doc models.Document, key string, v any) {
	if _, ok := doc[key]; !ok && v != nil {
		doc[key] = v
	}
}

// totalCost is quantity (at least 1, truncated) times estimated_cost.
func totalCost(doc models.Document) float64 {
	qty := int(doc.Float("quantity"))
	if qty == 0 {
		qty = 1
	}
	return float64(qty) * doc.Float("estimated_cost")
}
