package api

import (
	"context"
	"io"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
)

// IdentitySource supplies the email sent in the identity header.
// An empty string means "no identity"; the header is then omitted.
type IdentitySource interface {
	Identity(ctx context.Context) (string, error)
}

// DataAPI is the generic per-collection CRUD surface.
type DataAPI interface {
	List(ctx context.Context, collection models.CollectionName) ([]models.Record, error)
	Create(ctx context.Context, collection models.CollectionName, payload models.Record) (models.Record, error)
	Update(ctx context.Context, collection models.CollectionName, id string, payload models.Record) (models.Record, error)
	Delete(ctx context.Context, collection models.CollectionName, id string) error
	MarkAllNotificationsRead(ctx context.Context) (string, error)
}

// AuthAPI is the authentication surface.
type AuthAPI interface {
	Me(ctx context.Context) (*models.User, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.AuthResponse, error)
	Signup(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context, email string) error
}

// ReportFormat selects the asset report rendition.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// FilesAPI covers the binary endpoints that bypass the JSON codec.
type FilesAPI interface {
	UploadPropertyImage(ctx context.Context, filename string, content io.Reader) (map[string]any, error)
	DownloadAssetReport(ctx context.Context, format ReportFormat, w io.Writer) (int64, error)
}

// Client is the full backend contract used by the console.
type Client interface {
	DataAPI
	AuthAPI
	FilesAPI
}
