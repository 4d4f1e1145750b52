package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/requestid"
)

const maxBodyBytes = 16 << 20

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	identity IdentitySource
	timeout  time.Duration
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout bounds every request. Zero disables the per-request bound.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// NewHTTPClient builds a client for baseURL (e.g. "http://host:8080/api").
// identity may be nil, in which case no identity header is sent.
func NewHTTPClient(baseURL string, identity IdentitySource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		identity: identity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	_, rid := requestid.Ensure(ctx)
	req.Header.Set(common.RequestIDHeaderName, rid)
	req.Header.Set("Accept", "application/json")

	if c.identity != nil {
		email, err := c.identity.Identity(ctx)
		if err != nil {
			return nil, fmt.Errorf("read identity: %w", err)
		}
		if email != "" {
			req.Header.Set(common.IdentityHeaderName, email)
		}
	}
	return req, nil
}

// send executes req and returns the response for 2xx statuses. Any other
// status is turned into *APIError and the body is closed.
func (c *HTTPClient) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeAPIError(resp)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	var body map[string]any
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Body = body
		if s, ok := body["error"].(string); ok && s != "" {
			apiErr.Message = s
		} else if s, ok := body["message"].(string); ok && s != "" {
			apiErr.Message = s
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = "Request failed"
		if text := http.StatusText(resp.StatusCode); text != "" {
			apiErr.Message = text
		}
	}
	return apiErr
}

// doJSON sends in (if non-nil) as JSON and decodes the response into out
// (if non-nil). A 204 response leaves out untouched.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func collectionPath(collection models.CollectionName) string {
	return "/" + url.PathEscape(string(collection))
}

func recordPath(collection models.CollectionName, id string) string {
	return collectionPath(collection) + "/" + url.PathEscape(id)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/me", nil, &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, ErrMissingUser
	}
	return &u, nil
}

func (c *HTTPClient) RequestOTP(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/request_otp", map[string]string{"email": email}, nil)
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, code string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	in := map[string]string{"email": email, "code": code}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify_otp", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	in := signupRequest{Email: email, Password: password, FullName: fullName}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", map[string]string{"email": email}, nil)
}

func (c *HTTPClient) List(ctx context.Context, collection models.CollectionName) ([]models.Record, error) {
	var out []models.Record
	if err := c.doJSON(ctx, http.MethodGet, collectionPath(collection), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Record{}
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, collection models.CollectionName, payload models.Record) (models.Record, error) {
	var out models.Record
	if err := c.doJSON(ctx, http.MethodPost, collectionPath(collection), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Update(ctx context.Context, collection models.CollectionName, id string, payload models.Record) (models.Record, error) {
	var out models.Record
	if err := c.doJSON(ctx, http.MethodPut, recordPath(collection, id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Delete(ctx context.Context, collection models.CollectionName, id string) error {
	return c.doJSON(ctx, http.MethodDelete, recordPath(collection, id), nil, nil)
}

// MarkAllNotificationsRead returns the server's confirmation message.
func (c *HTTPClient) MarkAllNotificationsRead(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/notifications/mark_all_read", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UploadPropertyImage posts content as the multipart field "file".
func (c *HTTPClient) UploadPropertyImage(ctx context.Context, filename string, content io.Reader) (map[string]any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/upload/property-image", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// DownloadAssetReport streams the asset report into w and returns the
// number of bytes written. No per-request timeout is applied; reports may
// be large, so bound ctx instead.
func (c *HTTPClient) DownloadAssetReport(ctx context.Context, format ReportFormat, w io.Writer) (int64, error) {
	if format != ReportCSV && format != ReportPDF {
		return 0, fmt.Errorf("%w: unsupported report format %q", ErrBadRequest, format)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/reports/assets/"+string(format), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("write report: %w", err)
	}
	return n, nil
}
