package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/dmitrijs2005/assetflow/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	healthStatus   = "Asset Management API is Running"
	imageURLPrefix = "/api/uploads/properties/"
)

type Handler struct {
	auth    *services.AuthService
	records *services.RecordService
	reports *services.ReportService
	images  *services.ImageStore
	logger  logging.Logger
}

func NewHandler(auth *services.AuthService, records *services.RecordService, reports *services.ReportService, images *services.ImageStore, l logging.Logger) *Handler {
	return &Handler{
		auth:    auth,
		records: records,
		reports: reports,
		images:  images,
		logger:  l.With("module", "http_handler"),
	}
}

var errorResponses = []struct {
	err    error
	status int
	msg    string
}{
	{services.ErrUnknownCollection, http.StatusNotFound, "Collection not found"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{services.ErrEmailRequired, http.StatusBadRequest, "Email required"},
	{services.ErrCredsRequired, http.StatusBadRequest, "Email and password required"},
	{services.ErrWeakPassword, http.StatusBadRequest, "Password must be at least 6 characters"},
	{services.ErrUserExists, http.StatusBadRequest, "User with this email already exists"},
	{services.ErrInvalidOTP, http.StatusBadRequest, "Invalid or expired OTP"},
	{services.ErrInvalidLogin, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrPasswordNotSet, http.StatusUnauthorized, "Password not set. Please use OTP login or reset password"},
	{services.ErrNoFile, http.StatusBadRequest, "No file provided"},
	{services.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type"},
	{common.ErrorValidation, http.StatusBadRequest, "Invalid JSON payload"},
}

// fail aborts the request with the JSON error body matching err.
func (h *Handler) fail(c *gin.Context, err error) {
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			c.AbortWithStatusJSON(r.status, gin.H{"error": r.msg})
			return
		}
	}
	h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": healthStatus, "collections": models.Collections})
}

type credentials struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// bindCredentials reads the request body leniently: a missing or malformed
// body is treated as empty.
func bindCredentials(c *gin.Context) credentials {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		return credentials{}
	}
	return req
}

func (h *Handler) RequestOTP(c *gin.Context) {
	req := bindCredentials(c)
	if err := h.auth.RequestOTP(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	req := bindCredentials(c)
	user, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authenticated", "user": user})
}

func (h *Handler) Signup(c *gin.Context) {
	req := bindCredentials(c)
	user, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	req := bindCredentials(c)
	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authenticated", "user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	req := bindCredentials(c)
	h.auth.Logout(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *Handler) List(c *gin.Context) {
	docs, err := h.records.List(c.Request.Context(), currentUser(c), c.Param("collection"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) Get(c *gin.Context) {
	doc, err := h.records.Get(c.Request.Context(), c.Param("collection"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// bindDocument requires the body to be a JSON object.
func bindDocument(c *gin.Context) (models.Document, error) {
	var doc models.Document
	if err := c.ShouldBindJSON(&doc); err != nil || doc == nil {
		return nil, common.ErrorValidation
	}
	return doc, nil
}

func (h *Handler) Create(c *gin.Context) {
	payload, err := bindDocument(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	doc, err := h.records.Create(c.Request.Context(), currentUser(c), c.Param("collection"), payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) Update(c *gin.Context) {
	payload, err := bindDocument(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	doc, err := h.records.Update(c.Request.Context(), c.Param("collection"), c.Param("id"), payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), c.Param("collection"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.records.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": markedMessage(n)})
}

func (h *Handler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, services.ErrNoFile)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	name, err := h.images.Save(fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info(c.Request.Context(), "image uploaded", "file", name)
	c.JSON(http.StatusOK, gin.H{"url": imageURLPrefix + name, "filename": name})
}

func (h *Handler) ServeImage(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.images.Dir(), name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.File(path)
}

func (h *Handler) AssetsCSV(c *gin.Context) {
	h.report(c, "text/csv", "assets_report.csv", h.reports.AssetsCSV)
}

func (h *Handler) AssetsPDF(c *gin.Context) {
	h.report(c, "application/pdf", "assets_and_properties_report.pdf", h.reports.AssetsPDF)
}

type renderFunc func(ctx context.Context, user models.Document, w io.Writer) error

// report renders fully before writing so a failure still yields a JSON error.
func (h *Handler) report(c *gin.Context, contentType, filename string, render renderFunc) {
	var buf bytes.Buffer
	if err := render(c.Request.Context(), currentUser(c), &buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func markedMessage(n int) string {
	return strconv.Itoa(n) + " notifications marked as read."
}
