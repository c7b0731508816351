package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sysmonctl/controlplane/internal/configvalidator"
	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
)

// ConfigHandler uploads and retrieves immutable Config documents (spec
// §3, §4.8): every upload is validated before it is persisted, and the
// row it produces is never mutated afterward.
type ConfigHandler struct {
	store *store.Store
	audit *services.AuditService
}

func NewConfigHandler(st *store.Store, audit *services.AuditService) *ConfigHandler {
	return &ConfigHandler{store: st, audit: audit}
}

func RegisterConfigRoutes(r *gin.Engine, h *ConfigHandler) {
	group := r.Group("/api/v1/configs")
	group.POST("", h.Upload)
	group.GET("/:id", h.Get)
}

type uploadConfigBody struct {
	Filename     string `json:"filename"`
	ContentBase64 string `json:"contentBase64"`
	SourceURL    string `json:"sourceUrl"`
	UploadedBy   string `json:"uploadedBy"`
}

type configResponseBody struct {
	ID                int64  `json:"id"`
	Filename          string `json:"filename"`
	ContentHash       string `json:"contentHash"`
	Tag               string `json:"tag,omitempty"`
	IsValid           bool   `json:"isValid"`
	ValidationMessage string `json:"validationMessage,omitempty"`
	SourceURL         string `json:"sourceUrl,omitempty"`
	UploadedAt        string `json:"uploadedAt"`
	UploadedBy        string `json:"uploadedBy,omitempty"`
}

func toConfigResponse(cfg *models.Config) configResponseBody {
	return configResponseBody{
		ID: cfg.ID, Filename: cfg.Filename, ContentHash: cfg.ContentHash, Tag: cfg.Tag,
		IsValid: cfg.IsValid, ValidationMessage: cfg.ValidationMessage, SourceURL: cfg.SourceURL,
		UploadedAt: cfg.UploadedAt.Format(time.RFC3339), UploadedBy: cfg.UploadedBy,
	}
}

func (h *ConfigHandler) Upload(c *gin.Context) {
	var body uploadConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.ContentBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentBase64 is not valid base64"})
		return
	}

	result, err := configvalidator.Validate(content)
	if err != nil {
		writeOperatorError(c, err, "validate_config")
		return
	}

	cfg := &models.Config{
		Filename: body.Filename, ContentBytes: content, Tag: result.Tag,
		IsValid: result.IsValid, ValidationMessage: result.ValidationMessage,
		SourceURL: body.SourceURL, UploadedAt: time.Now(), UploadedBy: body.UploadedBy,
	}
	if err := h.store.Configs().Create(c.Request.Context(), cfg); err != nil {
		writeOperatorError(c, err, "create_config")
		return
	}

	if err := h.audit.Log(c.Request.Context(), body.UploadedBy, models.AuditConfigUploaded, map[string]any{
		"config_id": cfg.ID, "filename": cfg.Filename, "is_valid": cfg.IsValid, "tag": cfg.Tag,
	}); err != nil {
		writeOperatorError(c, err, "audit_config_upload")
		return
	}

	c.JSON(http.StatusCreated, toConfigResponse(cfg))
}

func (h *ConfigHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	cfg, err := h.store.Configs().Get(c.Request.Context(), id)
	if err != nil {
		writeOperatorError(c, err, "get_config")
		return
	}
	c.JSON(http.StatusOK, toConfigResponse(cfg))
}
