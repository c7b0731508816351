package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
)

// HostHandler exposes the Host inventory as read-only listing and
// lookup endpoints; Hosts are only ever created or updated by the
// scanner, the agent protocol, or directory import — never directly by
// an operator request.
type HostHandler struct {
	store *store.Store
}

func NewHostHandler(st *store.Store) *HostHandler {
	return &HostHandler{store: st}
}

func RegisterHostRoutes(r *gin.Engine, h *HostHandler) {
	group := r.Group("/api/v1/hosts")
	group.GET("", h.List)
	group.GET("/:id", h.Get)
}

func (h *HostHandler) List(c *gin.Context) {
	var opts []store.ListOption

	if hostnames := c.QueryArray("hostname"); len(hostnames) > 0 {
		opts = append(opts, store.ByHostnames(hostnames...))
	}
	if raw := c.Query("agentManaged"); raw != "" {
		managed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agentManaged must be a bool"})
			return
		}
		opts = append(opts, store.ByAgentManaged(managed))
	}
	if statuses := c.QueryArray("scanStatus"); len(statuses) > 0 {
		vals := make([]models.ScanStatus, len(statuses))
		for i, s := range statuses {
			vals[i] = models.ScanStatus(s)
		}
		opts = append(opts, store.ByScanStatus(vals...))
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts = append(opts, store.WithLimit(limit))
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		opts = append(opts, store.WithOffset(offset))
	}
	if raw := c.Query("sort"); raw != "" {
		opts = append(opts, store.WithSort(parseSort(raw)))
	} else {
		opts = append(opts, store.WithDefaultSort())
	}

	hosts, err := h.store.Hosts().List(c.Request.Context(), opts...)
	if err != nil {
		writeOperatorError(c, err, "list_hosts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hosts": hosts})
}

// parseSort reads a comma-separated list of API field names, each
// optionally prefixed with "-" for descending order (e.g.
// "-lastSeen,hostname").
func parseSort(raw string) []store.SortParam {
	fields := strings.Split(raw, ",")
	sorts := make([]store.SortParam, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		desc := strings.HasPrefix(f, "-")
		sorts = append(sorts, store.SortParam{Field: strings.TrimPrefix(f, "-"), Desc: desc})
	}
	return sorts
}

func (h *HostHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	host, err := h.store.Hosts().Get(c.Request.Context(), id)
	if err != nil {
		writeOperatorError(c, err, "get_host")
		return
	}
	c.JSON(http.StatusOK, host)
}
