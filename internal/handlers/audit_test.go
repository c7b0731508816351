package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/handlers"
	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
)

var _ = Describe("AuditHandler", func() {
	var (
		ctx    context.Context
		db     *sql.DB
		s      *store.Store
		engine *gin.Engine
		audit  *services.AuditService
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
		s = store.NewStore(db)
		audit = services.NewAuditService(s)

		Expect(audit.Log(ctx, "operator1", models.AuditConfigUploaded, map[string]any{"config_id": 1})).To(Succeed())
		Expect(audit.Log(ctx, "operator2", models.AuditDeploymentStart, map[string]any{"job_id": 1})).To(Succeed())

		engine = newTestEngine(func(r *gin.Engine) {
			handlers.RegisterAuditRoutes(r, handlers.NewAuditHandler(audit))
		})
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	It("lists audit entries newest-first", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Entries []models.AuditEntry `json:"entries"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Entries).To(HaveLen(2))
		Expect(body.Entries[0].Action).To(Equal(models.AuditDeploymentStart))
	})

	It("rejects a malformed since parameter", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?since=not-a-date", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("excludes entries before since", func() {
		future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?since="+future, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Entries []models.AuditEntry `json:"entries"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Entries).To(BeEmpty())
	})
})
