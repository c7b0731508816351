package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/handlers"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
)

const sampleSysmonConfig = `<!-- SCPTAG:baseline-workstation -->
<Sysmon schemaversion="4.90">
  <EventFiltering>
    <RuleGroup name="default" groupRelation="or">
      <ProcessCreate onmatch="exclude">
        <Field condition="is">C:\Windows\System32\svchost.exe</Field>
      </ProcessCreate>
    </RuleGroup>
  </EventFiltering>
</Sysmon>`

var _ = Describe("ConfigHandler", func() {
	var (
		ctx    context.Context
		db     *sql.DB
		s      *store.Store
		engine *gin.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
		s = store.NewStore(db)

		engine = newTestEngine(func(r *gin.Engine) {
			handlers.RegisterConfigRoutes(r, handlers.NewConfigHandler(s, services.NewAuditService(s)))
		})
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	postConfig := func(body map[string]any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/configs", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	It("accepts and tags a well-formed config document", func() {
		w := postConfig(map[string]any{
			"filename":      "baseline.xml",
			"contentBase64": base64.StdEncoding.EncodeToString([]byte(sampleSysmonConfig)),
			"uploadedBy":    "operator1",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp struct {
			ID      int64  `json:"id"`
			Tag     string `json:"tag"`
			IsValid bool   `json:"isValid"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.IsValid).To(BeTrue())
		Expect(resp.Tag).To(Equal("baseline-workstation"))

		entries, err := s.Audit().List(ctx, time.Time{}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("persists a malformed document as invalid rather than rejecting the upload", func() {
		w := postConfig(map[string]any{
			"filename":      "broken.xml",
			"contentBase64": base64.StdEncoding.EncodeToString([]byte("<Sysmon>not closed")),
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp struct {
			IsValid           bool   `json:"isValid"`
			ValidationMessage string `json:"validationMessage"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.IsValid).To(BeFalse())
		Expect(resp.ValidationMessage).NotTo(BeEmpty())
	})

	It("rejects a request body that isn't valid base64", func() {
		w := postConfig(map[string]any{
			"filename":      "x.xml",
			"contentBase64": "not-base64!!!",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("retrieves a previously uploaded config by id", func() {
		postConfig(map[string]any{
			"filename":      "baseline.xml",
			"contentBase64": base64.StdEncoding.EncodeToString([]byte(sampleSysmonConfig)),
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/configs/1", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			Filename string `json:"filename"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Filename).To(Equal("baseline.xml"))
	})

	It("404s for a config that doesn't exist", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/configs/999", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
