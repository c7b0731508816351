package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/handlers"
	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
	"github.com/sysmonctl/controlplane/internal/services"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
	"github.com/sysmonctl/controlplane/pkg/transport"
)

type fixedEventsRemoteAdmin struct {
	samples []transport.RawEventSample
}

func (f fixedEventsRemoteAdmin) IsAvailable() bool { return true }
func (f fixedEventsRemoteAdmin) RunCommand(context.Context, string, string) (int, error) {
	return 0, nil
}
func (f fixedEventsRemoteAdmin) ProbeOSCaption(context.Context, string) (string, error) {
	return "", nil
}
func (f fixedEventsRemoteAdmin) ProbeCollector(context.Context, string) (string, string, bool, error) {
	return "", "", false, nil
}
func (f fixedEventsRemoteAdmin) QueryEvents(context.Context, string, float64, int, []string) ([]transport.RawEventSample, error) {
	return f.samples, nil
}

var _ = Describe("NoiseHandler", func() {
	var (
		ctx    context.Context
		db     *sql.DB
		s      *store.Store
		engine *gin.Engine
		hostID int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
		s = store.NewStore(db)

		host := &models.Host{Hostname: "ws-01", OS: "Windows 11", LastSeen: time.Now()}
		Expect(s.Hosts().Create(ctx, host)).To(Succeed())
		hostID = host.ID

		samples := make([]transport.RawEventSample, 500)
		for i := range samples {
			samples[i] = transport.RawEventSample{EventID: "1", Kind: "ProcessCreate", Image: `C:\Windows\System32\svchost.exe`}
		}
		remoteAdmin := fixedEventsRemoteAdmin{samples: samples}
		noiseService := services.NewNoiseService(s, remoteAdmin, services.NewAuditService(s), services.NoiseTimeouts{})

		engine = newTestEngine(func(r *gin.Engine) {
			handlers.RegisterNoiseRoutes(r, handlers.NewNoiseHandler(s, noiseService))
		})
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	It("runs noise analysis and flags a high-volume pattern", func() {
		body, _ := json.Marshal(map[string]any{"timeRangeHours": 1.0})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts/"+strconv.FormatInt(hostID, 10)+"/noise-analysis", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			Run     models.NoiseAnalysisRun `json:"run"`
			Results []models.NoiseResult    `json:"results"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Run.TotalEventsObserved).To(Equal(500))
		Expect(resp.Results).To(HaveLen(1))
		Expect(resp.Results[0].NoiseScore).To(BeNumerically(">=", 0.5))
	})

	It("rejects a time range outside (0, 168]", func() {
		body, _ := json.Marshal(map[string]any{"timeRangeHours": 200.0})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts/"+strconv.FormatInt(hostID, 10)+"/noise-analysis", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("builds an exclusion pack for a completed run", func() {
		body, _ := json.Marshal(map[string]any{"timeRangeHours": 1.0})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts/"+strconv.FormatInt(hostID, 10)+"/noise-analysis", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		packReq := httptest.NewRequest(http.MethodGet, "/api/v1/noise-runs/1/exclusion-pack", nil)
		packW := httptest.NewRecorder()
		engine.ServeHTTP(packW, packReq)
		Expect(packW.Code).To(Equal(http.StatusOK))

		var pack noise.ExclusionPack
		Expect(json.Unmarshal(packW.Body.Bytes(), &pack)).To(Succeed())
		Expect(pack.Sections).To(HaveLen(1))
		Expect(pack.Sections[0].Entries).To(HaveLen(1))
	})

	It("404s getting a run that doesn't exist", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/noise-runs/999", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects a compare request with fewer than two hosts", func() {
		body, _ := json.Marshal(map[string]any{"hostIds": []int64{hostID}, "timeRangeHours": 1.0})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/noise/compare", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
