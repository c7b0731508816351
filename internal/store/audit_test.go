package store_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
)

var _ = Describe("AuditStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		s = store.NewStore(db)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	It("appends entries and lists them most-recent-first", func() {
		older := &models.AuditEntry{Timestamp: time.Now().Add(-time.Hour), User: "alice", Action: models.AuditLogin}
		Expect(s.Audit().Append(ctx, older)).To(Succeed())

		newer := &models.AuditEntry{Timestamp: time.Now(), User: "bob", Action: models.AuditDeploymentStart, DetailsJSON: `{"job_id":1}`}
		Expect(s.Audit().Append(ctx, newer)).To(Succeed())

		entries, err := s.Audit().List(ctx, time.Now().Add(-2*time.Hour), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Action).To(Equal(models.AuditDeploymentStart))
		Expect(entries[1].Action).To(Equal(models.AuditLogin))
	})

	It("excludes entries older than the since cutoff", func() {
		old := &models.AuditEntry{Timestamp: time.Now().Add(-48 * time.Hour), User: "alice", Action: models.AuditLogin}
		Expect(s.Audit().Append(ctx, old)).To(Succeed())

		entries, err := s.Audit().List(ctx, time.Now().Add(-time.Hour), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
