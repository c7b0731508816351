package noise_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
)

var _ = Describe("CompareAcrossHosts", func() {
	It("flags a pattern common when it scores noisy-or-above on more than half the hosts", func() {
		perHost := []noise.HostResults{
			{HostID: 1, Results: []models.NoiseResult{{GroupingKey: `C:\A.exe`, NoiseScore: 0.8}}},
			{HostID: 2, Results: []models.NoiseResult{{GroupingKey: `C:\A.exe`, NoiseScore: 0.6}}},
			{HostID: 3, Results: []models.NoiseResult{{GroupingKey: `C:\B.exe`, NoiseScore: 0.9}}},
		}
		common := noise.CompareAcrossHosts(perHost)
		Expect(common).To(HaveLen(1))
		Expect(common[0].GroupingKey).To(Equal(`C:\A.exe`))
		Expect(common[0].HostCount).To(Equal(2))
		Expect(common[0].TotalHosts).To(Equal(3))
	})

	It("excludes a pattern present on exactly half the hosts", func() {
		perHost := []noise.HostResults{
			{HostID: 1, Results: []models.NoiseResult{{GroupingKey: `C:\A.exe`, NoiseScore: 0.8}}},
			{HostID: 2, Results: []models.NoiseResult{{GroupingKey: `C:\B.exe`, NoiseScore: 0.9}}},
		}
		common := noise.CompareAcrossHosts(perHost)
		Expect(common).To(BeEmpty())
	})

	It("ignores results below the noisy threshold", func() {
		perHost := []noise.HostResults{
			{HostID: 1, Results: []models.NoiseResult{{GroupingKey: `C:\A.exe`, NoiseScore: 0.2}}},
			{HostID: 2, Results: []models.NoiseResult{{GroupingKey: `C:\A.exe`, NoiseScore: 0.3}}},
		}
		common := noise.CompareAcrossHosts(perHost)
		Expect(common).To(BeEmpty())
	})
})
