package noise_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
)

var _ = Describe("SuggestedExclusion", func() {
	// Scenario 5 of spec §8.
	It("synthesizes the ProcessCreate exclusion the literal scenario expects", func() {
		g := noise.Group{
			Kind:        noise.KindProcessCreate,
			GroupingKey: `C:\A.exe`,
			Count:       1500,
			Representative: models.RawEvent{
				Kind:  noise.KindProcessCreate,
				Image: `C:\A.exe`,
			},
		}
		exclusion := noise.SuggestedExclusion(g)
		Expect(exclusion).To(ContainSubstring(`<Image condition="is">C:\A.exe</Image>`))
	})

	It("XML-escapes user-controlled values", func() {
		g := noise.Group{
			Kind: noise.KindProcessCreate,
			Representative: models.RawEvent{
				Kind:  noise.KindProcessCreate,
				Image: `C:\Program Files\A & B.exe`,
			},
		}
		exclusion := noise.SuggestedExclusion(g)
		Expect(exclusion).To(ContainSubstring("&amp;"))
		Expect(exclusion).NotTo(ContainSubstring("A & B"))
	})

	It("includes both fields for a two-field grouping key", func() {
		g := noise.Group{
			Kind: noise.KindNetworkConnection,
			Representative: models.RawEvent{
				Kind:          noise.KindNetworkConnection,
				Image:         `C:\A.exe`,
				DestinationIP: "10.0.0.1",
			},
		}
		exclusion := noise.SuggestedExclusion(g)
		Expect(exclusion).To(ContainSubstring(`<Image condition="is">C:\A.exe</Image>`))
		Expect(exclusion).To(ContainSubstring(`<DestinationIp condition="is">10.0.0.1</DestinationIp>`))
	})
})
