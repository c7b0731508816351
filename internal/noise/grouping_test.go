package noise_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
)

var _ = Describe("GroupingKey", func() {
	It("groups ProcessCreate by Image alone", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: noise.KindProcessCreate, Image: `C:\A.exe`})
		Expect(key).To(Equal(`C:\A.exe`))
	})

	It("groups NetworkConnection by Image and destination IP", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: noise.KindNetworkConnection, Image: `C:\A.exe`, DestinationIP: "10.0.0.1"})
		Expect(key).To(Equal(`C:\A.exe|10.0.0.1`))
	})

	It("groups FileCreate by Image and the target directory, not the full path", func() {
		k1 := noise.GroupingKey(models.RawEvent{Kind: noise.KindFileCreate, Image: `C:\A.exe`, TargetFilename: `C:\Temp\a.tmp`})
		k2 := noise.GroupingKey(models.RawEvent{Kind: noise.KindFileCreate, Image: `C:\A.exe`, TargetFilename: `C:\Temp\b.tmp`})
		Expect(k1).To(Equal(k2))
	})

	It("groups CreateRemoteThread by SourceImage", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: noise.KindCreateRemoteThread, SourceImage: `C:\src.exe`, TargetImage: `C:\dst.exe`})
		Expect(key).To(Equal(`C:\src.exe`))
	})

	It("groups ProcessAccess by SourceImage and TargetImage", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: noise.KindProcessAccess, SourceImage: `C:\src.exe`, TargetImage: `C:\dst.exe`})
		Expect(key).To(Equal(`C:\src.exe|C:\dst.exe`))
	})

	It("groups any RegistryObject* kind by Image alone", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: "RegistryObjectValueSet", Image: `C:\A.exe`})
		Expect(key).To(Equal(`C:\A.exe`))
	})

	It("falls back to Image for unrecognized kinds", func() {
		key := noise.GroupingKey(models.RawEvent{Kind: "SomethingElse", Image: `C:\A.exe`})
		Expect(key).To(Equal(`C:\A.exe`))
	})
})

var _ = Describe("Group", func() {
	It("aggregates matching events into a single bucket with a count", func() {
		events := []models.RawEvent{
			{Kind: noise.KindProcessCreate, Image: `C:\A.exe`},
			{Kind: noise.KindProcessCreate, Image: `C:\A.exe`},
			{Kind: noise.KindProcessCreate, Image: `C:\B.exe`},
		}
		groups := noise.Group(events)
		Expect(groups).To(HaveLen(2))

		byKey := map[string]int{}
		for _, g := range groups {
			byKey[g.GroupingKey] = g.Count
		}
		Expect(byKey[`C:\A.exe`]).To(Equal(2))
		Expect(byKey[`C:\B.exe`]).To(Equal(1))
	})
})
