package noise_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/noise"
)

var _ = Describe("Score", func() {
	// Scenario 5 of spec §8: 1500 ProcessCreate events/hr on a
	// Workstation (threshold 200) ⇒ r=7.5 ⇒ score=0.775 ⇒ VeryNoisy.
	It("reproduces the literal noise-scoring scenario", func() {
		rate := noise.Rate(1500, 1)
		Expect(rate).To(Equal(1500.0))

		threshold := noise.Threshold(models.RoleWorkstation, noise.KindProcessCreate)
		Expect(threshold).To(Equal(200))

		score := noise.Score(rate, threshold)
		Expect(score).To(BeNumerically("~", 0.775, 0.0001))
		Expect(noise.Level(score)).To(Equal(models.NoiseLevelVeryNoisy))
	})

	It("is monotonically non-decreasing in the rate for a fixed threshold", func() {
		threshold := 200
		r1 := noise.Score(noise.Rate(50, 1), threshold)
		r2 := noise.Score(noise.Rate(150, 1), threshold)
		r3 := noise.Score(noise.Rate(250, 1), threshold)
		r4 := noise.Score(noise.Rate(600, 1), threshold)
		r5 := noise.Score(noise.Rate(3000, 1), threshold)

		Expect(r1).To(BeNumerically("<=", r2))
		Expect(r2).To(BeNumerically("<=", r3))
		Expect(r3).To(BeNumerically("<=", r4))
		Expect(r4).To(BeNumerically("<=", r5))
	})

	It("stays within [0, 1] across a wide range of rates", func() {
		threshold := 200
		for _, count := range []int{0, 1, 100, 199, 200, 201, 400, 1000, 10000, 1000000} {
			score := noise.Score(noise.Rate(count, 1), threshold)
			Expect(score).To(BeNumerically(">=", 0.0))
			Expect(score).To(BeNumerically("<=", 1.0))
		}
	})

	It("classifies the three level bands correctly", func() {
		Expect(noise.Level(0.1)).To(Equal(models.NoiseLevelNormal))
		Expect(noise.Level(0.49999)).To(Equal(models.NoiseLevelNormal))
		Expect(noise.Level(0.5)).To(Equal(models.NoiseLevelNoisy))
		Expect(noise.Level(0.69999)).To(Equal(models.NoiseLevelNoisy))
		Expect(noise.Level(0.7)).To(Equal(models.NoiseLevelVeryNoisy))
		Expect(noise.Level(1.0)).To(Equal(models.NoiseLevelVeryNoisy))
	})
})
