package noise

import "github.com/sysmonctl/controlplane/internal/models"

// CommonPatternThreshold is the fraction of hosts a pattern must appear
// noisy-or-above on to be considered "common" (spec §4.7).
const CommonPatternThreshold = 0.5

// HostResults pairs a host id with the results of its own analysis run,
// the input to cross-host comparison.
type HostResults struct {
	HostID  int64
	Results []models.NoiseResult
}

// CommonPattern is a grouping key observed noisy or above on more than
// half the compared hosts.
type CommonPattern struct {
	GroupingKey string
	HostCount   int
	TotalHosts  int
}

// CompareAcrossHosts finds patterns whose grouping key scores ≥0.5 on
// more than half of the given per-host result sets.
func CompareAcrossHosts(perHost []HostResults) []CommonPattern {
	counts := make(map[string]int)
	var order []string

	for _, hr := range perHost {
		seen := make(map[string]bool)
		for _, r := range hr.Results {
			if r.NoiseScore < DefaultMinNoiseScore {
				continue
			}
			if seen[r.GroupingKey] {
				continue
			}
			seen[r.GroupingKey] = true
			if _, ok := counts[r.GroupingKey]; !ok {
				order = append(order, r.GroupingKey)
			}
			counts[r.GroupingKey]++
		}
	}

	total := len(perHost)
	var common []CommonPattern
	for _, key := range order {
		count := counts[key]
		if total > 0 && float64(count) > CommonPatternThreshold*float64(total) {
			common = append(common, CommonPattern{GroupingKey: key, HostCount: count, TotalHosts: total})
		}
	}
	return common
}
