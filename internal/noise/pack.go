package noise

import (
	"fmt"
	"sort"

	"github.com/sysmonctl/controlplane/internal/models"
)

// DefaultMinNoiseScore is the default floor below which a NoiseResult is
// left out of an exclusion pack (spec §4.7).
const DefaultMinNoiseScore = 0.5

// ExclusionPack is the per-run artifact grouping suggested exclusions by
// event kind, with a human-readable comment per entry.
type ExclusionPack struct {
	RunID    int64
	Sections []ExclusionSection
}

type ExclusionSection struct {
	Kind    string
	Entries []ExclusionEntry
}

type ExclusionEntry struct {
	Comment   string
	Exclusion string
}

// BuildExclusionPack aggregates every NoiseResult at or above
// minNoiseScore (DefaultMinNoiseScore when zero) into a pack grouped by
// event kind, sorted by descending score within each section.
func BuildExclusionPack(runID int64, results []models.NoiseResult, minNoiseScore float64) ExclusionPack {
	if minNoiseScore <= 0 {
		minNoiseScore = DefaultMinNoiseScore
	}

	byKind := make(map[string][]models.NoiseResult)
	var kindOrder []string
	for _, r := range results {
		if r.NoiseScore < minNoiseScore || r.SuggestedExclusion == "" {
			continue
		}
		kind := KindForEventID(r.EventID)
		if _, ok := byKind[kind]; !ok {
			kindOrder = append(kindOrder, kind)
		}
		byKind[kind] = append(byKind[kind], r)
	}

	pack := ExclusionPack{RunID: runID}
	sort.Strings(kindOrder)
	for _, kind := range kindOrder {
		group := byKind[kind]
		sort.Slice(group, func(i, j int) bool { return group[i].NoiseScore > group[j].NoiseScore })

		section := ExclusionSection{Kind: kind}
		for _, r := range group {
			section.Entries = append(section.Entries, ExclusionEntry{
				Comment:   fmt.Sprintf("score=%.3f count=%d", r.NoiseScore, r.EventCount),
				Exclusion: r.SuggestedExclusion,
			})
		}
		pack.Sections = append(pack.Sections, section)
	}
	return pack
}
