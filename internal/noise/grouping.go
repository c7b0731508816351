package noise

import (
	"fmt"
	"path"
	"strings"

	"github.com/sysmonctl/controlplane/internal/models"
)

// GroupingKey derives the event-kind-specific aggregation key of spec
// §4.7: always anchored on an Image-ish field plus a secondary field
// where the table calls for one.
func GroupingKey(e models.RawEvent) string {
	switch {
	case e.Kind == KindProcessCreate:
		return e.Image
	case e.Kind == KindNetworkConnection:
		return e.Image + "|" + e.DestinationIP
	case e.Kind == KindImageLoaded:
		return e.Image + "|" + e.ImageLoaded
	case e.Kind == KindFileCreate || e.Kind == KindFileCreateStreamHash:
		return e.Image + "|" + directoryOf(e.TargetFilename)
	case e.Kind == KindDNSQuery:
		return e.Image + "|" + e.QueryName
	case strings.HasPrefix(e.Kind, registryPrefix):
		return e.Image
	case e.Kind == KindCreateRemoteThread:
		return e.SourceImage
	case e.Kind == KindProcessAccess:
		return e.SourceImage + "|" + e.TargetImage
	default:
		return e.Image
	}
}

// directoryOf returns the directory component of a Windows-style path,
// falling back to the whole string when it carries no separator.
func directoryOf(winPath string) string {
	if winPath == "" {
		return ""
	}
	normalized := strings.ReplaceAll(winPath, `\`, "/")
	dir := path.Dir(normalized)
	if dir == "." {
		return winPath
	}
	return strings.ReplaceAll(dir, "/", `\`)
}

// Group buckets events by kind+GroupingKey, returning event counts per
// bucket along with one representative event (the first observed) for
// exclusion synthesis.
type Group struct {
	Kind          string
	GroupingKey   string
	Count         int
	Representative models.RawEvent
}

func groupID(kind, key string) string {
	return fmt.Sprintf("%s|%s", kind, key)
}

func Group(events []models.RawEvent) []Group {
	index := make(map[string]*Group)
	var order []string

	for _, e := range events {
		key := GroupingKey(e)
		id := groupID(e.Kind, key)
		g, ok := index[id]
		if !ok {
			g = &Group{Kind: e.Kind, GroupingKey: key, Representative: e}
			index[id] = g
			order = append(order, id)
		}
		g.Count++
	}

	out := make([]Group, 0, len(order))
	for _, id := range order {
		out = append(out, *index[id])
	}
	return out
}
