package noise

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/sysmonctl/controlplane/internal/models"
)

// SuggestedExclusion synthesizes the XML exclusion snippet for a group
// scoring ≥0.5 noisy or above (spec §4.7), keyed off the event kind.
// Every user-controlled value is XML-escaped.
func SuggestedExclusion(g Group) string {
	switch {
	case g.Kind == KindProcessCreate:
		return fieldTag("Image", g.Representative.Image)
	case g.Kind == KindNetworkConnection:
		return fieldTag("Image", g.Representative.Image) + fieldTag("DestinationIp", g.Representative.DestinationIP)
	case g.Kind == KindImageLoaded:
		return fieldTag("Image", g.Representative.Image) + fieldTag("ImageLoaded", g.Representative.ImageLoaded)
	case g.Kind == KindFileCreate || g.Kind == KindFileCreateStreamHash:
		return fieldTag("Image", g.Representative.Image) + fieldTag("TargetFilename", directoryOf(g.Representative.TargetFilename)+`\*`)
	case g.Kind == KindDNSQuery:
		return fieldTag("Image", g.Representative.Image) + fieldTag("QueryName", g.Representative.QueryName)
	case strings.HasPrefix(g.Kind, registryPrefix):
		return fieldTag("Image", g.Representative.Image)
	case g.Kind == KindCreateRemoteThread:
		return fieldTag("SourceImage", g.Representative.SourceImage)
	case g.Kind == KindProcessAccess:
		return fieldTag("SourceImage", g.Representative.SourceImage) + fieldTag("TargetImage", g.Representative.TargetImage)
	default:
		return fieldTag("Image", g.Representative.Image)
	}
}

func fieldTag(field, value string) string {
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(value))
	return fmt.Sprintf(`<%s condition="is">%s</%s>`, field, escaped.String(), field)
}
