package noise

import "github.com/sysmonctl/controlplane/internal/models"

// Event kinds with a dedicated grouping key and threshold row. Anything
// else falls back to the default.
const (
	KindProcessCreate          = "ProcessCreate"
	KindNetworkConnection      = "NetworkConnection"
	KindImageLoaded            = "ImageLoaded"
	KindFileCreate             = "FileCreate"
	KindFileCreateStreamHash   = "FileCreateStreamHash"
	KindDNSQuery               = "DnsQuery"
	KindCreateRemoteThread     = "CreateRemoteThread"
	KindProcessAccess          = "ProcessAccess"
)

// registryPrefix matches any RegistryObject* event kind (spec §4.7).
const registryPrefix = "RegistryObject"

var thresholds = map[models.HostRole]map[string]int{
	models.RoleWorkstation: {
		KindProcessCreate:     200,
		KindNetworkConnection: 500,
		KindImageLoaded:       2000,
		KindFileCreate:        1000,
		KindDNSQuery:          300,
	},
	models.RoleServer: {
		KindProcessCreate:     500,
		KindNetworkConnection: 2000,
		KindImageLoaded:       5000,
		KindFileCreate:        5000,
		KindDNSQuery:          500,
	},
	models.RoleDomainController: {
		KindProcessCreate:     1000,
		KindNetworkConnection: 5000,
		KindImageLoaded:       10000,
		KindFileCreate:        10000,
		KindDNSQuery:          2000,
	},
}

const defaultThreshold = 100

// Threshold returns the events/hour threshold for role and event kind,
// collapsing FileCreateStreamHash onto FileCreate and any RegistryObject*
// kind onto the default row (spec §4.7 table).
func Threshold(role models.HostRole, kind string) int {
	normalized := kind
	if normalized == KindFileCreateStreamHash {
		normalized = KindFileCreate
	}

	byRole, ok := thresholds[role]
	if !ok {
		return defaultThreshold
	}
	if t, ok := byRole[normalized]; ok {
		return t
	}
	return defaultThreshold
}
