package noise

// sysmonEventIDs maps the well-known Sysmon numeric event IDs to the
// kind names used throughout this package and spec §4.7's grouping/
// threshold tables. NoiseResult.EventID persists the numeric ID; the
// kind is recovered from it when building an ExclusionPack.
var sysmonEventIDs = map[string]string{
	"1":  KindProcessCreate,
	"3":  KindNetworkConnection,
	"7":  KindImageLoaded,
	"8":  KindCreateRemoteThread,
	"10": KindProcessAccess,
	"11": KindFileCreate,
	"12": registryPrefix + "Create/Delete",
	"13": registryPrefix + "Value",
	"14": registryPrefix + "Rename",
	"15": KindFileCreateStreamHash,
	"22": KindDNSQuery,
}

// KindForEventID recovers the event kind for a Sysmon numeric event ID,
// falling back to the raw id string for anything not in the table so an
// unrecognized id still groups deterministically.
func KindForEventID(eventID string) string {
	if kind, ok := sysmonEventIDs[eventID]; ok {
		return kind
	}
	return eventID
}
