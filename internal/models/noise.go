package models

import "time"

type NoiseLevel string

const (
	NoiseLevelNormal    NoiseLevel = "Normal"
	NoiseLevelNoisy     NoiseLevel = "Noisy"
	NoiseLevelVeryNoisy NoiseLevel = "VeryNoisy"
)

// HostRole drives the noise-analysis threshold table (spec §4.7).
type HostRole string

const (
	RoleWorkstation      HostRole = "Workstation"
	RoleServer           HostRole = "Server"
	RoleDomainController HostRole = "DomainController"
)

// NoiseAnalysisRun is one noise-analysis execution against a single Host.
type NoiseAnalysisRun struct {
	ID                 int64
	HostRef            int64
	TimeRangeHours      float64
	TotalEventsObserved int
	AnalyzedAt          time.Time
}

// NoiseResult is one grouped event pattern discovered during a run.
type NoiseResult struct {
	RunRef             int64
	EventID            string
	GroupingKey        string
	EventCount         int
	NoiseScore         float64
	SuggestedExclusion string
}

// RawEvent is a normalized event sample as returned by either transport
// (RemoteAdmin event-log query, or the agent's QueryEvents command
// result payload).
type RawEvent struct {
	EventID        string
	Kind           string
	Image          string
	DestinationIP  string
	ImageLoaded    string
	TargetFilename string
	QueryName      string
	SourceImage    string
	TargetImage    string
	Timestamp      time.Time
}
