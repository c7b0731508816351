// Package transport defines the agentless push-path capabilities
// (spec §2 C2, Design Notes §9): native Windows remote-administration
// primitives, abstracted behind two small interfaces so the dispatcher
// is transport-agnostic. This package ships only the null
// implementations, which report themselves unavailable and return a
// fixed error rather than attempting any I/O; no push-capable
// implementation is included.
package transport

import "context"

// RemoteAdmin runs a remote process and probes basic host facts over a
// WMI-flavored RPC substrate.
type RemoteAdmin interface {
	IsAvailable() bool

	// RunCommand invokes a command line on the target host and returns
	// its exit code.
	RunCommand(ctx context.Context, hostname, commandLine string) (exitCode int, err error)

	// ProbeOSCaption reads the Caption of the host's OS object, used
	// by TestConnectivity.
	ProbeOSCaption(ctx context.Context, hostname string) (string, error)

	// ProbeCollector reports the installed collector's path and
	// version, if any.
	ProbeCollector(ctx context.Context, hostname string) (path, version string, installed bool, err error)

	// QueryEvents reads normalized event samples from the host's event
	// log over the window, honoring maxEvents and an optional event-id
	// filter.
	QueryEvents(ctx context.Context, hostname string, hours float64, maxEvents int, eventIDs []string) ([]RawEventSample, error)
}

// RawEventSample mirrors models.RawEvent at the transport boundary so
// this package has no dependency on internal/models.
type RawEventSample struct {
	EventID        string
	Kind           string
	Image          string
	DestinationIP  string
	ImageLoaded    string
	TargetFilename string
	QueryName      string
	SourceImage    string
	TargetImage    string
}

// FileTransfer copies bytes to and reads bytes from a remote host over
// an SMB-flavored substrate.
type FileTransfer interface {
	IsAvailable() bool
	WriteFile(ctx context.Context, hostname, remotePath string, content []byte) error
	ReadFile(ctx context.Context, hostname, remotePath string) ([]byte, error)
	EnsureDir(ctx context.Context, hostname, remoteDir string) error
}
