package transport

import (
	"context"

	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// NullRemoteAdmin is used when no RemoteAdmin substrate is configured.
// Every operation fails with a fixed TransportUnavailableError so the
// dispatcher can attribute the failure per Host without treating it as
// a Job-level fault (spec §7).
type NullRemoteAdmin struct{}

func (NullRemoteAdmin) IsAvailable() bool { return false }

func (NullRemoteAdmin) RunCommand(context.Context, string, string) (int, error) {
	return 0, srvErrors.NewTransportUnavailableError("RemoteAdmin")
}

func (NullRemoteAdmin) ProbeOSCaption(context.Context, string) (string, error) {
	return "", srvErrors.NewTransportUnavailableError("RemoteAdmin")
}

func (NullRemoteAdmin) ProbeCollector(context.Context, string) (string, string, bool, error) {
	return "", "", false, srvErrors.NewTransportUnavailableError("RemoteAdmin")
}

func (NullRemoteAdmin) QueryEvents(context.Context, string, float64, int, []string) ([]RawEventSample, error) {
	return nil, srvErrors.NewTransportUnavailableError("RemoteAdmin")
}

// NullFileTransfer is used when no FileTransfer substrate is configured.
type NullFileTransfer struct{}

func (NullFileTransfer) IsAvailable() bool { return false }

func (NullFileTransfer) WriteFile(context.Context, string, string, []byte) error {
	return srvErrors.NewTransportUnavailableError("FileTransfer")
}

func (NullFileTransfer) ReadFile(context.Context, string, string) ([]byte, error) {
	return nil, srvErrors.NewTransportUnavailableError("FileTransfer")
}

func (NullFileTransfer) EnsureDir(context.Context, string, string) error {
	return srvErrors.NewTransportUnavailableError("FileTransfer")
}
