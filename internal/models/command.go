package models

import "time"

// CommandType is the closed set of operations the agent is willing to
// execute. Anything outside this set is rejected by the agent's own
// policy (spec'd, not implemented here). internal/agentpolicy's
// ValidateCommandPayload also rejects unknown types, but nothing calls
// it before a command is enqueued.
type CommandType string

const (
	CommandGetStatus          CommandType = "GetStatus"
	CommandInstallCollector   CommandType = "InstallCollector"
	CommandUpdateConfig       CommandType = "UpdateConfig"
	CommandUninstallCollector CommandType = "UninstallCollector"
	CommandQueryEvents        CommandType = "QueryEvents"
	CommandRestartCollector   CommandType = "RestartCollector"
)

type CommandResultStatus string

const (
	CommandResultSuccess CommandResultStatus = "Success"
	CommandResultFailed  CommandResultStatus = "Failed"
)

// PendingCommand is a durable instruction awaiting (or having awaited)
// agent pickup and execution. It is "new" while SentAt is nil, "in-flight"
// while SentAt is set and CompletedAt is nil, and "terminal" once
// CompletedAt is set.
type PendingCommand struct {
	ID        int64
	CommandID string
	HostRef   int64
	Type      CommandType

	PayloadBytes []byte

	CreatedAt   time.Time
	SentAt      *time.Time
	CompletedAt *time.Time

	ResultStatus  *CommandResultStatus
	ResultMessage string
	ResultPayload []byte

	InitiatedBy      string
	DeploymentJobRef *int64
}

func (c *PendingCommand) New() bool {
	return c.SentAt == nil
}

func (c *PendingCommand) InFlight() bool {
	return c.SentAt != nil && c.CompletedAt == nil
}

func (c *PendingCommand) Terminal() bool {
	return c.CompletedAt != nil
}
