package models

import "time"

type AuditAction string

const (
	AuditConfigUploaded          AuditAction = "ConfigUploaded"
	AuditConfigUpdated           AuditAction = "ConfigUpdated"
	AuditConfigDeleted           AuditAction = "ConfigDeleted"
	AuditDeploymentStart         AuditAction = "DeploymentStart"
	AuditDeploymentCancel        AuditAction = "DeploymentCancel"
	AuditDeploymentPurge         AuditAction = "DeploymentPurge"
	AuditScheduledDeployCreate   AuditAction = "ScheduledDeploymentCreate"
	AuditScheduledDeployCancel   AuditAction = "ScheduledDeploymentCancel"
	AuditDirectoryRefresh        AuditAction = "ADRefresh"
	AuditInventoryScan           AuditAction = "InventoryScan"
	AuditNoiseAnalysisStart      AuditAction = "NoiseAnalysisStart"
	AuditNoiseAnalysisDelete     AuditAction = "NoiseAnalysisDelete"
	AuditNoiseAnalysisPurge      AuditAction = "NoiseAnalysisPurge"
	AuditLogin                   AuditAction = "Login"
	AuditAuthorizationDenial     AuditAction = "AuthorizationDenial"
	AuditSettingsUpdate          AuditAction = "SettingsUpdate"
	AuditBinaryCacheUpdate       AuditAction = "BinaryCacheUpdate"
	AuditServiceRestart          AuditAction = "ServiceRestart"
	AuditAgentRegistration       AuditAction = "AgentRegistration"
	AuditAgentCommandCompleted   AuditAction = "AgentCommandCompleted"
)

// AuditEntry is an append-only record of an operator-visible action or
// agent registration/command completion.
type AuditEntry struct {
	ID          int64
	Timestamp   time.Time
	User        string
	Action      AuditAction
	DetailsJSON string
}
