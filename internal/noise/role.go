package noise

import (
	"strings"

	"github.com/sysmonctl/controlplane/internal/models"
)

// DetermineRole derives the host role that drives the threshold table
// (spec §4.7) from the host's observed OS string and directory
// distinguished name.
func DetermineRole(os, directoryDN string) models.HostRole {
	if strings.Contains(directoryDN, "Domain Controllers") || strings.Contains(os, "Domain Controller") {
		return models.RoleDomainController
	}
	if strings.Contains(os, "Server") {
		return models.RoleServer
	}
	return models.RoleWorkstation
}
