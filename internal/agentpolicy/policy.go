// Package agentpolicy gives the agent-side security contract of spec §4.2
// ("Security contract encoded in the agent") a home on the server: the
// same whitelist the agent enforces (binary names, CLI flags,
// publisher/product metadata, expected content hash), as pure,
// independently testable checks. No other package calls these checks;
// in particular the dispatcher enqueues commands without running them.
package agentpolicy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/sysmonctl/controlplane/internal/models"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// AllowedBinaries are the only two file names the agent will execute,
// case-insensitive (spec §4.2).
var AllowedBinaries = []string{"sysmon.exe", "sysmon64.exe"}

// AllowedFlags is the closed set of CLI flags permitted on an install or
// uninstall invocation.
var AllowedFlags = map[string]bool{
	"-accepteula": true,
	"-i":          true,
	"-c":          true,
	"-u":          true,
	"-h":          true,
}

// AllowedPublishers and AllowedProductSubstring gate a newly received
// binary before it is trusted: embedded metadata must name one of the
// known publishers and mention the collector's product name.
var AllowedPublishers = []string{"Microsoft", "Sysinternals", "Mark Russinovich"}

const AllowedProductSubstring = "Sysmon"

// BinaryName validates that filename is one of the two permitted
// collector binary names.
func BinaryName(filename string) error {
	lower := strings.ToLower(filename)
	for _, allowed := range AllowedBinaries {
		if lower == allowed {
			return nil
		}
	}
	return srvErrors.NewValidationError("binary %q is not an allowed collector binary", filename)
}

// CommandFlags validates that every flag in args is in the closed set
// AllowedFlags. Anything else is rejected outright.
func CommandFlags(args []string) error {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && !AllowedFlags[arg] {
			return srvErrors.NewValidationError("flag %q is not permitted", arg)
		}
	}
	return nil
}

// BinaryMetadata is the embedded version/publisher information the agent
// is specified to check before executing a newly received binary.
type BinaryMetadata struct {
	Publisher        string
	ProductOrComment string
}

// VerifyMetadata enforces the publisher/product whitelist of spec §4.2. A
// failure means the binary must be deleted by the caller, never executed.
func VerifyMetadata(meta BinaryMetadata) error {
	var publisherOK bool
	for _, allowed := range AllowedPublishers {
		if strings.Contains(meta.Publisher, allowed) {
			publisherOK = true
			break
		}
	}
	if !publisherOK {
		return srvErrors.NewIntegrityFailureError("binary publisher %q is not recognized", meta.Publisher)
	}
	if !strings.Contains(meta.ProductOrComment, AllowedProductSubstring) {
		return srvErrors.NewIntegrityFailureError("binary product metadata %q does not match the collector", meta.ProductOrComment)
	}
	return nil
}

// VerifyHash recomputes SHA-256 over content and compares it against
// expectedHash (hex-encoded), rejecting on mismatch (spec §4.2: config
// payloads carrying an expected_hash).
func VerifyHash(content []byte, expectedHash string) error {
	if expectedHash == "" {
		return nil
	}
	sum := sha256.Sum256(content)
	got := hex.EncodeToString(sum[:])
	if got != strings.ToLower(expectedHash) {
		return srvErrors.NewIntegrityFailureError("content hash %s does not match expected %s", got, expectedHash)
	}
	return nil
}

// ValidateCommandPayload checks a command against the whitelist by its
// type: for InstallCollector/UninstallCollector it validates the given
// binary file name and CLI arguments; the other known command types pass
// unchecked; an unknown type is rejected. The dispatcher does not call it.
func ValidateCommandPayload(cmdType models.CommandType, binaryFilename string, args []string) error {
	switch cmdType {
	case models.CommandInstallCollector, models.CommandUninstallCollector:
		if err := BinaryName(binaryFilename); err != nil {
			return err
		}
		return CommandFlags(args)
	case models.CommandUpdateConfig, models.CommandGetStatus, models.CommandQueryEvents, models.CommandRestartCollector:
		return nil
	default:
		return srvErrors.NewValidationError("command type %q is not an accepted command type", cmdType)
	}
}
