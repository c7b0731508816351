// Package errors defines the typed error kinds the control plane core
// recognizes (spec §7). Each kind has a constructor and an Is* predicate
// built on errors.As so callers can branch on kind without string
// matching.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a host/config/job/command lookup misses.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func NewHostNotFoundError(id string) error   { return NewNotFoundError("host", id) }
func NewConfigNotFoundError(id string) error { return NewNotFoundError("config", id) }
func NewJobNotFoundError(id string) error    { return NewNotFoundError("deployment job", id) }
func NewCommandNotFoundError(id string) error { return NewNotFoundError("pending command", id) }
func NewScheduleNotFoundError(id string) error {
	return NewNotFoundError("scheduled deployment", id)
}

// ValidationError is returned for bad input: malformed XML, a schedule
// in the past, an empty registration token, etc.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// TransportUnavailableError is a per-Host failure when RemoteAdmin or
// FileTransfer is not configured for the deployment mode in use. The
// Job continues past it.
type TransportUnavailableError struct {
	Transport string
}

func (e *TransportUnavailableError) Error() string {
	return fmt.Sprintf("%s transport unavailable", e.Transport)
}

func NewTransportUnavailableError(transport string) error {
	return &TransportUnavailableError{Transport: transport}
}

func IsTransportUnavailableError(err error) bool {
	var target *TransportUnavailableError
	return errors.As(err, &target)
}

// RemoteFailureError wraps a WMI/SMB/RPC-flavored remote error code,
// translated to a short human message.
type RemoteFailureError struct {
	Code    int
	Message string
}

func (e *RemoteFailureError) Error() string { return e.Message }

var remoteFailureMessages = map[int]string{
	2:  "Access denied",
	3:  "Insufficient privilege",
	9:  "Path not found",
	21: "Invalid parameter",
}

// NewRemoteFailureError translates a transport-reported code into the
// fixed short message table of spec §7, falling back to a generic
// message for unrecognized codes.
func NewRemoteFailureError(code int) error {
	msg, ok := remoteFailureMessages[code]
	if !ok {
		msg = fmt.Sprintf("remote operation failed (code %d)", code)
	}
	return &RemoteFailureError{Code: code, Message: msg}
}

func IsRemoteFailureError(err error) bool {
	var target *RemoteFailureError
	return errors.As(err, &target)
}

// AgentTimeoutError is raised when no CommandResult arrives within the
// per-command deadline. The PendingCommand row remains so a late result
// can still resolve it.
type AgentTimeoutError struct {
	CommandID string
}

func (e *AgentTimeoutError) Error() string {
	return fmt.Sprintf("command %s timed out awaiting agent result", e.CommandID)
}

func NewAgentTimeoutError(commandID string) error {
	return &AgentTimeoutError{CommandID: commandID}
}

func IsAgentTimeoutError(err error) bool {
	var target *AgentTimeoutError
	return errors.As(err, &target)
}

// AgentAuthFailedError signals the agent must re-register.
type AgentAuthFailedError struct{}

func (e *AgentAuthFailedError) Error() string { return "agent authentication failed" }

func NewAgentAuthFailedError() error { return &AgentAuthFailedError{} }

func IsAgentAuthFailedError(err error) bool {
	var target *AgentAuthFailedError
	return errors.As(err, &target)
}

// IntegrityFailureError is fatal for the single operation: a hash
// mismatch or a binary that failed publisher/product validation.
type IntegrityFailureError struct {
	Message string
}

func (e *IntegrityFailureError) Error() string { return e.Message }

func NewIntegrityFailureError(format string, args ...any) error {
	return &IntegrityFailureError{Message: fmt.Sprintf(format, args...)}
}

func IsIntegrityFailureError(err error) bool {
	var target *IntegrityFailureError
	return errors.As(err, &target)
}

// CancelledError marks cooperative cancellation of a Job.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "cancelled" }

func NewCancelledError() error { return &CancelledError{} }

func IsCancelledError(err error) bool {
	var target *CancelledError
	return errors.As(err, &target)
}
