package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// CommandStore is the logical command queue of spec §4.3: there is no
// separate in-memory queue, only PendingCommand rows. Enqueue = insert;
// deliver = ClaimDueCommandsFor, which Heartbeat calls after updating
// the Host.
type CommandStore struct {
	s *Store
}

func NewCommandStore(s *Store) *CommandStore {
	return &CommandStore{s: s}
}

// Enqueue inserts a new PendingCommand for hostID.
func (c *CommandStore) Enqueue(ctx context.Context, cmd *models.PendingCommand) error {
	return c.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertCommand,
			cmd.CommandID, cmd.HostRef, string(cmd.Type), cmd.PayloadBytes, cmd.CreatedAt.UTC(),
			nullString(cmd.InitiatedBy), nullInt64(cmd.DeploymentJobRef),
		)
		return row.Scan(&cmd.ID)
	})
}

func (c *CommandStore) GetByCommandID(ctx context.Context, commandID string) (*models.PendingCommand, error) {
	row := c.s.db.QueryRowContext(ctx, queryGetCommandByCommandID, commandID)
	cmd, err := scanCommand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewCommandNotFoundError(commandID)
	}
	return cmd, err
}

// ClaimDueCommandsFor selects every PendingCommand for hostID still
// unsent, orders them by created_at (per-Host FIFO, spec §4.3), marks
// them sent, and returns them — all inside one transaction of its own
// (withTx). It does not share a transaction with the caller's Host
// update.
func (c *CommandStore) ClaimDueCommandsFor(ctx context.Context, hostID int64, now time.Time) ([]models.PendingCommand, error) {
	var claimed []models.PendingCommand
	err := c.s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, queryClaimDueCommandsFor, hostID)
		if err != nil {
			return err
		}
		var pending []models.PendingCommand
		for rows.Next() {
			cmd, err := scanCommandRows(rows)
			if err != nil {
				rows.Close()
				return err
			}
			pending = append(pending, *cmd)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for i := range pending {
			if _, err := tx.ExecContext(ctx, queryMarkCommandSent, now.UTC(), pending[i].ID); err != nil {
				return err
			}
			pending[i].SentAt = &now
		}
		claimed = pending
		return nil
	})
	return claimed, err
}

// Complete sets the terminal result on a command, idempotent on
// command_id: if the command is already terminal, the call is a no-op
// so an agent retry leaves the store bit-identical (spec §8).
func (c *CommandStore) Complete(ctx context.Context, commandID string, status models.CommandResultStatus, message string, payload []byte, now time.Time) (*models.PendingCommand, bool, error) {
	var (
		cmd     *models.PendingCommand
		applied bool
	)
	err := c.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryGetCommandByCommandID, commandID)
		found, err := scanCommand(row)
		if errors.Is(err, sql.ErrNoRows) {
			return srvErrors.NewCommandNotFoundError(commandID)
		}
		if err != nil {
			return err
		}
		cmd = found

		if found.Terminal() {
			return nil
		}

		if _, err := tx.ExecContext(ctx, queryCompleteCommand, now.UTC(), string(status), message, payload, found.ID); err != nil {
			return err
		}
		found.CompletedAt = &now
		found.ResultStatus = &status
		found.ResultMessage = message
		found.ResultPayload = payload
		applied = true
		return nil
	})
	return cmd, applied, err
}

func scanCommand(row *sql.Row) (*models.PendingCommand, error) {
	return scanCommandGeneric(row)
}

func scanCommandRows(rows *sql.Rows) (*models.PendingCommand, error) {
	return scanCommandGeneric(rows)
}

func scanCommandGeneric(row rowScanner) (*models.PendingCommand, error) {
	var (
		cmd                           models.PendingCommand
		typ                           string
		payloadRaw, resultPayloadRaw  []byte
		resultMessage                 sql.NullString
		sentAt, completedAt           sql.NullTime
		resultStatus                  sql.NullString
		initiatedBy                   sql.NullString
		deploymentJobRef              sql.NullInt64
	)

	err := row.Scan(
		&cmd.ID, &cmd.CommandID, &cmd.HostRef, &typ, &payloadRaw, &cmd.CreatedAt,
		&sentAt, &completedAt, &resultStatus, &resultMessage, &resultPayloadRaw,
		&initiatedBy, &deploymentJobRef,
	)
	if err != nil {
		return nil, err
	}

	cmd.Type = models.CommandType(typ)
	cmd.PayloadBytes = payloadRaw
	cmd.ResultPayload = resultPayloadRaw
	cmd.ResultMessage = resultMessage.String
	cmd.InitiatedBy = initiatedBy.String

	if sentAt.Valid {
		t := sentAt.Time
		cmd.SentAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		cmd.CompletedAt = &t
	}
	if resultStatus.Valid {
		s := models.CommandResultStatus(resultStatus.String)
		cmd.ResultStatus = &s
	}
	if deploymentJobRef.Valid {
		v := deploymentJobRef.Int64
		cmd.DeploymentJobRef = &v
	}

	return &cmd, nil
}
