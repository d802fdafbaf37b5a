package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// TicketPatch lists the fields an update writes. Nil fields are left untouched,
// so concurrent patches touching different fields do not overwrite each other.
type TicketPatch struct {
	ConsultantName *string
	ClientName     *string
	ClientEmail    *string
	Subject        *string
	Message        *string
	Status         *domain.TicketStatus
	AssignedInfo   *domain.AssignedInfo
	Meta           *domain.TicketMeta
	Attachments    *[]domain.TicketAttachment
	// AssignedAt and StartedAt only fill a NULL column; an existing stamp wins.
	AssignedAt *time.Time
	StartedAt  *time.Time
}

// Empty reports whether the patch writes nothing.
func (p TicketPatch) Empty() bool {
	return p.ConsultantName == nil && p.ClientName == nil && p.ClientEmail == nil &&
		p.Subject == nil && p.Message == nil && p.Status == nil && p.AssignedInfo == nil &&
		p.Meta == nil && p.Attachments == nil && p.AssignedAt == nil && p.StartedAt == nil
}

var (
	// ErrSourceEmailNotFound is returned by Create when SourceEmailID names no stored email.
	ErrSourceEmailNotFound = errors.New("source email not found")
	// ErrEmailAlreadyTagged is returned by Create when the source email already
	// belongs to a different job id. A tag is never moved once written.
	ErrEmailAlreadyTagged = errors.New("email already tagged with another job id")
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts ticket. With a SourceEmailID, the email is tagged with the
	// ticket's job id in the same transaction.
	Create(ctx context.Context, ticket *domain.Ticket) error
	Patch(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByJobID(ctx context.Context, jobID string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByAssignee(ctx context.Context, empName string) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, job_id, consultant_name, client_name, client_email, subject, message, status,
               assigned_info, meta, created_by, created_at, assigned_at, started_at, attachments, source_email_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (job_id, consultant_name, client_name, client_email, subject, message, status,
            assigned_info, meta, created_by, assigned_at, started_at, attachments, source_email_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at`
	attachments := ticket.Attachments
	if attachments == nil {
		attachments = []domain.TicketAttachment{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if ticket.SourceEmailID != nil {
		if err := tagSourceEmail(ctx, tx, *ticket.SourceEmailID, ticket.JobID); err != nil {
			return err
		}
	}
	if err := tx.QueryRow(ctx, query,
		ticket.JobID,
		ticket.ConsultantName,
		ticket.ClientName,
		ticket.ClientEmail,
		ticket.Subject,
		ticket.Message,
		ticket.Status,
		ticket.AssignedInfo,
		ticket.Meta,
		ticket.CreatedBy,
		ticket.AssignedAt,
		ticket.StartedAt,
		attachments,
		ticket.SourceEmailID,
	).Scan(&ticket.ID, &ticket.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// tagSourceEmail sets the email's job id if it has none. The row is locked so
// two tickets raised from one email cannot both claim it.
func tagSourceEmail(ctx context.Context, tx pgx.Tx, emailID, jobID string) error {
	var current *string
	err := tx.QueryRow(ctx, `SELECT job_id FROM emails WHERE id=$1 FOR UPDATE`, emailID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSourceEmailNotFound
	}
	if err != nil {
		return err
	}
	if current != nil {
		if *current != jobID {
			return ErrEmailAlreadyTagged
		}
		return nil
	}
	_, err = tx.Exec(ctx, `UPDATE emails SET job_id=$1 WHERE id=$2 AND job_id IS NULL`, jobID, emailID)
	return err
}

func (r *ticketRepository) Patch(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	query, args := patchQuery(id, patch)
	return scanTicket(r.pool.QueryRow(ctx, query, args...))
}

// patchQuery builds the UPDATE for patch. Set-once columns keep their stored
// value through COALESCE.
func patchQuery(id string, patch TicketPatch) (string, []any) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	setOnce := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=COALESCE(%s, $%d)", column, column, len(args)))
	}

	if patch.ConsultantName != nil {
		set("consultant_name", *patch.ConsultantName)
	}
	if patch.ClientName != nil {
		set("client_name", *patch.ClientName)
	}
	if patch.ClientEmail != nil {
		set("client_email", *patch.ClientEmail)
	}
	if patch.Subject != nil {
		set("subject", *patch.Subject)
	}
	if patch.Message != nil {
		set("message", *patch.Message)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.AssignedInfo != nil {
		set("assigned_info", *patch.AssignedInfo)
	}
	if patch.Meta != nil {
		set("meta", *patch.Meta)
	}
	if patch.Attachments != nil {
		set("attachments", *patch.Attachments)
	}
	if patch.AssignedAt != nil {
		setOnce("assigned_at", *patch.AssignedAt)
	}
	if patch.StartedAt != nil {
		setOnce("started_at", *patch.StartedAt)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)
	return query, args
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByJobID(ctx context.Context, jobID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE job_id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, jobID))
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByAssignee(ctx context.Context, empName string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE assigned_info->>'empName'=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, empName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.JobID,
		&ticket.ConsultantName,
		&ticket.ClientName,
		&ticket.ClientEmail,
		&ticket.Subject,
		&ticket.Message,
		&ticket.Status,
		&ticket.AssignedInfo,
		&ticket.Meta,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.AssignedAt,
		&ticket.StartedAt,
		&ticket.Attachments,
		&ticket.SourceEmailID,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
