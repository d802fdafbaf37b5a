package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// EmailRepository persists ingested emails and their attachments.
type EmailRepository interface {
	// InsertIfAbsent stores email unless its message id is already known. On a
	// duplicate, email is overwritten with the stored record and created is false.
	InsertIfAbsent(ctx context.Context, email *domain.Email) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	ListByJobID(ctx context.Context, jobID string) ([]domain.Email, error)
	ListStarredByWorkspace(ctx context.Context, workspaceID string) ([]domain.Email, error)
	GetAttachment(ctx context.Context, emailID string, index int) (*domain.EmailAttachment, error)
	Delete(ctx context.Context, id string) error
}

type emailRepository struct {
	pool *pgxpool.Pool
}

// NewEmailRepository constructs repository.
func NewEmailRepository(pool *pgxpool.Pool) EmailRepository {
	return &emailRepository{pool: pool}
}

const emailColumns = `id, message_id, from_name, from_address, to_addresses, cc_addresses, subject,
               body_html, body_text, sent_at, is_starred, workspace_id, fetched_by, job_id, created_at`

func (r *emailRepository) InsertIfAbsent(ctx context.Context, email *domain.Email) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO emails (message_id, from_name, from_address, to_addresses, cc_addresses, subject,
            body_html, body_text, sent_at, is_starred, workspace_id, fetched_by, job_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (message_id) DO NOTHING
        RETURNING id, created_at`
	err = tx.QueryRow(ctx, insert,
		email.MessageID,
		email.From.Name,
		email.From.Address,
		addressList(email.To),
		addressList(email.Cc),
		email.Subject,
		email.Body.HTML,
		email.Body.Text,
		email.Date,
		email.IsStarred,
		email.WorkspaceID,
		email.FetchedBy,
		email.JobID,
	).Scan(&email.ID, &email.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.getByMessageID(ctx, email.MessageID)
		if err != nil {
			return false, err
		}
		*email = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if len(email.Attachments) > 0 {
		rows := make([][]any, 0, len(email.Attachments))
		for i := range email.Attachments {
			att := &email.Attachments[i]
			att.Index = i
			rows = append(rows, []any{email.ID, i, att.Filename, att.ContentType, att.Size, att.Content, att.ContentID})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"email_attachments"},
			[]string{"email_id", "position", "filename", "content_type", "size_bytes", "content", "content_id"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *emailRepository) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id=$1`
	email, err := scanEmail(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	emails := []domain.Email{*email}
	if err := r.attachAttachments(ctx, emails, true); err != nil {
		return nil, err
	}
	return &emails[0], nil
}

func (r *emailRepository) getByMessageID(ctx context.Context, messageID string) (*domain.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE message_id=$1`
	email, err := scanEmail(r.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		return nil, err
	}
	emails := []domain.Email{*email}
	if err := r.attachAttachments(ctx, emails, true); err != nil {
		return nil, err
	}
	return &emails[0], nil
}

func (r *emailRepository) ListByJobID(ctx context.Context, jobID string) ([]domain.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE job_id=$1 ORDER BY sent_at DESC`
	return r.list(ctx, query, true, jobID)
}

func (r *emailRepository) ListStarredByWorkspace(ctx context.Context, workspaceID string) ([]domain.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE workspace_id=$1 AND is_starred=TRUE ORDER BY sent_at DESC`
	return r.list(ctx, query, false, workspaceID)
}

func (r *emailRepository) GetAttachment(ctx context.Context, emailID string, index int) (*domain.EmailAttachment, error) {
	const query = `
        SELECT position, filename, content_type, size_bytes, content, content_id
        FROM email_attachments WHERE email_id=$1 AND position=$2`
	var att domain.EmailAttachment
	if err := r.pool.QueryRow(ctx, query, emailID, index).Scan(
		&att.Index,
		&att.Filename,
		&att.ContentType,
		&att.Size,
		&att.Content,
		&att.ContentID,
	); err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *emailRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM emails WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *emailRepository) list(ctx context.Context, query string, withContent bool, arg any) ([]domain.Email, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	emails := []domain.Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		emails = append(emails, *email)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachAttachments(ctx, emails, withContent); err != nil {
		return nil, err
	}
	return emails, nil
}

// attachAttachments loads attachments for emails in one query, ordered by position.
func (r *emailRepository) attachAttachments(ctx context.Context, emails []domain.Email, withContent bool) error {
	if len(emails) == 0 {
		return nil
	}
	ids := make([]string, 0, len(emails))
	byID := make(map[string]int, len(emails))
	for i := range emails {
		ids = append(ids, emails[i].ID)
		byID[emails[i].ID] = i
		emails[i].Attachments = []domain.EmailAttachment{}
	}

	contentExpr := "content"
	if !withContent {
		contentExpr = "NULL::bytea"
	}
	query := `
        SELECT email_id, position, filename, content_type, size_bytes, ` + contentExpr + `, content_id
        FROM email_attachments WHERE email_id::text = ANY($1) ORDER BY email_id, position`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var emailID string
		var att domain.EmailAttachment
		if err := rows.Scan(&emailID, &att.Index, &att.Filename, &att.ContentType, &att.Size, &att.Content, &att.ContentID); err != nil {
			return err
		}
		if i, ok := byID[emailID]; ok {
			emails[i].Attachments = append(emails[i].Attachments, att)
		}
	}
	return rows.Err()
}

func scanEmail(row pgx.Row) (*domain.Email, error) {
	var email domain.Email
	var to, cc []domain.Address
	if err := row.Scan(
		&email.ID,
		&email.MessageID,
		&email.From.Name,
		&email.From.Address,
		&to,
		&cc,
		&email.Subject,
		&email.Body.HTML,
		&email.Body.Text,
		&email.Date,
		&email.IsStarred,
		&email.WorkspaceID,
		&email.FetchedBy,
		&email.JobID,
		&email.CreatedAt,
	); err != nil {
		return nil, err
	}
	email.To = to
	email.Cc = cc
	return &email, nil
}

func addressList(addrs []domain.Address) []domain.Address {
	if addrs == nil {
		return []domain.Address{}
	}
	return addrs
}
