package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// TeamMemberRepository manages persistence for assignable workers.
type TeamMemberRepository interface {
	Create(ctx context.Context, member *domain.TeamMember) error
	Update(ctx context.Context, member *domain.TeamMember) error
	GetByID(ctx context.Context, id string) (*domain.TeamMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.TeamMember, error)
	ListActive(ctx context.Context) ([]domain.TeamMember, error)
	Deactivate(ctx context.Context, id string) error
}

type teamMemberRepository struct {
	pool *pgxpool.Pool
}

// NewTeamMemberRepository constructs repository.
func NewTeamMemberRepository(pool *pgxpool.Pool) TeamMemberRepository {
	return &teamMemberRepository{pool: pool}
}

const teamMemberColumns = `id, name, email_id, team_name, tl_name, is_active, created_at, updated_at`

func (r *teamMemberRepository) Create(ctx context.Context, member *domain.TeamMember) error {
	const query = `
        INSERT INTO team_members (name, email_id, team_name, tl_name, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		member.Name,
		member.EmailID,
		member.TeamName,
		member.TLName,
		member.IsActive,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
}

func (r *teamMemberRepository) Update(ctx context.Context, member *domain.TeamMember) error {
	const query = `
        UPDATE team_members SET name=$1, email_id=$2, team_name=$3, tl_name=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		member.Name,
		member.EmailID,
		member.TeamName,
		member.TLName,
		member.IsActive,
		member.ID,
	).Scan(&member.UpdatedAt)
}

func (r *teamMemberRepository) GetByID(ctx context.Context, id string) (*domain.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + ` FROM team_members WHERE id=$1`
	return scanTeamMember(r.pool.QueryRow(ctx, query, id))
}

func (r *teamMemberRepository) GetByEmail(ctx context.Context, email string) (*domain.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + ` FROM team_members WHERE email_id=$1 AND is_active=TRUE LIMIT 1`
	return scanTeamMember(r.pool.QueryRow(ctx, query, email))
}

func (r *teamMemberRepository) ListActive(ctx context.Context) ([]domain.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + ` FROM team_members WHERE is_active=TRUE ORDER BY tl_name ASC, name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TeamMember{}
	for rows.Next() {
		member, err := scanTeamMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *member)
	}
	return result, rows.Err()
}

func (r *teamMemberRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE team_members SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTeamMember(row pgx.Row) (*domain.TeamMember, error) {
	var member domain.TeamMember
	if err := row.Scan(
		&member.ID,
		&member.Name,
		&member.EmailID,
		&member.TeamName,
		&member.TLName,
		&member.IsActive,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}
