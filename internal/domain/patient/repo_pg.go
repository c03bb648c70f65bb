package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ehr/patientlookup/pkg/pagination"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and test doubles.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ db Querier }

func NewPatientRepoPG(db Querier) PatientRepository {
	return &patientRepoPG{db: db}
}

const patientCols = `id, name, date_of_birth, email, created_at, updated_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (id, name, date_of_birth, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.DateOfBirth, p.Email, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanRow(r.db.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select patient: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE patients SET name = $2, date_of_birth = $3, email = $4, updated_at = $5
		WHERE id = $1`,
		p.ID, p.Name, p.DateOfBirth, p.Email, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient exists: %w", err)
	}
	return exists, nil
}

func (r *patientRepoPG) List(ctx context.Context, page pagination.Request) ([]*Patient, int, error) {
	return r.query(ctx, "", nil, page)
}

func (r *patientRepoPG) SearchByName(ctx context.Context, name string, page pagination.Request) ([]*Patient, int, error) {
	return r.query(ctx, ` WHERE name ILIKE $1 ESCAPE '\'`, []interface{}{"%" + escapeLike(name) + "%"}, page)
}

func (r *patientRepoPG) query(ctx context.Context, where string, args []interface{}, page pagination.Request) ([]*Patient, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	n := len(args)
	sql := fmt.Sprintf(`SELECT %s FROM patients%s%s LIMIT $%d OFFSET $%d`,
		patientCols, where, orderClause(page), n+1, n+2)
	rows, err := r.db.Query(ctx, sql, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}
	return items, total, nil
}

// orderClause only emits whitelisted columns. id breaks ties so page
// windows stay stable.
func orderClause(page pagination.Request) string {
	col, ok := sortColumns[page.SortBy]
	if !ok {
		col = sortColumns[SortFields[0]]
	}
	dir := "ASC"
	if page.Direction == pagination.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
