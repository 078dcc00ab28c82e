package patient

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, age, diagnosis, operation, details, picture, relatives, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Diagnosis, &p.Operation, &p.Details,
		&p.Picture, &p.Relatives, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Relatives == nil {
		p.Relatives = []string{}
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, age, diagnosis, operation, details, picture, relatives)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.Diagnosis, p.Operation, p.Details, p.Picture, p.Relatives)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients SET name=$2, age=$3, diagnosis=$4, operation=$5, details=$6, picture=$7, relatives=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.Age, p.Diagnosis, p.Operation, p.Details, p.Picture, p.Relatives)
	err := row.Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, params ListParams) ([]*Patient, int, error) {
	where, args := params.FilterSQL()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	n := len(args)
	query := `SELECT ` + patientCols + ` FROM patients` + where + params.OrderSQL() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, params.Page.Limit, params.Page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Search(ctx context.Context, q string, limit int) ([]*Patient, error) {
	sql, args := SearchSQL(q, limit)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	var avg float64
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(age), 0)::float8,
		       COALESCE(SUM(cardinality(relatives)), 0)
		FROM patients`)
	if err := row.Scan(&s.TotalPatients, &avg, &s.TotalRelatives); err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	if s.TotalPatients > 0 {
		s.AverageAge = int(math.Round(avg))
	}
	return &s, nil
}
