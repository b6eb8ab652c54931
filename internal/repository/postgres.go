package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// NewPostgres returns repositories backed by the dev_users and dev_records
// tables. Record filters run in Go after loading the resource's rows.
func NewPostgres(pool *pgxpool.Pool) *Repositories {
	rec := func(resource string) RecordRepository {
		return &pgRecords{pool: pool, resource: resource, now: time.Now}
	}
	return &Repositories{
		Users:         &pgUsers{pool: pool},
		Organisations: rec("organisations"),
		Projects:      rec("projects"),
		Funding:       rec("funding"),
		Reports:       rec("reports"),
		Distributions: rec("distributions"),
		Verifications: rec("verifications"),
		Audit:         rec("audit"),
	}
}

type pgRecords struct {
	pool     *pgxpool.Pool
	resource string
	now      func() time.Time
}

func (r *pgRecords) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	row := rec.Clone()
	delete(row, "id")
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = r.now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	const query = `
        INSERT INTO dev_records (resource, data)
        VALUES ($1, $2)
        RETURNING id`
	var id int64
	if err := r.pool.QueryRow(ctx, query, r.resource, data).Scan(&id); err != nil {
		return nil, err
	}
	row["id"] = id
	return row, nil
}

func (r *pgRecords) Get(ctx context.Context, id int64) (domain.Record, error) {
	const query = `SELECT data FROM dev_records WHERE resource=$1 AND id=$2`
	var data []byte
	if err := r.pool.QueryRow(ctx, query, r.resource, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return decodeRecord(id, data)
}

func (r *pgRecords) Update(ctx context.Context, id int64, fields domain.Record) (domain.Record, error) {
	patch := fields.Clone()
	delete(patch, "id")
	delete(patch, "created_at")
	patch["updated_at"] = r.now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	const query = `
        UPDATE dev_records SET data = data || $3::jsonb
        WHERE resource=$1 AND id=$2
        RETURNING data`
	var merged []byte
	if err := r.pool.QueryRow(ctx, query, r.resource, id, data).Scan(&merged); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return decodeRecord(id, merged)
}

func (r *pgRecords) List(ctx context.Context, match func(domain.Record) bool) ([]domain.Record, error) {
	const query = `SELECT id, data FROM dev_records WHERE resource=$1 ORDER BY id DESC`
	rows, err := r.pool.Query(ctx, query, r.resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Record{}
	for rows.Next() {
		var id int64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(id, data)
		if err != nil {
			return nil, err
		}
		if match == nil || match(rec) {
			result = append(result, rec)
		}
	}
	return result, rows.Err()
}

func (r *pgRecords) Count(ctx context.Context, match func(domain.Record) bool) (int, error) {
	rows, err := r.List(ctx, match)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// decodeRecord restores id as int64 so records compare the same way they
// do in the memory store.
func decodeRecord(id int64, data []byte) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	for k, v := range rec {
		if f, ok := v.(float64); ok && f == float64(int64(f)) && isIDField(k) {
			rec[k] = int64(f)
		}
	}
	rec["id"] = id
	return rec, nil
}

func isIDField(k string) bool {
	switch k {
	case "project", "organisation", "donor", "submitted_by", "field_officer", "user", "entity_id":
		return true
	}
	return false
}

type pgUsers struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, email, first_name, last_name, role, organisation, phone, is_approved, password_hash, created_at`

func (r *pgUsers) Create(ctx context.Context, account *Account) error {
	const query = `
        INSERT INTO dev_users (username, email, first_name, last_name, role, organisation, phone, is_approved, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		string(account.Role),
		account.Organisation,
		account.Phone,
		account.IsApproved,
		account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUsernameTaken
	}
	return err
}

func (r *pgUsers) Update(ctx context.Context, account *Account) error {
	const query = `
        UPDATE dev_users SET email=$1, first_name=$2, last_name=$3, role=$4, organisation=$5,
            phone=$6, is_approved=$7, password_hash=$8
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		account.Email,
		account.FirstName,
		account.LastName,
		string(account.Role),
		account.Organisation,
		account.Phone,
		account.IsApproved,
		account.PasswordHash,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *pgUsers) GetByID(ctx context.Context, id int64) (*Account, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM dev_users WHERE id=$1`, id)
}

func (r *pgUsers) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM dev_users WHERE username=$1`, username)
}

func (r *pgUsers) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *pgUsers) List(ctx context.Context, match func(*Account) bool) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM dev_users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		if match == nil || match(account) {
			result = append(result, *account)
		}
	}
	return result, rows.Err()
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	if err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&role,
		&a.Organisation,
		&a.Phone,
		&a.IsApproved,
		&a.PasswordHash,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}
