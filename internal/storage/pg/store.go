package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/DjordjeVuckovic/modelcfg/pkg/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `id, path, kind, name, status, strict, issues, checked_at, duration_ns`

type Store struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
}

func NewStore(pool *ConnectionPool) *Store {
	return &Store{pool: pool, db: pool.conn}
}

func (s *Store) Save(ctx context.Context, r check.Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	issues := r.Issues
	if issues == nil {
		issues = []validate.Issue{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO check_results
			(id, path, kind, name, status, strict, issues, error_count, warning_count, checked_at, duration_ns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path,
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			strict = EXCLUDED.strict,
			issues = EXCLUDED.issues,
			error_count = EXCLUDED.error_count,
			warning_count = EXCLUDED.warning_count,
			checked_at = EXCLUDED.checked_at,
			duration_ns = EXCLUDED.duration_ns
	`,
		r.ID,
		r.Path,
		string(r.Kind),
		r.Name,
		string(r.Status),
		r.Strict,
		issuesJSON,
		r.ErrorCount(),
		r.WarningCount(),
		r.CheckedAt,
		r.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert check result: %w", err)
	}

	slog.DebugContext(ctx, "check result stored", "id", r.ID, "status", r.Status)
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (check.Result, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM check_results WHERE id = $1`, id)
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return check.Result{}, storage.NotFound(id)
	}
	if err != nil {
		return check.Result{}, fmt.Errorf("failed to get check result: %w", err)
	}
	return r, nil
}

func (s *Store) List(ctx context.Context, f storage.Filter) ([]check.Result, error) {
	page := pagination.OffsetRequest{Limit: f.Limit, Offset: f.Offset}
	page.Normalize()

	sql, args := buildListQuery(f, page)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list check results: %w", err)
	}
	defer rows.Close()

	results := make([]check.Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

func buildListQuery(f storage.Filter, page pagination.OffsetRequest) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.Kind != "" {
		add("kind", string(f.Kind))
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	if f.Name != "" {
		add("name", f.Name)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM check_results`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, page.Limit, page.Offset)
	fmt.Fprintf(&b, " ORDER BY checked_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func scanResult(row pgx.Row) (check.Result, error) {
	var (
		r          check.Result
		kind       string
		status     string
		issuesJSON []byte
		durationNs int64
	)
	if err := row.Scan(
		&r.ID,
		&r.Path,
		&kind,
		&r.Name,
		&status,
		&r.Strict,
		&issuesJSON,
		&r.CheckedAt,
		&durationNs,
	); err != nil {
		return check.Result{}, err
	}

	r.Kind = descriptor.Kind(kind)
	r.Status = check.Status(status)
	r.Duration = time.Duration(durationNs)
	r.CheckedAt = r.CheckedAt.UTC()
	if err := json.Unmarshal(issuesJSON, &r.Issues); err != nil {
		return check.Result{}, fmt.Errorf("failed to unmarshal issues: %w", err)
	}
	return r, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
