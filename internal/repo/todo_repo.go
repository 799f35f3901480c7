package repo

import (
	"context"

	dom "todoboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo is the Record Store. Missing rows are reported as pgx.ErrNoRows.
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	List(ctx context.Context, q ListQuery) ([]dom.Todo, error)
	Update(ctx context.Context, id int64, t dom.Todo) (dom.Todo, error)
	UpdateStatus(ctx context.Context, id int64, status dom.Status) (dom.Todo, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (dom.Stats, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (dom.Todo, error) {
	var (
		t                dom.Todo
		priority, status string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.DueDate,
		&priority, &status, &t.Category)
	t.Priority = dom.Priority(priority)
	t.Status = dom.Status(status)
	return t, err
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (title, description, due_date, priority, status, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query,
		t.Title, t.Description, t.DueDate, string(t.Priority), string(t.Status), t.Category))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	return scanTodo(r.db.QueryRow(ctx, query, id))
}

func (r *PGTodoRepo) List(ctx context.Context, q ListQuery) ([]dom.Todo, error) {
	query, args := q.Build()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update writes every mutable column of t. id and created_at are left alone.
func (r *PGTodoRepo) Update(ctx context.Context, id int64, t dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos
		SET title = $2, description = $3, due_date = $4, priority = $5, status = $6, category = $7
		WHERE id = $1
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, id,
		t.Title, t.Description, t.DueDate, string(t.Priority), string(t.Status), t.Category))
}

func (r *PGTodoRepo) UpdateStatus(ctx context.Context, id int64, status dom.Status) (dom.Todo, error) {
	query := `UPDATE todos SET status = $2 WHERE id = $1 RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, id, string(status)))
}

func (r *PGTodoRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGTodoRepo) CountByStatus(ctx context.Context) (dom.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM todos`
	var s dom.Stats
	err := r.db.QueryRow(ctx, query,
		string(dom.StatusPending), string(dom.StatusInProgress), string(dom.StatusCompleted),
	).Scan(&s.Total, &s.Pending, &s.InProgress, &s.Completed)
	return s, err
}

func (r *PGTodoRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM todos
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
