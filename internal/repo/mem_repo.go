package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	dom "todoboard/internal/domain"

	"github.com/jackc/pgx/v5"
)

// MemTodoRepo is an in-memory TodoRepo with the same query semantics as
// PGTodoRepo. It backs service and handler tests.
type MemTodoRepo struct {
	mu     sync.Mutex
	rows   map[int64]dom.Todo
	nextID int64
	now    func() time.Time
}

func NewMemTodoRepo() *MemTodoRepo {
	return &MemTodoRepo{
		rows: make(map[int64]dom.Todo),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for created_at.
func (r *MemTodoRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *MemTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = r.now().Truncate(time.Second)
	t = cloneTodo(t)
	r.rows[t.ID] = t
	return cloneTodo(t), nil
}

func (r *MemTodoRepo) GetByID(_ context.Context, id int64) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	return cloneTodo(t), nil
}

func (r *MemTodoRepo) List(_ context.Context, q ListQuery) ([]dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(q.Search)
	list := []dom.Todo{}
	for _, t := range r.rows {
		if q.filterOn(q.Status) && string(t.Status) != q.Status {
			continue
		}
		if q.filterOn(q.Priority) && string(t.Priority) != q.Priority {
			continue
		}
		if q.filterOn(q.Category) && (t.Category == nil || *t.Category != q.Category) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		list = append(list, cloneTodo(t))
	}
	sort.Slice(list, lessFor(q.SortKey(), list))
	return list, nil
}

func lessFor(key string, list []dom.Todo) func(i, j int) bool {
	switch key {
	case SortDueDate:
		return func(i, j int) bool {
			a, b := list[i].DueDate, list[j].DueDate
			switch {
			case a == nil && b == nil:
				return list[i].ID < list[j].ID
			case a == nil:
				return false
			case b == nil:
				return true
			case !a.Equal(*b):
				return a.Before(*b)
			}
			return list[i].ID < list[j].ID
		}
	case SortPriority:
		return func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			return list[i].ID < list[j].ID
		}
	default:
		return func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID > list[j].ID
		}
	}
}

func (r *MemTodoRepo) Update(_ context.Context, id int64, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	t.ID = cur.ID
	t.CreatedAt = cur.CreatedAt
	t = cloneTodo(t)
	r.rows[id] = t
	return cloneTodo(t), nil
}

func (r *MemTodoRepo) UpdateStatus(_ context.Context, id int64, status dom.Status) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	cur.Status = status
	r.rows[id] = cur
	return cloneTodo(cur), nil
}

func (r *MemTodoRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *MemTodoRepo) CountByStatus(_ context.Context) (dom.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s dom.Stats
	for _, t := range r.rows {
		s.Total++
		switch t.Status {
		case dom.StatusPending:
			s.Pending++
		case dom.StatusInProgress:
			s.InProgress++
		case dom.StatusCompleted:
			s.Completed++
		}
	}
	return s, nil
}

func (r *MemTodoRepo) DistinctCategories(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range r.rows {
		if t.Category == nil || *t.Category == "" {
			continue
		}
		if _, ok := seen[*t.Category]; ok {
			continue
		}
		seen[*t.Category] = struct{}{}
		out = append(out, *t.Category)
	}
	sort.Strings(out)
	return out, nil
}

// cloneTodo copies the pointer fields so callers never alias stored rows.
func cloneTodo(t dom.Todo) dom.Todo {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.Category != nil {
		c := *t.Category
		t.Category = &c
	}
	return t
}
