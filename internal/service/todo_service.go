package service

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"todoboard/internal/cache"
	dom "todoboard/internal/domain"
	"todoboard/internal/repo"

	"golang.org/x/sync/singleflight"
)

// Column limits of the todos table.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	maxCategoryLen    = 50
)

// fillTimeout bounds a shared cache fill, which outlives the caller's request.
const fillTimeout = 10 * time.Second

// NewTodo is the input of Create. Empty Priority/Status take the defaults
// (Medium, Pending); an empty Category means uncategorized.
type NewTodo struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Category    string
	DueDate     *time.Time
}

// TodoPatch is a partial update; nil fields are left unchanged.
// A non-nil empty Category clears it. ClearDueDate removes the due date and wins over DueDate.
type TodoPatch struct {
	Title        *string
	Description  *string
	Priority     *string
	Status       *string
	Category     *string
	DueDate      *time.Time
	ClearDueDate bool
}

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache) *TodoService {
	return &TodoService{repo: r, cache: c}
}

func (s *TodoService) Create(ctx context.Context, in NewTodo) (dom.Todo, error) {
	t := dom.Todo{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    dom.PriorityMedium,
		Status:      dom.StatusPending,
		Category:    normalizeCategory(in.Category),
		DueDate:     in.DueDate,
	}
	if p := strings.TrimSpace(in.Priority); p != "" {
		t.Priority = dom.Priority(p)
	}
	if st := strings.TrimSpace(in.Status); st != "" {
		t.Status = dom.Status(st)
	}
	if err := validate(t); err != nil {
		return dom.Todo{}, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return created, nil
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	return t, nil
}

// List runs the filtered, searched and sorted listing. It never fails on
// unknown filter or sort values.
func (s *TodoService) List(ctx context.Context, q repo.ListQuery) ([]dom.Todo, error) {
	q = q.Normalized()
	if s.cache == nil {
		return s.repo.List(ctx, q)
	}
	return load(ctx, s, func(gen int64) string { return cache.ListKey(gen, q) },
		func(ctx context.Context, gen int64) ([]dom.Todo, bool) {
			list, err := s.cache.GetList(ctx, gen, q)
			return list, err == nil && list != nil
		},
		func(ctx context.Context) ([]dom.Todo, error) { return s.repo.List(ctx, q) },
		func(ctx context.Context, gen int64, v []dom.Todo) error { return s.cache.SetList(ctx, gen, q, v) },
	)
}

// UpdateFields applies a partial update.
func (s *TodoService) UpdateFields(ctx context.Context, id int64, p TodoPatch) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	next := existing
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		next.Priority = dom.Priority(strings.TrimSpace(*p.Priority))
	}
	if p.Status != nil {
		next.Status = dom.Status(strings.TrimSpace(*p.Status))
	}
	if p.Category != nil {
		next.Category = normalizeCategory(*p.Category)
	}
	if p.DueDate != nil {
		next.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		next.DueDate = nil
	}
	if err := validate(next); err != nil {
		return dom.Todo{}, err
	}

	t, err := s.repo.Update(ctx, id, next)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

// UpdateStatus changes only the status. An unknown status leaves the record untouched.
func (s *TodoService) UpdateStatus(ctx context.Context, id int64, status string) (dom.Todo, error) {
	st := dom.Status(status)
	if !st.Valid() {
		return dom.Todo{}, invalid("status", "must be one of Pending, In Progress, Completed")
	}
	t, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Delete removes the todo. Deleting a missing id returns ErrNotFound.
func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) Stats(ctx context.Context) (dom.Stats, error) {
	if s.cache == nil {
		return s.repo.CountByStatus(ctx)
	}
	return load(ctx, s, cache.StatsKey,
		func(ctx context.Context, gen int64) (dom.Stats, bool) {
			st, ok, err := s.cache.GetStats(ctx, gen)
			return st, err == nil && ok
		},
		s.repo.CountByStatus,
		s.cache.SetStats,
	)
}

// Categories returns the distinct non-empty categories in use, sorted.
func (s *TodoService) Categories(ctx context.Context) ([]string, error) {
	if s.cache == nil {
		return s.repo.DistinctCategories(ctx)
	}
	return load(ctx, s, cache.CategoriesKey,
		func(ctx context.Context, gen int64) ([]string, bool) {
			cats, err := s.cache.GetCategories(ctx, gen)
			return cats, err == nil && cats != nil
		},
		s.repo.DistinctCategories,
		s.cache.SetCategories,
	)
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("todo cache invalidate: %v", err)
	}
}

// load serves the value of the current cache generation, falling back to fetch
// and refilling the cache. Concurrent misses for the same key share one fetch,
// which runs detached from any single caller's cancellation.
// Without a readable generation the cache is bypassed.
func load[T any](
	ctx context.Context,
	s *TodoService,
	key func(gen int64) string,
	get func(ctx context.Context, gen int64) (T, bool),
	fetch func(ctx context.Context) (T, error),
	put func(ctx context.Context, gen int64, v T) error,
) (T, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Printf("todo cache generation: %v", err)
		return fetch(ctx)
	}
	v, err, _ := s.sf.Do(key(gen), func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		if cached, ok := get(fillCtx, gen); ok {
			return cached, nil
		}
		fresh, err := fetch(fillCtx)
		if err != nil {
			return nil, err
		}
		if err := put(fillCtx, gen, fresh); err != nil {
			log.Printf("todo cache fill %s: %v", key(gen), err)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func validate(t dom.Todo) error {
	switch {
	case t.Title == "":
		return invalid("title", "is required")
	case utf8.RuneCountInString(t.Title) > maxTitleLen:
		return invalid("title", "is too long")
	case t.Description == "":
		return invalid("description", "is required")
	case utf8.RuneCountInString(t.Description) > maxDescriptionLen:
		return invalid("description", "is too long")
	case !t.Priority.Valid():
		return invalid("priority", "must be one of Low, Medium, High")
	case !t.Status.Valid():
		return invalid("status", "must be one of Pending, In Progress, Completed")
	case t.Category != nil && utf8.RuneCountInString(*t.Category) > maxCategoryLen:
		return invalid("category", "is too long")
	}
	return nil
}

func normalizeCategory(c string) *string {
	c = strings.TrimSpace(c)
	if c == "" {
		return nil
	}
	return &c
}
