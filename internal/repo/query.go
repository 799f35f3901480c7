package repo

import (
	"strconv"
	"strings"
)

// FilterAll is the sentinel that disables a filter.
const FilterAll = "all"

// Sort keys accepted by ListQuery.Sort. Anything else sorts by creation time.
const (
	SortDueDate   = "due_date"
	SortPriority  = "priority"
	SortCreatedAt = "created_at"
)

const todoColumns = `id, title, description, created_at, due_date, priority, status, category`

// ListQuery is the set of optional filters, search and sort for listing todos.
// Empty strings behave like "all" for the filters.
type ListQuery struct {
	Status   string
	Priority string
	Category string
	Search   string
	Sort     string
}

func (q ListQuery) filterOn(v string) bool {
	return v != "" && v != FilterAll
}

// SortKey returns the effective sort key.
func (q ListQuery) SortKey() string {
	switch q.Sort {
	case SortDueDate, SortPriority:
		return q.Sort
	}
	return SortCreatedAt
}

// Normalized returns q with the sort key resolved. Filter values and the
// search text are kept as given: filters match exactly and a search of " milk"
// requires the leading space.
func (q ListQuery) Normalized() ListQuery {
	q.Sort = q.SortKey()
	return q
}

// Build returns the SELECT statement and its positional arguments.
// Filter values are always bound, never interpolated.
func (q ListQuery) Build() (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.filterOn(q.Status) {
		where = append(where, "status = "+bind(q.Status))
	}
	if q.filterOn(q.Priority) {
		where = append(where, "priority = "+bind(q.Priority))
	}
	if q.filterOn(q.Category) {
		where = append(where, "category = "+bind(q.Category))
	}
	if q.Search != "" {
		p := bind("%" + escapeLike(q.Search) + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + todoColumns + " FROM todos")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(q.orderBy())
	return sb.String(), args
}

func (q ListQuery) orderBy() string {
	switch q.SortKey() {
	case SortDueDate:
		return "due_date ASC NULLS LAST, id ASC"
	case SortPriority:
		// Label order: High, Low, Medium.
		return "priority ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// escapeLike makes s match literally inside an ILIKE pattern (default escape is backslash).
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
