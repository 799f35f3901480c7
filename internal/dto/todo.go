package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/repo"
)

// FormDateLayout is the layout of <input type="datetime-local"> values.
const FormDateLayout = "2006-01-02T15:04"

// TimestampLayout is the layout used when todos are rendered as JSON.
const TimestampLayout = "2006-01-02 15:04:05"

var dueLayouts = []string{
	FormDateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// ParseDueDate parses a due date from a form or JSON body. Empty input means no due date.
// Values without a zone are taken as UTC.
func ParseDueDate(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("due_date: use YYYY-MM-DDTHH:MM, a date (YYYY-MM-DD) or RFC3339")
}

// DueAt is a JSON due date that remembers whether the key was sent,
// so an explicit null can clear the value.
type DueAt struct {
	set bool
	t   *time.Time
}

func (d *DueAt) UnmarshalJSON(data []byte) error {
	d.set = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		d.t = nil
		return nil
	}
	t, err := ParseDueDate(*raw)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Ptr returns *time.Time for use in service/domain.
func (d DueAt) Ptr() *time.Time { return d.t }

// Set reports whether due_date was present in the body.
func (d DueAt) Set() bool { return d.set }

// ListParams are the query parameters of the listing ("all" disables a filter).
type ListParams struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Category string `form:"category"`
	Sort     string `form:"sort"`
	Search   string `form:"search"`
}

// Query converts the params into a repo.ListQuery.
func (p ListParams) Query() repo.ListQuery {
	return repo.ListQuery{
		Status:   orAll(p.Status),
		Priority: orAll(p.Priority),
		Category: orAll(p.Category),
		Search:   p.Search,
		Sort:     p.Sort,
	}.Normalized()
}

func orAll(s string) string {
	if strings.TrimSpace(s) == "" {
		return repo.FilterAll
	}
	return s
}

// CreateTodoForm is the form posted to "/".
type CreateTodoForm struct {
	Title       string `form:"titles"`
	Description string `form:"descriptions"`
	DueDate     string `form:"due_date"`
	Priority    string `form:"priority"`
	Category    string `form:"category"`
}

// UpdateTodoForm is the full-update form posted to "/update/:id".
type UpdateTodoForm struct {
	Title       string `form:"title_changed"`
	Description string `form:"description_changed"`
	Priority    string `form:"priority"`
	Status      string `form:"status"`
	Category    string `form:"category"`
	DueDate     string `form:"due_date"`
}

// StatusRequest is the JSON body of a status-only update.
type StatusRequest struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	Success bool `json:"success"`
}

type StatsResponse struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
}

type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // Low, Medium (default), High
	Status      string `json:"status"`   // Pending (default), In Progress, Completed
	Category    string `json:"category"`
	DueDate     DueAt  `json:"due_date" swaggertype:"string"` // "2026-02-19T10:30", date or RFC3339
}

type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Category    *string `json:"category"` // "" clears
	DueDate     DueAt   `json:"due_date" swaggertype:"string"` // absent = keep, null = clear
}

type TodoResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	DueDate     *string `json:"due_date"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Category    *string `json:"category"`
}

type ListTodosResponse struct {
	Items []TodoResponse `json:"items"`
}

type CategoriesResponse struct {
	Items []string `json:"items"`
}

func NewTodoResponse(t dom.Todo) TodoResponse {
	out := TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(TimestampLayout),
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    t.Category,
	}
	if t.DueDate != nil {
		s := t.DueDate.Format(TimestampLayout)
		out.DueDate = &s
	}
	return out
}

func NewTodoResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = NewTodoResponse(list[i])
	}
	return out
}

func NewStatsResponse(s dom.Stats) StatsResponse {
	return StatsResponse{
		Total:      s.Total,
		Completed:  s.Completed,
		Pending:    s.Pending,
		InProgress: s.InProgress,
	}
}
