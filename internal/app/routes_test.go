package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"todoboard/internal/config"
	dom "todoboard/internal/domain"
	"todoboard/internal/dto"
	"todoboard/internal/flash"
	"todoboard/internal/repo"
	"todoboard/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	r      *gin.Engine
	svc    *service.TodoService
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := service.NewTodoService(repo.NewMemTodoRepo(), nil)
	r := gin.New()
	require.NoError(t, Setup(r, config.Config{}, svc, flash.NewStore(rdb, time.Minute)))
	return &testServer{r: r, svc: svc}
}

// do sends a request and keeps the flash cookie like a browser would.
func (s *testServer) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "flash_id" {
			s.cookie = c
		}
	}
	return w
}

func (s *testServer) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func (s *testServer) postJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, target, "application/json", body)
}

func (s *testServer) create(t *testing.T, in service.NewTodo) dom.Todo {
	t.Helper()
	td, err := s.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return td
}

func TestPages_CreateAndList(t *testing.T) {
	s := newTestServer(t)

	w := s.postForm(t, "/", url.Values{
		"titles":       {"Buy milk"},
		"descriptions": {"2 litres"},
		"due_date":     {"2024-05-01T18:00"},
		"priority":     {"Low"},
		"category":     {"Home"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Todo added successfully!")
	assert.Contains(t, body, "Buy milk")
	assert.Contains(t, body, "2024-05-01 18:00")

	w = s.do(t, http.MethodGet, "/", "", "")
	assert.NotContains(t, w.Body.String(), "Todo added successfully!", "flash shows once")

	td, err := s.svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, dom.PriorityLow, td.Priority)
	assert.Equal(t, dom.StatusPending, td.Status)
	require.NotNil(t, td.Category)
	assert.Equal(t, "Home", *td.Category)
}

func TestPages_CreateRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	w := s.postForm(t, "/", url.Values{"titles": {""}, "descriptions": {"d"}})
	require.Equal(t, http.StatusFound, w.Code)
	w = s.postForm(t, "/", url.Values{"titles": {"t"}, "descriptions": {"d"}, "due_date": {"tomorrow"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = s.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, w.Body.String(), "title: is required")
	assert.Contains(t, w.Body.String(), "due_date:")

	stats, err := s.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestPages_ListFiltersAndSearch(t *testing.T) {
	s := newTestServer(t)
	s.create(t, service.NewTodo{Title: "Buy milk", Description: "2 litres", Priority: "Low"})
	s.create(t, service.NewTodo{Title: "Fix bug", Description: "login page", Priority: "High", Status: "Completed"})

	w := s.do(t, http.MethodGet, "/?search=BUG", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fix bug")
	assert.NotContains(t, w.Body.String(), "Buy milk")

	w = s.do(t, http.MethodGet, "/?status=Pending&sort=priority", "", "")
	assert.Contains(t, w.Body.String(), "Buy milk")
	assert.NotContains(t, w.Body.String(), "Fix bug")

	w = s.do(t, http.MethodGet, "/?status=bogus&sort=bogus", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No todos.")
}

func TestPages_EditAndUpdate(t *testing.T) {
	s := newTestServer(t)
	due := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	td := s.create(t, service.NewTodo{Title: "t", Description: "d", Priority: "High", Category: "Work", DueDate: &due})

	w := s.do(t, http.MethodGet, "/update/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="2024-05-01T18:00"`)

	w = s.do(t, http.MethodGet, "/update/42", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.postForm(t, "/update/1", url.Values{
		"title_changed":       {"new title"},
		"description_changed": {"new desc"},
		"category":            {""},
		"due_date":            {""},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	got, err := s.svc.GetByID(context.Background(), td.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, dom.PriorityMedium, got.Priority, "missing priority falls back to Medium")
	assert.Equal(t, dom.StatusPending, got.Status)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.DueDate, "empty due date clears it")
	assert.Equal(t, td.CreatedAt, got.CreatedAt)

	w = s.postForm(t, "/update/1", url.Values{
		"title_changed": {"x"}, "description_changed": {"y"}, "status": {"Archived"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/update/1", w.Header().Get("Location"))
}

func TestPages_Delete(t *testing.T) {
	s := newTestServer(t)
	td := s.create(t, service.NewTodo{Title: "t", Description: "d"})

	w := s.do(t, http.MethodGet, "/delete/1", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	_, err := s.svc.GetByID(context.Background(), td.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	w = s.do(t, http.MethodGet, "/delete/1", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	w = s.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, w.Body.String(), "Todo deleted successfully!")
	assert.Contains(t, w.Body.String(), "Todo not found.")
}

func TestUpdateStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.create(t, service.NewTodo{Title: "t", Description: "d"})

	w := s.postJSON(t, http.MethodPost, "/update_status/1", `{"status":"In Progress"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = s.postJSON(t, http.MethodPost, "/update_status/1", `{"status":"Done"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())

	td, err := s.svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, dom.StatusInProgress, td.Status, "invalid status leaves the record unchanged")

	w = s.postJSON(t, http.MethodPost, "/update_status/9", `{"status":"Completed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	s.create(t, service.NewTodo{Title: "Buy milk", Description: "2 litres", Priority: "Low"})
	s.create(t, service.NewTodo{Title: "Fix bug", Description: "login page", Priority: "High", Status: "Completed"})

	w := s.do(t, http.MethodGet, "/get_stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"completed":1,"pending":1,"in_progress":0}`, w.Body.String())
}

func TestAPI_TodoLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, http.MethodPost, "/api/v1/todos",
		`{"title":"Fix bug","description":"login page","priority":"High","category":"Work","due_date":"2024-06-01T09:30"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Pending", created.Status)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2024-06-01 09:30:00", *created.DueDate)

	w = s.postJSON(t, http.MethodPost, "/api/v1/todos", `{"title":"x","description":"y","priority":"Urgent"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.postJSON(t, http.MethodPatch, "/api/v1/todos/1", `{"status":"Completed","due_date":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Completed", updated.Status)
	assert.Equal(t, "Fix bug", updated.Title)
	assert.Nil(t, updated.DueDate)

	w = s.postJSON(t, http.MethodPatch, "/api/v1/todos/1/status", `{"status":"Pending"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/todos?status=Pending&search=LOGIN", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.ListTodosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/categories", "", "")
	assert.JSONEq(t, `{"items":["Work"]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/stats", "", "")
	assert.JSONEq(t, `{"total":1,"completed":0,"pending":1,"in_progress":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/todos/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/todos/1", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/api/v1/todos/1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/todos/1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
