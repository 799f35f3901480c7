package flash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Minute), mr
}

func TestStore_PushPop(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Push(ctx, "abc", Message{Category: Success, Text: "Todo added successfully!"}))
	require.NoError(t, s.Push(ctx, "abc", Message{Category: Error, Text: "title: is required"}))
	require.NoError(t, s.Push(ctx, "other", Message{Category: Success, Text: "x"}))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"abc"))

	msgs, err := s.Pop(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Category: Success, Text: "Todo added successfully!"},
		{Category: Error, Text: "title: is required"},
	}, msgs)

	msgs, err = s.Pop(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, msgs, "messages are shown once")

	msgs, err = s.Pop(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMiddleware_IssuesCookieOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _ := newTestStore(t)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/add", func(c *gin.Context) {
		s.Add(c, Success, "saved")
		c.Status(http.StatusNoContent)
	})
	r.GET("/show", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Consume(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/add", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/show", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies(), "existing cookie is reused")
	assert.JSONEq(t, `[{"category":"success","text":"saved"}]`, w.Body.String())
}
