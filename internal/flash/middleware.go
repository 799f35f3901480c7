package flash

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const cookieName = "flash_id"

const contextKeySessionID = "flash_session_id"

// Middleware makes sure every browser has a flash cookie and exposes its ID to handlers.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			id, err = newSessionID()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, id, 0, "/", "", false, true) // session cookie, httpOnly
		}
		c.Set(contextKeySessionID, id)
		c.Next()
	}
}

// SessionIDFromContext returns the flash session set by Middleware. "" if not set.
func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(contextKeySessionID)
}

// Add queues a message for the current browser. Failures are only logged.
func (s *Store) Add(c *gin.Context, category, text string) {
	id := SessionIDFromContext(c)
	if id == "" {
		return
	}
	if err := s.Push(c.Request.Context(), id, Message{Category: category, Text: text}); err != nil {
		log.Printf("flash push: %v", err)
	}
}

// Consume returns and clears the messages of the current browser.
func (s *Store) Consume(c *gin.Context) []Message {
	id := SessionIDFromContext(c)
	if id == "" {
		return nil
	}
	msgs, err := s.Pop(c.Request.Context(), id)
	if err != nil {
		log.Printf("flash pop: %v", err)
		return nil
	}
	return msgs
}
