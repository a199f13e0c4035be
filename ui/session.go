package ui

import (
	"net/http"

	"sheetsort/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionIDKey = "session_id"

// sessionMiddleware makes sure every request carries a session cookie
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(s.deps.SessionCookie)
		if err != nil || id == "" {
			id = session.NewID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(s.deps.SessionCookie, id, int(s.deps.SessionTTL.Seconds()), "/", "", false, true)
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func (s *Server) currentSession(c *gin.Context) session.Context {
	return s.deps.Sessions.Get(c.GetString(sessionIDKey))
}

func (s *Server) saveSession(c *gin.Context, sc session.Context) {
	s.deps.Sessions.Put(c.GetString(sessionIDKey), sc)
}
