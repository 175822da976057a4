package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const ctxSession ctxKey = iota

const ginSessionKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxSession, s)
}

// SessionFrom returns the session attached by RequireSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxSession).(Session)
	return s, ok
}

// SessionFromGin is the gin-context counterpart of SessionFrom.
func SessionFromGin(c *gin.Context) (Session, bool) {
	if v, ok := c.Get(ginSessionKey); ok {
		if s, ok := v.(Session); ok {
			return s, true
		}
	}
	return SessionFrom(c.Request.Context())
}
