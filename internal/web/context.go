package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetload/internal/core"
	appmw "github.com/JonMunkholm/sheetload/internal/web/middleware"
)

type sessionKey struct{}

// WithRequestMetadata adds the client IP and User-Agent to ctx for logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, appmw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

// withSession resolves the session cookie, creating a session and setting
// the cookie when the browser has none or its session expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sid, created := s.service.EnsureSession(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sid)))
	})
}

// sessionID returns the session resolved by withSession.
func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
