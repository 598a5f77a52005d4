package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	authCookieName     = "auth"
	authCookieLifetime = 7 * 24 * time.Hour

	// Login attempts, successful or not, across all clients.
	loginInterval = 2 * time.Second
	loginBurst    = 5
)

// authenticator flags the request as coming from an admin. Without an admin
// password everybody is.
func (s *Server) authenticator(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := s.config.AdminPassword == ""
		if !admin {
			var err error
			admin, err = s.adminFromCookie(r)
			if err != nil {
				log.Warnf("cookie auth: %s", err)
			}
		}

		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAdmin, admin)))
	})
}

func (s *Server) adminFromCookie(r *http.Request) (bool, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		// no cookie, ignore successfully
		return false, nil
	}

	user, err := s.config.CheckToken(cookie.Value)
	if err != nil {
		return false, err
	}

	return user == s.config.AdminUser, nil
}

func isAdmin(r *http.Request) bool {
	admin, _ := r.Context().Value(ctxKeyAdmin).(bool)
	return admin
}

func (s *Server) requireAdmin(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) getLogin(w http.ResponseWriter, r *http.Request) {
	s.response(w, r, http.StatusOK, "login.html", nil)
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	if s.config.AdminPassword == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	user := []byte(r.PostForm.Get("User"))
	password := []byte(r.PostForm.Get("Password"))
	userOK := subtle.ConstantTimeCompare(user, []byte(s.config.AdminUser)) == 1
	passwordOK := subtle.ConstantTimeCompare(password, []byte(s.config.AdminPassword)) == 1
	if !userOK || !passwordOK {
		log.Warnf("failed login attempt for %q from %s", user, r.RemoteAddr)
		s.responseWithError(
			w, r, http.StatusUnauthorized, "login.html", nil,
			s.translate(localeFromRequest(r), "Invalid user or password."),
		)
		return
	}

	token, err := s.config.SignToken(s.config.AdminUser, authCookieLifetime)
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.setCookie(w, r, authCookieName, token, authCookieLifetime)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) postLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, r, authCookieName, "", -1)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) setCookie(
	w http.ResponseWriter,
	r *http.Request,
	name, value string,
	lifetime time.Duration, // < 0 delete, 0 session, > 0 cookie
) {
	var maxAge int
	var expires time.Time
	switch {
	case lifetime > 0:
		expires = time.Now().Add(lifetime)
	case lifetime < 0:
		maxAge = -1
	case lifetime == 0:
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// throttle limits the rate of the wrapped requests across all clients, a nil
// limiter lets everything through.
func (s *Server) throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				s.error(w, r, errors.New("rate limit exceeded"), http.StatusTooManyRequests)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
