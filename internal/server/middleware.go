package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"filippo.io/csrf/gorilla"

	"github.com/ZaguanLabs/livelang"
	"github.com/ZaguanLabs/livelang/editor"
)

// requireToken rejects requests without the configured bearer token.
// Without a configured token every caller passes.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.EditorToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or malformed Authorization header", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.cfg.EditorToken)) != 1 {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireEditor lets a save through only while editing is enabled and the
// caller's role is allowed to edit.
func (s *Server) requireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.settings.Settings(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !settings.Enabled {
			writeJSONError(w, http.StatusForbidden, "disabled", "translation editing is disabled", nil)
			return
		}
		role := r.Header.Get(editor.RoleHeader)
		if !settings.RoleAllowed(role) {
			writeJSONError(w, http.StatusForbidden, "forbidden", "role is not allowed to edit translations", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimit throttles requests per client address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr, which RealIP has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// csrfProtect guards state-changing API calls using Fetch metadata headers.
// Requests without browser headers, such as the CLI, pass unchecked.
func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler))}

	origins := s.cfg.TrustedOrigins
	if len(origins) == 0 && s.cfg.IsDevelopment() {
		origins = []string{"localhost:8080", "127.0.0.1:8080"}
	}
	if len(origins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(origins))
	}

	return csrf.Protect([]byte(s.cfg.CSRFKey), opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	writeJSONError(w, http.StatusForbidden, "csrf", "cross-origin request rejected", nil)
}

// LanguageCookieName is the cookie remembering the visitor's language.
const LanguageCookieName = "livelang_lang"

// detectLanguage resolves the page language and slug and stores them in the
// request context. Priority order:
//  1. Query parameter ?lang=xx (also updates the cookie)
//  2. URL prefix /xx/ (stripped before the request reaches the upstream)
//  3. Cookie preference
//  4. Accept-Language header
//  5. Default language
func (s *Server) detectLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defaultLang := s.overlay.DefaultLanguage()
		codes, err := s.languages.Codes(ctx)
		if err != nil {
			s.logger.Warn("loading languages failed", "error", err)
			codes = nil
		} else if d, err := s.languages.Default(ctx); err == nil {
			defaultLang = d
		}

		known := make(map[string]bool, len(codes))
		for _, c := range codes {
			known[c] = true
		}

		path := r.URL.Path
		lang := ""

		if q := strings.ToLower(r.URL.Query().Get("lang")); known[q] {
			lang = q
			SetLanguageCookie(w, q)
		}

		if prefix := firstSegment(path); known[prefix] {
			if lang == "" {
				lang = prefix
			}
			stripped := strings.TrimPrefix(path, "/"+prefix)
			if stripped == "" {
				stripped = "/"
			}
			r.URL.Path = stripped
			r.URL.RawPath = ""
		}

		if lang == "" {
			if cookie, err := r.Cookie(LanguageCookieName); err == nil && known[strings.ToLower(cookie.Value)] {
				lang = strings.ToLower(cookie.Value)
			}
		}
		if lang == "" {
			lang = livelang.MatchLanguage(r.Header.Get("Accept-Language"), codes)
		}
		if lang == "" {
			lang = defaultLang
		}

		page := livelang.Page{Slug: livelang.SlugFromPath(r.URL.Path, ""), Language: lang}
		w.Header().Add("Vary", "Cookie, Accept-Language")
		w.Header().Set("Content-Language", lang)

		next.ServeHTTP(w, r.WithContext(livelang.WithPage(ctx, page)))
	})
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return strings.ToLower(path)
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
