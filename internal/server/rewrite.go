package server

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
)

// translate rewrites HTML responses through the overlay. Other responses,
// non-200 statuses and encoded bodies pass through untouched.
func (s *Server) translate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if settings, err := s.settings.Settings(r.Context()); err == nil && !settings.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		bw := &bufferedWriter{ResponseWriter: w}
		next.ServeHTTP(bw, r)
		if !bw.buffering {
			if !bw.wroteHeader {
				w.WriteHeader(http.StatusOK)
			}
			return
		}

		result := s.overlay.ProcessRequest(r.Context(), bw.buf.String())
		if result.MapSize > 0 {
			s.logger.Debug("page translated", "path", r.URL.Path, "pairs", result.MapSize, "cached", result.FromCache)
		}

		w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result.Content))
	})
}

// bufferedWriter holds back 200 text/html bodies and streams everything else.
type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	buffering   bool
	wroteHeader bool
}

func (b *bufferedWriter) WriteHeader(statusCode int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true

	if statusCode == http.StatusOK && isPlainHTML(b.Header()) {
		b.buffering = true
		b.Header().Del("Content-Length")
		return
	}
	b.ResponseWriter.WriteHeader(statusCode)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	if b.buffering {
		return b.buf.Write(p)
	}
	return b.ResponseWriter.Write(p)
}

func isPlainHTML(h http.Header) bool {
	if enc := h.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}
