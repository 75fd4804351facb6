package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/ZaguanLabs/livelang/internal/config"
)

// NewUpstream returns the handler serving the untranslated site: a reverse
// proxy to cfg.Upstream or a file server over cfg.StaticDir.
func NewUpstream(cfg *config.Config) (http.Handler, error) {
	switch {
	case cfg.Upstream != "":
		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			return nil, fmt.Errorf("parsing upstream URL: %w", err)
		}
		return newProxy(target), nil
	case cfg.StaticDir != "":
		info, err := os.Stat(cfg.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("opening static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", cfg.StaticDir)
		}
		return http.FileServer(http.Dir(cfg.StaticDir)), nil
	}
	return nil, fmt.Errorf("no upstream configured: set LIVELANG_UPSTREAM or LIVELANG_STATIC_DIR")
}

func newProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			// Pages must arrive uncompressed to be rewritten.
			pr.Out.Header.Del("Accept-Encoding")
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("upstream request failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
}
