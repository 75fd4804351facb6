package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/livelang"
)

// Persister stores a committed edit.
type Persister interface {
	Persist(ctx context.Context, req livelang.SaveRequest) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, req livelang.SaveRequest) error

// Persist calls f.
func (f PersisterFunc) Persist(ctx context.Context, req livelang.SaveRequest) error {
	return f(ctx, req)
}

// SaveBody is the JSON body of the save endpoint.
type SaveBody struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Slug       string `json:"slug"`
	Language   string `json:"language"`
	IsGlobal   string `json:"is_global"` // "0" or "1"
}

// NewSaveBody builds the wire form of req.
func NewSaveBody(req livelang.SaveRequest) SaveBody {
	global := "0"
	if req.IsGlobal {
		global = "1"
	}
	return SaveBody{
		Original:   req.Original,
		Translated: req.Translated,
		Slug:       req.Slug,
		Language:   req.Language,
		IsGlobal:   global,
	}
}

// SaveRequest converts the wire form back into a save request.
func (b SaveBody) SaveRequest() livelang.SaveRequest {
	return livelang.SaveRequest{
		Original:   b.Original,
		Translated: b.Translated,
		Slug:       b.Slug,
		Language:   b.Language,
		IsGlobal:   b.IsGlobal == "1" || strings.EqualFold(b.IsGlobal, "true"),
	}
}

// HTTPPersister posts edits to a save endpoint.
type HTTPPersister struct {
	url    string
	client *http.Client
	token  string
	role   string
	retry  livelang.RetryConfig
}

// HTTPOption configures an HTTPPersister.
type HTTPOption func(*HTTPPersister)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPPersister) {
		if c != nil {
			p.client = c
		}
	}
}

// WithToken sets the bearer token sent with each save.
func WithToken(token string) HTTPOption {
	return func(p *HTTPPersister) {
		p.token = token
	}
}

// WithRole sets the role the editor acts as.
func WithRole(role string) HTTPOption {
	return func(p *HTTPPersister) {
		p.role = role
	}
}

// WithRetryConfig sets the retry policy.
func WithRetryConfig(cfg livelang.RetryConfig) HTTPOption {
	return func(p *HTTPPersister) {
		p.retry = cfg
	}
}

// NewHTTPPersister creates a persister for the save endpoint at url.
func NewHTTPPersister(url string, opts ...HTTPOption) *HTTPPersister {
	p := &HTTPPersister{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		retry:  livelang.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// saveResponse is the reply of the save endpoint.
type saveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Persist posts req, retrying network failures and server errors.
func (p *HTTPPersister) Persist(ctx context.Context, req livelang.SaveRequest) error {
	body, err := json.Marshal(NewSaveBody(req))
	if err != nil {
		return fmt.Errorf("encoding save body: %w", err)
	}

	_, err = livelang.WithRetry(ctx, p.retry, func() (struct{}, error) {
		return struct{}{}, p.post(ctx, body)
	})
	return err
}

func (p *HTTPPersister) post(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", livelang.UserAgent())
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}
	if p.role != "" {
		httpReq.Header.Set(RoleHeader, p.role)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &livelang.RemoteError{Message: "request failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &livelang.RemoteError{Message: "reading response", StatusCode: resp.StatusCode, Cause: err, Retryable: true}
	}

	var out saveResponse
	_ = json.Unmarshal(data, &out)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &livelang.RemoteError{
			Message:    messageOr(out.Error, resp.Status),
			StatusCode: resp.StatusCode,
			Retryable:  true,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= 500 {
		return &livelang.RemoteError{Message: messageOr(out.Error, resp.Status), StatusCode: resp.StatusCode, Retryable: true}
	}
	if resp.StatusCode >= 400 {
		return &livelang.RemoteError{Message: messageOr(out.Error, resp.Status), StatusCode: resp.StatusCode}
	}
	if !out.Success {
		return &livelang.RemoteError{Message: messageOr(out.Error, "save was not acknowledged"), StatusCode: resp.StatusCode}
	}
	return nil
}

// RoleHeader carries the caller's role to the save endpoint.
const RoleHeader = "X-LiveLang-Role"

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// Verify HTTPPersister implements Persister
var _ Persister = (*HTTPPersister)(nil)
