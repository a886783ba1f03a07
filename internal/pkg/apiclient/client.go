// Package apiclient is the gateway to the document-processing backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/repository/contract"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxJSONBody     = 1 << 20
	requestIDHeader = "X-Request-ID"
	tracerName      = "shabdsetu-client/apiclient"
)

var (
	// ErrTransport wraps failures where no HTTP response arrived.
	ErrTransport = errors.New("backend unreachable")
	// ErrNotLoggedIn is returned when the backend redirects to its login page.
	ErrNotLoggedIn = errors.New("login required")
)

// APIError is a non-2xx response. Decoded reports whether the body parsed
// into the endpoint's response shape.
type APIError struct {
	StatusCode int
	Message    string
	Decoded    bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

type IBackend interface {
	SendOTP(ctx context.Context, req dto.SendOTPRequest) (*dto.AuthResponse, error)
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.AuthResponse, error)
	CheckTrial(ctx context.Context, req dto.TrialCheckRequest) (*dto.TrialInfo, error)
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error)
	VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
	Process(ctx context.Context, req dto.ProcessRequest) (*dto.ProcessResponse, error)
	Progress(ctx context.Context, jobID string) (*dto.ProgressResponse, error)
	Download(ctx context.Context, outputFile string, w io.Writer) (int64, error)
	SendDocument(ctx context.Context, jobID string) (*dto.SendDocumentResponse, error)
	Logout(ctx context.Context) error
}

type client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration // per JSON call; uploads and downloads follow ctx
	prefs   contract.PreferenceRepository
	logger  logger.ILogger
	tracer  trace.Tracer

	mu         sync.Mutex
	jar        *cookiejar.Jar
	lastCookie string
}

// NewClient restores the cookie session kept in prefs. prefs may be nil,
// in which case the session lives only as long as the process.
func NewClient(baseURL string, timeout time.Duration, prefs contract.PreferenceRepository, log logger.ILogger) (IBackend, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}

	jar, _ := cookiejar.New(nil)
	c := &client{
		baseURL: u,
		timeout: timeout,
		prefs:   prefs,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		jar:     jar,
	}
	c.http = &http.Client{
		Jar: cookieJar{c},
		// Redirects are signals (login page, tool page), not something to follow
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	c.restoreCookies(context.Background())
	return c, nil
}

// cookieJar lets Logout swap the underlying jar without rebuilding the client.
type cookieJar struct{ c *client }

func (j cookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.c.mu.Lock()
	defer j.c.mu.Unlock()
	j.c.jar.SetCookies(u, cookies)
}

func (j cookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.c.mu.Lock()
	defer j.c.mu.Unlock()
	return j.c.jar.Cookies(u)
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *client) restoreCookies(ctx context.Context) {
	if c.prefs == nil {
		return
	}
	raw, found, err := c.prefs.Get(ctx, constant.PrefKeySessionCookies)
	if err != nil {
		c.logger.Warn("API", "Failed to read stored session", map[string]interface{}{"error": err.Error()})
		return
	}
	if !found {
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.logger.Warn("API", "Discarding unreadable stored session", map[string]interface{}{"error": err.Error()})
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}

	c.mu.Lock()
	c.jar.SetCookies(c.baseURL, cookies)
	c.lastCookie = raw
	c.mu.Unlock()
}

func (c *client) persistCookies(ctx context.Context) {
	if c.prefs == nil {
		return
	}

	c.mu.Lock()
	cookies := c.jar.Cookies(c.baseURL)
	c.mu.Unlock()

	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}
	raw, _ := json.Marshal(stored)

	c.mu.Lock()
	unchanged := string(raw) == c.lastCookie
	c.lastCookie = string(raw)
	c.mu.Unlock()
	if unchanged {
		return
	}

	if err := c.prefs.Set(ctx, constant.PrefKeySessionCookies, string(raw)); err != nil {
		c.logger.Warn("API", "Failed to persist session", map[string]interface{}{"error": err.Error()})
	}
}

// --- Endpoints ---

func (c *client) SendOTP(ctx context.Context, req dto.SendOTPRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.postJSON(ctx, "send_otp", "/send-otp", req, &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.postJSON(ctx, "verify_otp", "/verify-otp", req, &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CheckTrial(ctx context.Context, req dto.TrialCheckRequest) (*dto.TrialInfo, error) {
	var out dto.TrialInfo
	if err := c.postJSON(ctx, "check_trial", "/check-trial", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	var out dto.CreatePaymentResponse
	err := c.postJSON(ctx, "create_payment", "/create-payment", req, &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	var out dto.VerifyPaymentResponse
	err := c.postJSON(ctx, "verify_payment", "/verify-payment", req, &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process uploads the document. Quota and validation rejections come back
// as a decoded response, not an error.
func (c *client) Process(ctx context.Context, req dto.ProcessRequest) (*dto.ProcessResponse, error) {
	body, contentType, err := encodeProcessForm(req)
	if err != nil {
		return nil, err
	}

	var out dto.ProcessResponse
	err = c.exchange(ctx, "process", http.MethodPost, "/process", body, contentType, &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

func encodeProcessForm(req dto.ProcessRequest) (io.Reader, string, error) {
	if req.File == nil {
		return nil, "", errors.New("process request has no file")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	fields := []struct{ name, value string }{
		{"mode", strconv.Itoa(req.Mode)},
		{"language", req.Language},
		{"source_lang", req.SourceLang},
		{"target_lang", req.TargetLang},
		{"payment_id", req.PaymentId},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Progress treats 404 (job not registered yet, or unknown) as an APIError.
func (c *client) Progress(ctx context.Context, jobID string) (*dto.ProgressResponse, error) {
	var out dto.ProgressResponse
	if err := c.doJSON(ctx, "progress", http.MethodGet, "/progress/"+url.PathEscape(jobID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Download(ctx context.Context, outputFile string, w io.Writer) (int64, error) {
	resp, span, err := c.send(ctx, "download", http.MethodGet, "/download/"+url.PathEscape(outputFile), nil, "")
	if err != nil {
		return 0, err
	}
	defer span.End()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: messageFrom(raw)}
		span.SetStatus(codes.Error, apiErr.Error())
		return 0, apiErr
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		span.RecordError(err)
		return n, fmt.Errorf("download interrupted: %w", err)
	}
	span.SetAttributes(attribute.Int64("download.bytes", n))
	return n, nil
}

func (c *client) SendDocument(ctx context.Context, jobID string) (*dto.SendDocumentResponse, error) {
	var out dto.SendDocumentResponse
	err := c.doJSON(ctx, "send_document", http.MethodPost, "/send-document/"+url.PathEscape(jobID), nil, "", &out)
	if err := tolerateBusinessError(err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the backend session and forgets the stored cookies whether or
// not the backend answered.
func (c *client) Logout(ctx context.Context) error {
	reqCtx, cancel := c.bounded(ctx)
	defer cancel()
	resp, span, err := c.send(reqCtx, "logout", http.MethodGet, "/logout", nil, "")
	if err == nil {
		resp.Body.Close()
		span.End()
	}

	jar, _ := cookiejar.New(nil)
	c.mu.Lock()
	c.jar = jar
	c.lastCookie = ""
	c.mu.Unlock()

	if c.prefs != nil {
		if delErr := c.prefs.Delete(ctx, constant.PrefKeySessionCookies); delErr != nil {
			c.logger.Warn("API", "Failed to clear stored session", map[string]interface{}{"error": delErr.Error()})
		}
	}

	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// --- Plumbing ---

func (c *client) postJSON(ctx context.Context, op, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}
	return c.doJSON(ctx, op, http.MethodPost, path, bytes.NewReader(payload), "application/json", out)
}

// bounded applies the per-call timeout, if any.
func (c *client) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *client) doJSON(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	return c.exchange(ctx, op, method, path, body, contentType, out)
}

// exchange runs a request and decodes its JSON body with no deadline of its own.
func (c *client) exchange(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	resp, span, err := c.send(ctx, op, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer span.End()
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		span.SetStatus(codes.Error, "redirected")
		return fmt.Errorf("%w: redirected to %s", ErrNotLoggedIn, loc)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: read %s response: %v", ErrTransport, op, err)
	}

	decodeErr := json.Unmarshal(raw, out)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: messageFrom(raw), Decoded: decodeErr == nil}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}
	if decodeErr != nil {
		span.RecordError(decodeErr)
		return fmt.Errorf("decode %s response: %w", op, decodeErr)
	}
	return nil
}

// send performs one traced request. On success the caller owns both the
// response body and the span.
func (c *client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, trace.Span, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient))

	target := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.End()
		return nil, nil, fmt.Errorf("create %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		span.End()
		c.logger.Warn("API", "Request failed", map[string]interface{}{
			"op":         op,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("API", "Request completed", map[string]interface{}{
		"op":          op,
		"status":      resp.StatusCode,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	c.persistCookies(ctx)
	return resp, span, nil
}

// tolerateBusinessError passes through rejections whose body decoded, so
// the caller can read success/message/error fields from it.
func tolerateBusinessError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Decoded {
		return nil
	}
	return err
}

// messageFrom prefers "message", then a string "error", then the raw body.
func messageFrom(raw []byte) string {
	var body struct {
		Message string      `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
