package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/marketplace/internal/observability/metrics"
	obstracing "github.com/smallbiznis/marketplace/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 60 * time.Second
	maxResponseSize = 16 << 20
	userAgent       = "marketplace-client/1.0"
)

// Config describes how to reach the remote marketplace.
type Config struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
}

// Service performs single-attempt calls against the marketplace API.
// Credentials are per instance; Authenticate replaces them wholesale.
type Service struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	mu          sync.RWMutex
	accessToken string
}

func NewService(cfg Config, httpClient *http.Client, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = obstracing.WrapHTTPClient(&http.Client{Timeout: timeout})
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = "2.0"
	}
	return &Service{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiVersion: version,
		httpClient: httpClient,
		log:        log.Named("marketplace.api"),
		metrics:    m,
		tracer:     otel.Tracer("marketplace/api"),
	}
}

// Authenticate sets the license key sent with every following call.
// An empty key makes the service anonymous.
func (s *Service) Authenticate(licenseKey string) {
	s.mu.Lock()
	s.accessToken = strings.TrimSpace(licenseKey)
	s.mu.Unlock()
}

func (s *Service) IsAuthenticated() bool {
	return s.token() != ""
}

func (s *Service) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Fetch calls resource once and returns the raw JSON object.
func (s *Service) Fetch(ctx context.Context, resource string, params map[string]string) (json.RawMessage, error) {
	resource = strings.Trim(strings.TrimSpace(resource), "/")
	ctx, span := s.tracer.Start(ctx, "marketplace.fetch", trace.WithAttributes(
		obstracing.SafeAttributes(attribute.String("marketplace.resource", metricResource(resource)))...,
	))
	defer span.End()

	body, err := s.fetch(ctx, resource, params)
	outcome := "ok"
	if err != nil {
		code, _ := CodeOf(err)
		outcome = strings.ToLower(string(code))
		span.RecordError(obstracing.SafeError(err))
		span.SetStatus(codes.Error, string(code))
	}
	s.metrics.RecordMarketplaceRequest(ctx, metricResource(resource), outcome)
	return body, err
}

// FetchInto calls resource and decodes the record into out.
func (s *Service) FetchInto(ctx context.Context, resource string, params map[string]string, out any) error {
	body, err := s.Fetch(ctx, resource, params)
	if err != nil {
		return err
	}
	return Decode(resource, body, out)
}

// Decode unmarshals a payload returned by Fetch.
func Decode(resource string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &ServiceError{Code: CodeInvalidPayload, Resource: resource, Message: "malformed record", Err: err}
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, resource string, params map[string]string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/%s/%s", s.baseURL, s.apiVersion, resource)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(s.encodeForm(params)))
	if err != nil {
		return nil, &ServiceError{Code: CodeHTTPError, Resource: resource, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("marketplace request failed", zap.String("resource", metricResource(resource)), zap.Error(err))
		return nil, &ServiceError{Code: CodeHTTPError, Resource: resource, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ServiceError{Code: CodeHTTPError, Resource: resource, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ServiceError{
			Code:     codeForStatus(resp.StatusCode),
			Resource: resource,
			Status:   resp.StatusCode,
			Message:  errorMessage(payload, resp.Status),
		}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, &ServiceError{Code: CodeInvalidPayload, Resource: resource, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	if msg, ok := apiError(envelope); ok {
		return nil, &ServiceError{Code: CodeAPIError, Resource: resource, Status: resp.StatusCode, Message: msg}
	}

	return json.RawMessage(payload), nil
}

// Download streams url to target. A partially written target is removed.
func (s *Service) Download(ctx context.Context, rawURL string, target string) (err error) {
	const resource = "download"

	ctx, span := s.tracer.Start(ctx, "marketplace.download")
	defer func() {
		outcome := "ok"
		if err != nil {
			code, _ := CodeOf(err)
			outcome = strings.ToLower(string(code))
			span.RecordError(obstracing.SafeError(err))
			span.SetStatus(codes.Error, outcome)
		}
		s.metrics.RecordMarketplaceRequest(ctx, resource, outcome)
		span.End()
	}()

	endpoint, err := s.resolve(rawURL)
	if err != nil {
		return &ServiceError{Code: CodeAPIError, Resource: resource, Message: "invalid download url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(s.encodeForm(nil)))
	if err != nil {
		return &ServiceError{Code: CodeHTTPError, Resource: resource, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &ServiceError{Code: CodeHTTPError, Resource: resource, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ServiceError{
			Code:     codeForStatus(resp.StatusCode),
			Resource: resource,
			Status:   resp.StatusCode,
			Message:  errorMessage(snippet, resp.Status),
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open download target: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return &ServiceError{Code: CodeHTTPError, Resource: resource, Status: resp.StatusCode, Message: "read archive", Err: err}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("close download target: %w", err)
	}
	return nil
}

func (s *Service) resolve(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(parsed).String(), nil
}

func (s *Service) encodeForm(params map[string]string) string {
	form := url.Values{}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		form.Set(key, params[key])
	}
	if token := s.token(); token != "" {
		form.Set("access_token", token)
	}
	return form.Encode()
}

func apiError(envelope map[string]json.RawMessage) (string, bool) {
	raw, ok := envelope["error"]
	if !ok {
		return "", false
	}
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", `""`:
		return "", false
	}
	var msg string
	if err := json.Unmarshal(trimmed, &msg); err == nil {
		return msg, true
	}
	return string(trimmed), true
}

func errorMessage(payload []byte, fallback string) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if msg, ok := apiError(envelope); ok {
			return msg
		}
	}
	return fallback
}

// metricResource collapses per-plugin resources into a bounded label.
func metricResource(resource string) string {
	parts := strings.Split(resource, "/")
	if len(parts) == 3 && parts[0] == "plugins" {
		return "plugins." + parts[2]
	}
	return strings.ReplaceAll(resource, "/", ".")
}
