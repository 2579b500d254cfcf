// internal/engine/rest.go
package engine

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/errors"
	commonhttp "docassembly-workers/internal/common/http"

	"github.com/google/uuid"
)

const (
	headerDate       = "x-hd-date"
	headerRequestID  = "x-hd-request-id"
	headerFormat     = "X-HD-Format"
	headerPending    = "X-HD-Pending"
	headerSwitches   = "X-HD-Switches"
	headerUnanswered = "X-HD-Unanswered"
)

// RESTConfig configures the REST transport.
type RESTConfig struct {
	BaseURL      string
	SubscriberID string
	SigningKey   string
	Timeout      time.Duration
}

// RESTClient talks to the engine's REST endpoints.
type RESTClient struct {
	config     RESTConfig
	httpClient *commonhttp.Client
	now        func() time.Time
}

func NewRESTClient(config RESTConfig, httpClient *commonhttp.Client) *RESTClient {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = commonhttp.NewClient(config.Timeout)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &RESTClient{
		config:     config,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (c *RESTClient) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewEngineCommunicationError("open session", err)
	}
	sctx, cancel := context.WithCancel(ctx)
	return &restSession{client: c, ctx: sctx, cancel: cancel}, nil
}

type restSession struct {
	client *RESTClient
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	aborted bool
}

func (s *restSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.aborted {
		return errors.NewEngineCommunicationError("close session", fmt.Errorf("session already released"))
	}
	s.closed = true
	s.cancel()
	return nil
}

func (s *restSession) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return
	}
	s.aborted = true
	s.cancel()
	s.client.httpClient.CloseIdleConnections()
}

func (s *restSession) Assemble(req AssembleRequest) (*assembly.AssemblyResponse, error) {
	const op = "assemble"

	query := url.Values{}
	query.Set("format", strconv.FormatUint(uint64(req.Format), 10))
	query.Set("options", strconv.FormatUint(uint64(req.Options), 10))
	setBillingRef(query, req.BillingRef)
	setExtras(query, req.Extra)

	resp, body, err := s.do(op, http.MethodPost, "assemble", req.TemplateID, query, []byte(req.Answers))
	if err != nil {
		return nil, err
	}

	parts, err := parseParts(resp.Header, body)
	if err != nil {
		return nil, errors.NewResponseDecodeError(op, err)
	}

	return &assembly.AssemblyResponse{
		Parts:               parts,
		UnansweredVariables: splitList(resp.Header.Get(headerUnanswered)),
	}, nil
}

func (s *restSession) GetInterview(req InterviewRequest) ([]assembly.TaggedPart, error) {
	const op = "interview"

	format := req.Format
	if format == "" {
		format = InterviewJavaScript
	}

	query := url.Values{}
	query.Set("format", string(format))
	query.Set("options", strconv.FormatUint(uint64(req.Options), 10))
	if req.ImageSource != "" {
		query.Set("tempimageurl", req.ImageSource)
	}
	if len(req.MarkedVariables) > 0 {
		query.Set("markedvariables", strings.Join(req.MarkedVariables, ","))
	}
	setBillingRef(query, req.BillingRef)
	setExtras(query, req.Extra)

	resp, body, err := s.do(op, http.MethodPost, "interview", req.TemplateID, query, []byte(req.Answers))
	if err != nil {
		return nil, err
	}

	parts, err := parseParts(resp.Header, body)
	if err != nil {
		return nil, errors.NewResponseDecodeError(op, err)
	}
	return parts, nil
}

func (s *restSession) GetComponentInfo(templateID string, includeDialogs bool) (*ComponentInfo, error) {
	const op = "component info"

	query := url.Values{}
	query.Set("includedialogs", strconv.FormatBool(includeDialogs))

	_, body, err := s.do(op, http.MethodGet, "componentinfo", templateID, query, nil)
	if err != nil {
		return nil, err
	}

	var info ComponentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errors.NewResponseDecodeError(op, err)
	}
	return &info, nil
}

func (s *restSession) GetInterviewDefinition(templateID string, format InterviewFormat) ([]byte, error) {
	if format == "" {
		format = InterviewJavaScript
	}
	query := url.Values{}
	query.Set("format", string(format))

	_, body, err := s.do("interview definition", http.MethodGet, "interviewdefinition", templateID, query, nil)
	return body, err
}

func (s *restSession) do(op, method, endpoint, templateID string, query url.Values, payload []byte) (*http.Response, []byte, error) {
	c := s.client
	endpointURL := fmt.Sprintf("%s/%s/%s/%s", c.config.BaseURL, endpoint,
		url.PathEscape(c.config.SubscriberID), escapeTemplateID(templateID))
	if encoded := query.Encode(); encoded != "" {
		endpointURL += "?" + encoded
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, endpointURL, bodyReader)
	if err != nil {
		return nil, nil, errors.NewEngineCommunicationError(op, fmt.Errorf("failed to create request: %w", err))
	}

	date := c.now().UTC().Format(time.RFC3339)
	req.Header.Set(headerDate, date)
	req.Header.Set(headerRequestID, uuid.NewString())
	req.Header.Set("Authorization", c.config.SubscriberID+":"+c.sign(templateID, date, query))
	if payload != nil {
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, classifyTransportError(s.ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, classifyTransportError(s.ctx, op, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, nil, errors.NewEngineCommunicationError(op,
			fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(body)))
	case resp.StatusCode >= 400:
		return nil, nil, errors.NewEngineRejectedError(op, resp.StatusCode, string(body))
	}

	return resp, body, nil
}

// sign computes the request signature over the call's identifying values.
func (c *RESTClient) sign(templateID, date string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{c.config.SubscriberID, templateID, date}
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}

	mac := hmac.New(sha1.New, []byte(c.config.SigningKey))
	mac.Write([]byte(strings.Join(parts, "\n")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func classifyTransportError(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewEngineTimeoutError(op, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewEngineTimeoutError(op, err)
	}
	return errors.NewEngineCommunicationError(op, err)
}

func escapeTemplateID(id string) string {
	segments := strings.Split(id, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func setBillingRef(query url.Values, ref string) {
	if ref != "" {
		query.Set("billingref", ref)
	}
}

func setExtras(query url.Values, extra map[string]string) {
	for k, v := range extra {
		query.Set(k, v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
