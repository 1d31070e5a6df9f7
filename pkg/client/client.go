package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

var (
	ErrNotLoggedIn   = errors.New("no student session")
	ErrNoCurrentCase = errors.New("no case has been generated")
	ErrCaseNotSaved  = errors.New("current case was not persisted")
	ErrAlreadySent   = errors.New("answers already submitted for this case")
)

// defaultRequestTimeout bounds ordinary requests. Generation carries
// its own longer deadline, so the HTTP client itself has no global
// timeout that could undercut it.
const defaultRequestTimeout = 30 * time.Second

// Client talks to the case simulation service. It keeps the most
// recently generated case, the answer sheet for it, and a cached copy
// of the case catalog for filtering and export.
type Client struct {
	baseURL    string
	httpc      *http.Client
	store      *SessionStore
	genTimeout time.Duration

	mu          sync.Mutex
	currentCase *CaseRecord
	sheet       *AnswerSheet
	history     []CaseRecord
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithGenerateTimeout bounds how long GenerateCase waits for the
// server. Generation calls an LLM upstream so this is deliberately
// longer than a normal request timeout.
func WithGenerateTimeout(d time.Duration) Option {
	return func(c *Client) { c.genTimeout = d }
}

// New builds a client for the service at baseURL
func New(baseURL string, store *SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpc:      &http.Client{},
		store:      store,
		genTimeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the session store backing this client
func (c *Client) Store() *SessionStore { return c.store }

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	StudentID uint      `json:"student_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login authenticates a student and stores the session
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, "", &resp)
	if err != nil {
		return err
	}
	return c.store.SetStudent(Credentials{
		Token:     resp.Token,
		Username:  resp.Username,
		Name:      resp.Name,
		StudentID: resp.StudentID,
		ExpiresAt: resp.ExpiresAt,
	})
}

// TeacherLogin authenticates with the shared teacher credential
func (c *Client) TeacherLogin(ctx context.Context, username, password string) error {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/teacher-login",
		map[string]string{"username": username, "password": password}, "", &resp)
	if err != nil {
		return err
	}
	return c.store.SetTeacher(Credentials{
		Token:     resp.Token,
		Username:  resp.Username,
		ExpiresAt: resp.ExpiresAt,
	})
}

// Register creates a student account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password, name, email string) error {
	body := map[string]string{
		"username": username,
		"password": password,
		"name":     name,
		"email":    email,
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", body, "", nil)
}

// GenerateCase asks the server for a new case. It runs under the
// client's generation timeout; hitting that deadline reports
// KindTimeout, while other transport failures report KindNetwork. A
// parsed case replaces the current case and resets the answer sheet.
func (c *Client) GenerateCase(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	token, err := c.anyToken()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	body := struct {
		Generate bool `json:"generate"`
		GenerateParams
	}{Generate: true, GenerateParams: params}

	var result GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/simulate", body, token, &result); err != nil {
		return nil, err
	}

	if result.Case != nil {
		record := result.Saved
		if record == nil {
			// Persistence failed server-side. The model still mints a
			// case_id inside the payload, but without a saved record it
			// is not submit-eligible, so CaseID stays empty.
			record = &CaseRecord{
				Title:      result.Case.Title,
				Theme:      result.Case.Eje,
				Difficulty: result.Case.Nivel,
				Payload:    *result.Case,
			}
		}
		c.mu.Lock()
		c.currentCase = record
		c.sheet = NewAnswerSheet(record.Payload.Questions)
		if result.Saved != nil {
			c.history = nil
		}
		c.mu.Unlock()
	}
	return &result, nil
}

// AnalyzeText sends free case text for analysis instead of generating
func (c *Client) AnalyzeText(ctx context.Context, caseText string) (*GenerateResult, error) {
	token, err := c.anyToken()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	var result GenerateResult
	body := map[string]string{"case_text": caseText}
	if err := c.do(ctx, http.MethodPost, "/api/simulate", body, token, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentCase returns the most recently generated case, or nil
func (c *Client) CurrentCase() *CaseRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentCase
}

// Sheet returns the answer sheet for the current case, or nil
func (c *Client) Sheet() *AnswerSheet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sheet
}

// SubmitAnswers sends the current answer sheet. All preconditions are
// checked before any network traffic: a live student session, a
// generated case, a persisted case id, and no prior submission for
// this case instance. Violations report KindPreconditionFailed.
func (c *Client) SubmitAnswers(ctx context.Context, durationSeconds *int) (*SubmitResult, error) {
	creds := c.store.StudentCredentials()
	if creds == nil {
		return nil, newAPIError(KindPreconditionFailed, 0, "student login required", ErrNotLoggedIn)
	}

	c.mu.Lock()
	record := c.currentCase
	sheet := c.sheet
	c.mu.Unlock()

	if record == nil || sheet == nil {
		return nil, newAPIError(KindPreconditionFailed, 0, "generate a case first", ErrNoCurrentCase)
	}
	if record.CaseID == "" {
		return nil, newAPIError(KindPreconditionFailed, 0, "case has no persistent id", ErrCaseNotSaved)
	}
	if sheet.Submitted() {
		return nil, newAPIError(KindPreconditionFailed, 0, "already submitted", ErrAlreadySent)
	}
	items := sheet.Items()
	if len(items) == 0 {
		return nil, newAPIError(KindPreconditionFailed, 0, "no answers recorded", ErrNoCurrentCase)
	}

	body := struct {
		CaseID          string       `json:"case_id"`
		Answers         []AnswerItem `json:"answers"`
		DurationSeconds *int         `json:"duration_seconds,omitempty"`
	}{CaseID: record.CaseID, Answers: items, DurationSeconds: durationSeconds}

	var result SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/answers", body, creds.Token, &result); err != nil {
		return nil, err
	}
	sheet.markSubmitted()
	return &result, nil
}

// ListCases fetches the case catalog and caches it for FilterCases and
// the export helpers
func (c *Client) ListCases(ctx context.Context) ([]CaseRecord, error) {
	token, err := c.anyToken()
	if err != nil {
		return nil, err
	}

	var resp struct {
		Cases []CaseRecord `json:"cases"`
		Total int64        `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cases?limit=500", nil, token, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history = resp.Cases
	c.mu.Unlock()
	return resp.Cases, nil
}

// GetCase fetches one stored case by its public id
func (c *Client) GetCase(ctx context.Context, caseID string) (*CaseRecord, error) {
	token, err := c.anyToken()
	if err != nil {
		return nil, err
	}
	var record CaseRecord
	path := "/api/cases/" + url.PathEscape(caseID)
	if err := c.do(ctx, http.MethodGet, path, nil, token, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// RateCase sets a case's rating; teacher only
func (c *Client) RateCase(ctx context.Context, caseID string, rating int) error {
	token, err := c.teacherToken()
	if err != nil {
		return err
	}
	path := "/api/cases/" + url.PathEscape(caseID)
	return c.do(ctx, http.MethodPut, path, map[string]int{"rating": rating}, token, nil)
}

// AttachFeedback records teacher feedback on one answer
func (c *Client) AttachFeedback(ctx context.Context, answerID uint, fb AnswerFeedback) error {
	token, err := c.teacherToken()
	if err != nil {
		return err
	}
	path := "/api/answers/" + strconv.FormatUint(uint64(answerID), 10) + "/feedback"
	return c.do(ctx, http.MethodPut, path, fb, token, nil)
}

// GetStatistics fetches the admin overview; teacher only
func (c *Client) GetStatistics(ctx context.Context) (*Statistics, error) {
	token, err := c.teacherToken()
	if err != nil {
		return nil, err
	}
	var stats Statistics
	if err := c.do(ctx, http.MethodGet, "/api/admin/statistics", nil, token, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes the health endpoint; no auth required
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, "", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) anyToken() (string, error) {
	creds := c.store.ActiveCredentials()
	if creds == nil {
		return "", newAPIError(KindPreconditionFailed, 0, "login required", ErrNotLoggedIn)
	}
	return creds.Token, nil
}

func (c *Client) teacherToken() (string, error) {
	if c.store.ActiveRole() != RoleTeacher {
		return "", newAPIError(KindPreconditionFailed, 0, "teacher login required", ErrNotLoggedIn)
	}
	return c.store.ActiveCredentials().Token, nil
}

// do runs one request and classifies failures. Deadline hits map to
// KindTimeout, other transport errors to KindNetwork, non-2xx to
// KindServerError with the status code, and undecodable bodies to
// KindMalformedResponse.
func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return newAPIError(KindMalformedResponse, 0, "encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newAPIError(KindNetwork, 0, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return newAPIError(KindTimeout, 0, "request timed out", err)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return newAPIError(KindTimeout, 0, "request timed out", err)
		}
		return newAPIError(KindNetwork, 0, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newAPIError(KindNetwork, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		return newAPIError(KindServerError, resp.StatusCode, msg, nil)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return newAPIError(KindMalformedResponse, resp.StatusCode, "decode response", err)
		}
	}
	return nil
}

func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}
