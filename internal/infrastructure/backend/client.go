// Package backend is the HTTP client of the regular-user REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

const maxErrorBody = 64 << 10

// Client calls the REST backend. Non-2xx replies become
// *domain.RequestFailedError carrying the envelope's detail and code.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. timeout bounds each request; zero
// leaves requests bounded by the caller's context only.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type errorEnvelope struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RequestFailedError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env errorEnvelope
		if json.Unmarshal(raw, &env) != nil || env.Detail == "" {
			env.Detail = strings.TrimSpace(string(raw))
			if env.Detail == "" {
				env.Detail = http.StatusText(resp.StatusCode)
			}
		}
		return &domain.RequestFailedError{Status: resp.StatusCode, Detail: env.Detail, Code: env.Code}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RequestFailedError{Status: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	r := request{method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	return c.do(ctx, r, out)
}

type createUserRequest struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Plan  domain.PlanTier `json:"plan,omitempty"`
}

// CreateUser registers an email-only identity.
func (c *Client) CreateUser(ctx context.Context, name, email string, tier domain.PlanTier) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/create", createUserRequest{Name: name, Email: email, Plan: tier}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type loginRequest struct {
	Email string `json:"email"`
}

// LoginByEmail looks an identity up by email and stamps its last login.
func (c *Client) LoginByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/login", loginRequest{Email: email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/id/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type planRequest struct {
	Plan domain.PlanTier `json:"plan"`
}

func (c *Client) UpgradePlan(ctx context.Context, id string, tier domain.PlanTier) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id)+"/plan", planRequest{Plan: tier}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) RecordAssessment(ctx context.Context, id string) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/"+url.PathEscape(id)+"/record-assessment", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type storageRequest struct {
	StorageUsed float64 `json:"storage_used"`
}

func (c *Client) UpdateStorage(ctx context.Context, id string, totalMB float64) (*domain.Identity, error) {
	var u domain.Identity
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/"+url.PathEscape(id)+"/update-storage", storageRequest{StorageUsed: totalMB}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type usersResponse struct {
	Users []domain.Identity `json:"users"`
}

// ListUsers returns every regular identity. It requires an administrator
// token.
func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.Identity, error) {
	var resp usersResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/analytics/users", token: token}, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

type assessmentsResponse struct {
	Assessments []domain.Assessment `json:"assessments"`
}

func (c *Client) ListAssessments(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	var resp assessmentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/assessments/user/"+url.PathEscape(ownerID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assessments, nil
}

// CreateAssessment uploads the image as multipart form data.
func (c *Client) CreateAssessment(ctx context.Context, ownerID string, img domain.Image) (*domain.Assessment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user_id", ownerID); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("image", img.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var a domain.Assessment
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/assessments/create",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type completeRequest struct {
	SafetyMetrics domain.SafetyMetrics `json:"safety_metrics"`
	Model3DURL    string               `json:"model_3d_url,omitempty"`
}

func (c *Client) CompleteAssessment(ctx context.Context, id string, m domain.SafetyMetrics, modelRef string) (*domain.Assessment, error) {
	var a domain.Assessment
	if err := c.doJSON(ctx, http.MethodPut, "/api/assessments/"+url.PathEscape(id)+"/complete", completeRequest{SafetyMetrics: m, Model3DURL: modelRef}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) FailAssessment(ctx context.Context, id string) (*domain.Assessment, error) {
	var a domain.Assessment
	if err := c.doJSON(ctx, http.MethodPut, "/api/assessments/"+url.PathEscape(id)+"/fail", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
