// Package analysis calls the external 3D generation engine.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/plan2protect/platform/internal/core/domain"
)

const (
	generatePath   = "/api/generate-3d"
	maxResponse    = 64 << 20
	defaultImageCT = "image/jpeg"
)

// Client implements ports.AnalysisEngine over HTTP. The whole JSON reply is
// kept as the opaque model payload; only the safety metrics are read.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type generateResponse struct {
	Success       bool                 `json:"success"`
	SafetyMetrics domain.SafetyMetrics `json:"safety_metrics"`
	Detail        string               `json:"detail"`
}

func (c *Client) Analyze(ctx context.Context, img domain.Image) (*domain.AnalysisResult, error) {
	body, contentType, err := encodeImage(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.RequestFailedError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, &domain.RequestFailedError{Status: resp.StatusCode, Detail: err.Error()}
	}

	var out generateResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := out.Detail
		if decodeErr != nil || detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.RequestFailedError{Status: resp.StatusCode, Detail: detail}
	}
	if decodeErr != nil {
		return nil, &domain.RequestFailedError{Status: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", decodeErr)}
	}
	if !out.Success {
		return nil, &domain.RequestFailedError{Status: resp.StatusCode, Detail: "engine reported failure"}
	}

	return &domain.AnalysisResult{Metrics: out.SafetyMetrics, Model: raw}, nil
}

func encodeImage(img domain.Image) (io.Reader, string, error) {
	ct := img.ContentType
	if !strings.HasPrefix(ct, "image/") {
		ct = defaultImageCT
	}
	name := img.Filename
	if name == "" {
		name = "floorplan.jpg"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
