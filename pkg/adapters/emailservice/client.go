// Package emailservice calls the external email generation service, which
// drafts an outreach email from a job posting URL and a résumé file.
package emailservice

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

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

const generatePath = "/generate-email"

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 512

// Resume is the file forwarded to the service.
type Resume struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Client posts generation requests to the service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("email-service"),
	}
}

// Generate sends job_url and the résumé as multipart form fields and returns
// the drafted subject and body.
func (c *Client) Generate(ctx context.Context, jobURL string, resume Resume) (*models.EmailDraft, error) {
	body, contentType, err := buildForm(jobURL, resume)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call email service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Email service returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.SanitizeText(string(snippet))))
		return nil, fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	var draft models.EmailDraft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("decode email service response: %w", err)
	}
	if strings.TrimSpace(draft.Subject) == "" && strings.TrimSpace(draft.Body) == "" {
		return nil, fmt.Errorf("email service returned an empty draft")
	}

	c.logger.Debug("Email drafted", zap.Duration("elapsed", time.Since(start)))
	return &draft, nil
}

func buildForm(jobURL string, resume Resume) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("job_url", jobURL); err != nil {
		return nil, "", fmt.Errorf("write job_url: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, resume.FileName))
	header.Set("Content-Type", resume.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create resume part: %w", err)
	}
	if _, err := part.Write(resume.Data); err != nil {
		return nil, "", fmt.Errorf("write resume: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
