package pingate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/khoahotran/folio/internal/domain/profile"
)

const headerAdminPin = "X-Admin-Pin"

// Client talks to the folio API on behalf of the admin CLI.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// ServerError carries the server's coarse failure message.
type ServerError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	RetryAfter int             `json:"retryAfter"`
	Profile    json.RawMessage `json:"profile"`
}

// Verify implements Verifier. A 429 is a result, not an error.
func (c *Client) Verify(ctx context.Context, pin string) (VerifyResult, error) {
	body, _ := json.Marshal(map[string]string{"pin": pin})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/verify-pin", bytes.NewReader(body))
	if err != nil {
		return VerifyResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(req)
	var serr *ServerError
	if errors.As(err, &serr) && serr.Status == http.StatusTooManyRequests {
		return VerifyResult{RetryAfter: serr.RetryAfter}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Success: res.Success}, nil
}

func (c *Client) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/profile", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var p profile.Profile
	if len(res.Profile) > 0 {
		if err := json.Unmarshal(res.Profile, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	return &p, nil
}

// Upload names the local files sent with a submission.
type Upload struct {
	CVPath string
	// Images maps a project index to an image path.
	Images map[int]string
}

// SaveProfile sends draft as the multipart submission. Existing CV and image
// references in draft are kept unless Upload replaces them.
func (c *Client) SaveProfile(ctx context.Context, pin string, draft profile.Profile, up Upload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]*string{
		"fullname":    &draft.FullName,
		"jobtitle":    &draft.JobTitle,
		"description": &draft.Description,
		"whatsapp":    draft.WhatsApp,
		"telegram":    draft.Telegram,
		"github":      draft.GitHub,
		"linkedin":    draft.LinkedIn,
		"email":       draft.Email,
	}
	if up.CVPath == "" {
		fields["cv"] = draft.CV
	}
	for name, v := range fields {
		if v == nil {
			continue
		}
		if err := w.WriteField(name, *v); err != nil {
			return err
		}
	}

	projects, err := json.Marshal(nonNil(draft.ProjectExperience))
	if err != nil {
		return err
	}
	companies, err := json.Marshal(nonNil(draft.CompanyExperience))
	if err != nil {
		return err
	}
	if err := w.WriteField("projectList", string(projects)); err != nil {
		return err
	}
	if err := w.WriteField("companyList", string(companies)); err != nil {
		return err
	}

	if up.CVPath != "" {
		if err := attachFile(w, "cv", up.CVPath); err != nil {
			return err
		}
	}
	for i, path := range up.Images {
		if err := attachFile(w, fmt.Sprintf("projectImages[%d]", i), path); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-profile", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(headerAdminPin, pin)

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		serr := &ServerError{Status: resp.StatusCode, Message: out.Message}
		if out.RetryAfter > 0 {
			serr.RetryAfter = time.Duration(out.RetryAfter) * time.Second
		} else if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			serr.RetryAfter = time.Duration(secs) * time.Second
		}
		return nil, serr
	}
	return &out, nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
