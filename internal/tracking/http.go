package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the backend rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPReporter sends reports to the DropNGo API as a logged in porter.
type HTTPReporter struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPReporter creates a reporter for the API at baseURL.
func NewHTTPReporter(baseURL string) *HTTPReporter {
	return &HTTPReporter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	HomeRoute string `json:"home_route"`
}

type apiError struct {
	Error string `json:"error"`
}

// Login signs in and keeps the session token for later reports. It returns
// the role the backend assigned.
func (r *HTTPReporter) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := r.do(ctx, http.MethodPost, "/v1/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("login: empty token")
	}

	r.mu.Lock()
	r.token = resp.Token
	r.mu.Unlock()
	return resp.Role, nil
}

// Report posts one location update.
func (r *HTTPReporter) Report(ctx context.Context, rep Report) error {
	return r.do(ctx, http.MethodPost, "/v1/porter/location", rep, nil)
}

func (r *HTTPReporter) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.mu.RLock()
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	r.mu.RUnlock()

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, ae.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
