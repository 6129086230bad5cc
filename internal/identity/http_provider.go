package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/randya04/POSitive/internal/config"
)

// httpProvider talks to a hosted identity service's REST admin API
// using the elevated service-role key.
type httpProvider struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPProvider builds a Provider against the configured identity
// endpoint. Every call is bounded by the configured timeout.
func NewHTTPProvider(cfg config.IdentityConfig, logger *zap.Logger) Provider {
	return &httpProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

type accountPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type providerError struct {
	Message string `json:"msg"`
	Error   string `json:"error"`
}

func (p *httpProvider) InviteByEmail(ctx context.Context, email string, meta Metadata) (*Account, error) {
	body, err := json.Marshal(map[string]any{
		"email": email,
		"data":  meta,
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.do(ctx, http.MethodPost, "/auth/v1/invite", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := p.checkStatus(resp); err != nil {
		return nil, err
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// Some providers send an empty invite response; the caller
		// resolves the id via LookupByEmail.
		p.logger.Debug("invite response not decodable", zap.Error(err))
		return &Account{Email: email}, nil
	}
	return &Account{ID: payload.ID, Email: payload.Email, CreatedAt: payload.CreatedAt}, nil
}

func (p *httpProvider) LookupByEmail(ctx context.Context, email string) (*Account, error) {
	path := "/auth/v1/admin/users?email=" + url.QueryEscape(email)
	resp, err := p.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := p.checkStatus(resp); err != nil {
		return nil, err
	}

	var payload struct {
		Users []accountPayload `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode user listing: %w", err)
	}
	for _, u := range payload.Users {
		if strings.EqualFold(u.Email, email) {
			return &Account{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}, nil
		}
	}
	return nil, ErrNotFound
}

func (p *httpProvider) DeleteAccount(ctx context.Context, id string) error {
	resp, err := p.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return p.checkStatus(resp)
}

func (p *httpProvider) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", p.serviceKey)
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request: %w", err)
	}
	return resp, nil
}

func (p *httpProvider) checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var perr providerError
	_ = json.Unmarshal(raw, &perr)
	msg := perr.Message
	if msg == "" {
		msg = perr.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	// Provider throttling sometimes arrives as a 4xx with a rate-limit
	// message rather than a 429.
	if strings.Contains(strings.ToLower(msg), "rate limit") {
		return ErrRateLimited
	}
	return fmt.Errorf("identity provider responded %d: %s", resp.StatusCode, msg)
}
