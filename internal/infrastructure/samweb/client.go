// Package samweb implements the catalog port on top of the SAMWeb REST API.
package samweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

const (
	// Maximum response body size (64MB); file lists of large definitions are big.
	maxResponseSize = 64 << 20
	// Maximum error body kept in error details.
	maxErrorDetail = 512

	roleHeader = "SAM-Role"
)

// Client talks to the SAMWeb server of one experiment.
type Client struct {
	experiment string
	baseURL    string
	role       string
	httpClient *http.Client
	logger     logger.Interface
}

// Ensure Client implements catalog.Catalog
var _ catalog.Catalog = (*Client)(nil)

// NewClient creates a client for experiment. Requests carry a bearer token
// from cfg.Token or, re-read on every request, from cfg.TokenFile.
func NewClient(cfg *config.SAMWebConfig, experiment string, log logger.Interface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("samweb base_url is required")
	}
	if experiment == "" {
		return nil, errors.NewValidationError("experiment is required")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	if src := tokenSource(cfg); src != nil {
		httpClient.Transport = &oauth2.Transport{Source: src, Base: http.DefaultTransport}
	}

	return &Client{
		experiment: experiment,
		baseURL:    fmt.Sprintf("%s/sam/%s/api", strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(experiment)),
		role:       cfg.Role,
		httpClient: httpClient,
		logger:     log,
	}, nil
}

func (c *Client) Experiment() string {
	return c.experiment
}

func tokenSource(cfg *config.SAMWebConfig) oauth2.TokenSource {
	switch {
	case cfg.Token != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	case cfg.TokenFile != "":
		return fileTokenSource(cfg.TokenFile)
	}
	return nil
}

// fileTokenSource reads a bearer token file maintained by an external
// token agent.
type fileTokenSource string

func (f fileTokenSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, fmt.Errorf("token file %s is empty", string(f))
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// request describes one API call. Exactly one of JSON and Form may be set.
type request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.Path
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return errors.NewInternalError("failed to encode request", err.Error())
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, body)
	if err != nil {
		return errors.NewInternalError("failed to create request", err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.role != "" {
		req.Header.Set(roleHeader, c.role)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewRemoteError(fmt.Sprintf("%s %s failed", r.Method, r.Path), err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseSize)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(limited, maxErrorDetail))
		msg := strings.TrimSpace(string(detail))
		c.logger.Debugw("samweb request failed",
			"method", r.Method,
			"path", r.Path,
			"status", resp.StatusCode,
			"body", msg,
		)
		if resp.StatusCode == http.StatusNotFound {
			return errors.NewNotFoundError(fmt.Sprintf("%s not found", r.Path), msg)
		}
		return errors.NewRemoteStatusError(resp.StatusCode,
			fmt.Sprintf("%s %s returned %d", r.Method, r.Path, resp.StatusCode), msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}
	dec := json.NewDecoder(limited)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.NewRemoteError(fmt.Sprintf("failed to decode %s response", r.Path), err)
	}
	return nil
}

func namePath(prefix, name, suffix string) string {
	return prefix + url.PathEscape(name) + suffix
}

var jsonFormat = url.Values{"format": {"json"}}
