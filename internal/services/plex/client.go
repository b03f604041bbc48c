package plex

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"plexbridge/internal/logging"
)

const (
	defaultTimeout = 2 * time.Second
	maxErrorBody   = 2048
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Settings carries everything the Connector needs to reach plex.tv and the
// media server.
type Settings struct {
	Host         string
	Port         int
	Token        string
	Username     string
	Password     string
	SignInURL    string
	ResourcesURL string
	Timeout      time.Duration
}

// Connection is the resolved way to reach the media server. Scheme and Token
// are settled once by Bootstrap and reused for every later call.
type Connection struct {
	Scheme string
	Host   string
	Port   int
	Token  string
}

// BaseURL returns scheme://host:port without a trailing slash.
func (c Connection) BaseURL() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + joinHostPort(c.Host, c.Port)
}

// MediaURL turns a server-relative path into an absolute URL carrying the
// auth token. Empty paths stay empty and absolute URLs are left untouched.
func (c Connection) MediaURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL() + path + "?X-Plex-Token=" + url.QueryEscape(c.Token)
}

func joinHostPort(host string, port int) string {
	if port <= 0 {
		return host
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(port)
}

// Connector performs the bootstrap sequence and session fetches.
type Connector struct {
	settings Settings
	client   HTTPDoer
	server   HTTPDoer
	identity Identity
	logger   *slog.Logger
}

// NewConnector builds a Connector. A nil client falls back to a plain
// http.Client for plex.tv and a separate client for the media server;
// per-request timeouts are enforced through contexts. A non-nil client is
// used for both.
func NewConnector(settings Settings, identity Identity, client HTTPDoer, logger *slog.Logger) *Connector {
	server := client
	if client == nil {
		client = &http.Client{}
		server = newServerClient()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}
	return &Connector{
		settings: settings,
		client:   client,
		server:   server,
		identity: identity,
		logger:   logging.NewComponentLogger(logger, "plex"),
	}
}

func newServerClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Plex servers commonly present certificates for *.plex.direct while
	// being addressed by IP.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return &http.Client{Transport: transport}
}

// Identity returns the client identification sent with every request.
func (c *Connector) Identity() Identity {
	return c.identity
}

// do executes req under the configured timeout and returns the body when the
// server answered with a non-error status.
func (c *Connector) do(ctx context.Context, client HTTPDoer, req *http.Request, token string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()
	req = req.WithContext(ctx)

	c.identity.apply(req)
	if token != "" {
		req.Header.Set("X-Plex-Token", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, redactURL(req.URL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: req.Method,
			URL:    redactURL(req.URL),
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// StatusError reports an HTTP error status from plex.tv or the server.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clone := *u
	clone.RawQuery = ""
	clone.User = nil
	return clone.String()
}
