// Package platform is a client for the 01 learning platform's signin and
// GraphQL endpoints.
package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/source"
)

const (
	// DefaultBaseURL is the platform the dashboard talks to out of the box.
	DefaultBaseURL = "https://learn.01founders.co"

	signinPath     = "/api/auth/signin"
	graphqlPath    = "/api/graphql-engine/v1/graphql"
	requestTimeout = 20 * time.Second
	maxBodySize    = 16 << 20 // 16 MB
	userAgent      = "xpdash/1.0"
)

var (
	// ErrUnauthorized indicates the token is invalid or was rejected.
	ErrUnauthorized = errors.New("platform: unauthorized (token invalid or expired)")
	// ErrInvalidCredentials indicates signin was refused.
	ErrInvalidCredentials = errors.New("platform: invalid credentials")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("platform: rate limited")
	// ErrNoToken indicates a query was attempted before signing in.
	ErrNoToken = errors.New("platform: no token (run `xpdash login`)")
	// ErrTokenExpired indicates the stored token's exp claim has passed.
	ErrTokenExpired = errors.New("platform: token expired (run `xpdash login`)")
	// ErrNoUser indicates the token resolved to no user row.
	ErrNoUser = errors.New("platform: no user for token")
)

// GraphQLError is a failure reported inside a 200 GraphQL response.
type GraphQLError struct {
	Message string
	Code    string
}

func (e *GraphQLError) Error() string {
	return "platform: graphql: " + e.Message
}

// Client talks to one platform instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *log.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token used for GraphQL queries.
func WithToken(token string) Option {
	return func(c *Client) { c.token = CleanToken(token) }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l.WithComponent(log.ComponentPlatform) }
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     log.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// Signin exchanges an identifier (login or email) and password for a
// token, which the client keeps for later queries.
func (c *Client) Signin(ctx context.Context, identifier, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+signinPath, nil)
	if err != nil {
		return "", fmt.Errorf("platform: creating request: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(identifier + ":" + password))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", ErrInvalidCredentials
	case status == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case status < 200 || status >= 300:
		return "", fmt.Errorf("platform: signin: unexpected status %d", status)
	}

	token := CleanToken(string(body))
	if token == "" {
		return "", fmt.Errorf("platform: signin: empty token")
	}
	if _, err := ParseClaims(token); err != nil {
		return "", err
	}
	c.token = token
	c.log.Debug("signed in", log.FieldLogin, identifier)
	return token, nil
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (source.RawProfile, error) {
	var data currentUserData
	if err := c.query(ctx, currentUserQuery, nil, &data); err != nil {
		return source.RawProfile{}, err
	}
	if len(data.User) == 0 {
		return source.RawProfile{}, ErrNoUser
	}
	return data.User[0], nil
}

// FetchProfile returns the public view of userID.
func (c *Client) FetchProfile(ctx context.Context, userID int) (source.RawProfile, error) {
	var data profileData
	if err := c.query(ctx, profileQuery, userVars(userID), &data); err != nil {
		return source.RawProfile{}, err
	}
	if len(data.Users) == 0 {
		return source.RawProfile{ID: userID}, nil
	}
	row := data.Users[0]
	return source.RawProfile{
		ID:        row.ID,
		Login:     row.Login,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Level:     parseLevel(row.Level),
	}, nil
}

// FetchTotalXP returns the platform's own sum of xp transactions.
func (c *Client) FetchTotalXP(ctx context.Context, userID int) (int64, error) {
	var data totalXPData
	if err := c.query(ctx, totalXPQuery, userVars(userID), &data); err != nil {
		return 0, err
	}
	amount := data.Aggregate.Aggregate.Sum.Amount
	if amount == nil {
		return 0, nil
	}
	return int64(math.Round(*amount)), nil
}

// FetchTransactions returns every xp transaction, oldest first.
func (c *Client) FetchTransactions(ctx context.Context, userID int) ([]source.RawTransaction, error) {
	var data transactionsData
	if err := c.query(ctx, transactionsQuery, userVars(userID), &data); err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

// FetchProgress returns graded project progress rows.
func (c *Client) FetchProgress(ctx context.Context, userID int) ([]source.RawProgress, error) {
	var data progressData
	if err := c.query(ctx, progressQuery, userVars(userID), &data); err != nil {
		return nil, err
	}
	return data.Progress, nil
}

// FetchResults returns audit result grades.
func (c *Client) FetchResults(ctx context.Context, userID int) ([]source.RawResult, error) {
	var data resultsData
	if err := c.query(ctx, resultsQuery, userVars(userID), &data); err != nil {
		return nil, err
	}
	return data.Results, nil
}

// query runs one GraphQL request and decodes its data into out.
func (c *Client) query(ctx context.Context, q string, vars map[string]any, out any) error {
	if c.token == "" {
		return ErrNoToken
	}
	if exp, err := TokenExpiry(c.token); err == nil && !c.now().Before(exp) {
		return ErrTokenExpired
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(graphqlRequest{Query: q, Variables: vars})
	if err != nil {
		return fmt.Errorf("platform: encoding query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+graphqlPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("platform: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := c.now()
	body, status, err := c.do(req)
	if err != nil {
		return err
	}
	c.log.Debug("graphql request",
		log.FieldStatus, status,
		log.FieldDuration, c.now().Sub(start).Milliseconds(),
	)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("platform: unexpected status %d", status)
	}

	var env graphqlResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("platform: parsing response: %w", err)
	}
	if len(env.Errors) > 0 {
		e := env.Errors[0]
		if strings.Contains(e.Message, "JWT") || strings.Contains(strings.ToLower(e.Message), "token") ||
			e.Extensions.Code == "invalid-jwt" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, e.Message)
		}
		return &GraphQLError{Message: e.Message, Code: e.Extensions.Code}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("platform: decoding data: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("platform: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("platform: reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func userVars(userID int) map[string]any {
	return map[string]any{"userId": userID}
}

// parseLevel reads the profile level, which may be a number, a numeric
// string or null.
func parseLevel(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	lvl := int(f)
	return &lvl
}
