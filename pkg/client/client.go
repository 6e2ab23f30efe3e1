// Package client is a typed HTTP client for the cafe directory API backed
// by a normalized in-memory store. Every call goes through one request
// helper that echoes the CSRF cookie as a header and surfaces structured
// API errors; a failed call never mutates the store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Cafe struct {
	ID          uint   `json:"id"`
	OwnerID     uint   `json:"ownerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Img         string `json:"img"`
	Address     string `json:"address"`
	City        string `json:"city"`
	ZipCode     string `json:"zipCode"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type Review struct {
	ID         uint   `json:"id"`
	UserID     uint   `json:"userId"`
	BusinessID uint   `json:"businessId"`
	Answer     string `json:"answer"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// APIError is a non-2xx response decoded into the server's {title, errors}
// shape.
type APIError struct {
	Status int      `json:"-"`
	Title  string   `json:"title"`
	Errors []string `json:"errors"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, e.Title, e.Errors)
}

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-CSRF-Token"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      *Store
}

func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: cookie jar: %w", err)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		store: NewStore(),
	}, nil
}

func (c *Client) Store() *Store {
	return c.store
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if method != http.MethodGet && method != http.MethodHead {
		if err := c.ensureCSRF(ctx); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("client: encode body: %w", err)
		}
	}

	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("client: parse path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), &buf)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}

// ensureCSRF primes the cookie jar with the anti-forgery cookie before the
// first mutating call.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	return c.do(ctx, http.MethodGet, "/api/session", nil, nil)
}

func (c *Client) csrfToken() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == csrfCookieName {
			return ck.Value
		}
	}
	return ""
}

// --- session ---

func (c *Client) Login(ctx context.Context, credential, password string) (*SessionUser, error) {
	var resp struct {
		User SessionUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/session", map[string]string{
		"credential": credential,
		"password":   password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.store.setUser(&resp.User)
	return &resp.User, nil
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (*SessionUser, error) {
	var resp struct {
		User SessionUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.store.setUser(&resp.User)
	return &resp.User, nil
}

// Restore refreshes the session slot from the cookie, if any.
func (c *Client) Restore(ctx context.Context) (*SessionUser, error) {
	var resp struct {
		User *SessionUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &resp); err != nil {
		return nil, err
	}
	c.store.setUser(resp.User)
	return resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/session", nil, nil); err != nil {
		return err
	}
	c.store.setUser(nil)
	return nil
}

// --- cafes ---

func (c *Client) ListCafes(ctx context.Context) ([]Cafe, error) {
	var resp struct {
		Cafe []Cafe `json:"cafe"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cafes", nil, &resp); err != nil {
		return nil, err
	}
	c.store.replaceCafes(resp.Cafe)
	return resp.Cafe, nil
}

func (c *Client) GetCafe(ctx context.Context, id uint) (*Cafe, error) {
	var resp struct {
		Cafe Cafe `json:"cafe"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/cafes/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	c.store.upsertCafe(resp.Cafe)
	return &resp.Cafe, nil
}

type CafeInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Img         string `json:"img"`
	Address     string `json:"address"`
	City        string `json:"city"`
	ZipCode     string `json:"zipCode"`
}

func (c *Client) CreateCafe(ctx context.Context, in CafeInput) (*Cafe, error) {
	var cafe Cafe
	if err := c.do(ctx, http.MethodPost, "/api/cafes/new", in, &cafe); err != nil {
		return nil, err
	}
	c.store.upsertCafe(cafe)
	return &cafe, nil
}

func (c *Client) UpdateCafe(ctx context.Context, id uint, in CafeInput) (*Cafe, error) {
	var resp struct {
		Cafe Cafe `json:"cafe"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/cafes/%d", id), in, &resp); err != nil {
		return nil, err
	}
	c.store.upsertCafe(resp.Cafe)
	return &resp.Cafe, nil
}

func (c *Client) DeleteCafe(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/cafes/%d", id), nil, nil); err != nil {
		return err
	}
	c.store.removeCafe(id)
	return nil
}

func (c *Client) SearchCafes(ctx context.Context, query string) (int64, []Cafe, error) {
	var resp struct {
		Total int64  `json:"total"`
		Cafes []Cafe `json:"cafes"`
	}
	path := "/api/cafes/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, nil, err
	}
	return resp.Total, resp.Cafes, nil
}

// --- reviews ---

// ListReviews fetches one cafe's reviews and replaces only that cafe's
// entries in the store.
func (c *Client) ListReviews(ctx context.Context, businessID uint) ([]Review, error) {
	var resp struct {
		Answers []Review `json:"answers"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/reviews/cafes/%d", businessID), nil, &resp); err != nil {
		return nil, err
	}
	c.store.replaceReviews(businessID, resp.Answers)
	return resp.Answers, nil
}

func (c *Client) AddReview(ctx context.Context, businessID uint, answer string) (*Review, error) {
	var review Review
	err := c.do(ctx, http.MethodPost, "/api/reviews/new", map[string]any{
		"businessId": businessID,
		"answer":     answer,
	}, &review)
	if err != nil {
		return nil, err
	}
	c.store.upsertReview(review)
	return &review, nil
}

func (c *Client) DeleteReview(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", id), nil, nil); err != nil {
		return err
	}
	c.store.removeReview(id)
	return nil
}
