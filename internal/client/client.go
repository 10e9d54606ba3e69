// Package client talks to the storefront HTTP API on behalf of an operator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/iyhunko/wallart-storefront/internal/http/controller"
)

// ErrUnauthorized is returned when the server rejects the credentials or the session.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-success response from the storefront.
type APIError struct {
	Status    int
	Message   string
	Partial   bool
	ProductID string
}

func (e *APIError) Error() string {
	if e.Partial {
		return fmt.Sprintf("storefront returned %d: %s (product %s was saved without variants)", e.Status, e.Message, e.ProductID)
	}
	return fmt.Sprintf("storefront returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client keeps the session cookie between calls.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for the storefront at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			// Redirects after login and logout are answers, not hops to follow.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Cookies returns the cookies held for the storefront, sorted by name.
func (c *Client) Cookies() []*http.Cookie {
	cookies := c.http.Jar.Cookies(c.baseURL)
	sort.Slice(cookies, func(i, j int) bool { return cookies[i].Name < cookies[j].Name })
	return cookies
}

// SetCookies restores cookies saved from an earlier Client.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.baseURL, cookies)
}

// Login signs in. The session cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) error {
	values := url.Values{}
	values.Set("email", email)
	values.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/login", strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return decodeError(resp)
	}
	return nil
}

// SubmitForm posts values as multipart/form-data to the product submission endpoint and
// returns the server's message.
func (c *Client) SubmitForm(ctx context.Context, values url.Values) (string, error) {
	body, contentType, err := encodeMultipart(values)
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/products", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", decodeError(resp)
	}

	var created controller.SubmitProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return created.Message, nil
}

// ListProducts returns the newest products, optionally filtered by category.
func (c *Client) ListProducts(ctx context.Context, category string) ([]controller.ProductResponse, error) {
	path := "/api/products"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}

	var list controller.ListProductsResponse
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.Products, nil
}

// Categories returns the catalog's categories with product counts.
func (c *Client) Categories(ctx context.Context) ([]controller.CategoryResponse, error) {
	var resp struct {
		Categories []controller.CategoryResponse `json:"categories"`
	}
	if err := c.getJSON(ctx, "/api/categories", &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, into interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return req, nil
}

// encodeMultipart writes values in sorted key order so the body is deterministic.
func encodeMultipart(values url.Values) (*bytes.Buffer, string, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, key := range keys {
		for _, value := range values[key] {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", fmt.Errorf("failed to encode field %s: %w", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error     string `json:"error"`
		Partial   bool   `json:"partial"`
		ProductID string `json:"productId"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Partial = body.Partial
		apiErr.ProductID = body.ProductID
	}
	return apiErr
}
