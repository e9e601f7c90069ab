package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the remote service answers 404.
var ErrNotFound = errors.New("not found")

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type Product struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price int64     `json:"price"`
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// UserClient looks users up in the auth service.
type UserClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUserClient(baseURL string) *UserClient {
	return &UserClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

func (c *UserClient) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/user/%s", c.baseURL, userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CatalogClient looks products up in the catalog service.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{baseURL: baseURL, httpClient: newHTTPClient()}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error) {
	var product Product
	if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/product/%s", c.baseURL, productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
