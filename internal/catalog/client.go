// Package catalog клиент удалённого REST API каталога товаров
// (по умолчанию https://fakestoreapi.com).
//
// Клиент не повторяет запросы. Ответ со статусом вне 2xx превращается
// в *StatusError, обёрнутую вокруг ErrUnexpectedStatus. Превышение
// таймаута возвращается как транспортная ошибка.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// ErrUnexpectedStatus удалённый API ответил статусом вне 2xx.
var ErrUnexpectedStatus = errors.New("catalog: unexpected status")

// ErrNoToken удалённый API не вернул токен при входе.
var ErrNoToken = errors.New("catalog: no token in login response")

// ErrNotFound товара нет: API отвечает 404 или пустым телом со статусом 200.
var ErrNotFound = errors.New("catalog: product not found")

// StatusError ответ удалённого API со статусом вне 2xx.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %d %s", e.Op, ErrUnexpectedStatus.Error(), e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Client клиент удалённого каталога.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент с фиксированным таймаутом запроса.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Products возвращает товары каталога. limit <= 0 означает без ограничения.
func (c *Client) Products(ctx context.Context, limit int) ([]models.Product, error) {
	const op = "catalog.Products"
	path := "/products"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.Product
	if err := c.do(ctx, op, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product возвращает товар по id.
func (c *Client) Product(ctx context.Context, id int) (*models.Product, error) {
	const op = "catalog.Product"
	var out models.Product
	err := c.do(ctx, op, http.MethodGet, "/products/"+strconv.Itoa(id), "", nil, &out)
	var se *StatusError
	switch {
	case errors.Is(err, io.EOF), errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	case err != nil:
		return nil, err
	case out.ID == 0:
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &out, nil
}

// Categories возвращает список категорий.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	const op = "catalog.Categories"
	var out []string
	if err := c.do(ctx, op, http.MethodGet, "/products/categories", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductsByCategory возвращает товары категории.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	const op = "catalog.ProductsByCategory"
	var out []models.Product
	path := "/products/category/" + url.PathEscape(category)
	if err := c.do(ctx, op, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct создаёт товар от имени владельца token.
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error) {
	const op = "catalog.CreateProduct"
	var out models.Product
	if err := c.do(ctx, op, http.MethodPost, "/products", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct заменяет товар id.
func (c *Client) UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error) {
	const op = "catalog.UpdateProduct"
	var out models.Product
	if err := c.do(ctx, op, http.MethodPut, "/products/"+strconv.Itoa(id), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct удаляет товар id и возвращает удалённую запись, как её вернул API.
func (c *Client) DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error) {
	const op = "catalog.DeleteProduct"
	var out models.Product
	if err := c.do(ctx, op, http.MethodDelete, "/products/"+strconv.Itoa(id), token, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return &out, nil
}

// Login проверяет учётные данные и возвращает токен удалённого API.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "catalog.Login"
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoToken)
	}
	return out.Token, nil
}

// Users возвращает пользователей удалённого API.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	const op = "catalog.Users"
	var out []models.User
	if err := c.do(ctx, op, http.MethodGet, "/users", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body, result any) error {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
