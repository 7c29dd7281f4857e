package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

// Методы presigned URL в терминах облачного API
const (
	MethodGet = "get_object"
	MethodPut = "put_object"
)

// Presigner выдает presigned URL для ключа объекта
type Presigner interface {
	Presign(ctx context.Context, method, key string) (string, error)
}

// Client выполняет GET/PUT по presigned URL
type Client struct {
	presigner Presigner
	http      *http.Client
	logger    *logging.Logger
}

var _ interfaces.ObjectStore = (*Client)(nil)

func NewClient(presigner Presigner, httpClient *http.Client, logger *logging.Logger) *Client {
	return &Client{
		presigner: presigner,
		http:      httpClient,
		logger:    logger.WithPrefix("STORAGE"),
	}
}

// NewObjectStore собирает клиент для бэкенда из STORAGE_BACKEND
func NewObjectStore(cfg *config.AppConfig, logger *logging.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.Storage.HTTPTimeout}

	var (
		presigner Presigner
		err       error
	)
	switch cfg.Storage.Backend {
	case "apigateway":
		presigner, err = NewAPIGatewayPresigner(cfg, httpClient)
	case "minio":
		presigner, err = NewMinIOPresigner(cfg)
	default:
		err = fmt.Errorf("неизвестный бэкенд хранилища %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Object storage configured", "backend", cfg.Storage.Backend)
	return NewClient(presigner, httpClient, logger), nil
}

// Prepare готовит бэкенд к работе (для minio создает бакет)
func (c *Client) Prepare(ctx context.Context) error {
	if b, ok := c.presigner.(interface{ EnsureBucket(context.Context) error }); ok {
		return b.EnsureBucket(ctx)
	}
	return nil
}

func (c *Client) PresignURL(ctx context.Context, method, key string) (string, error) {
	u, err := c.presigner.Presign(ctx, method, key)
	if err != nil {
		return "", fmt.Errorf("presign %s %s: %w", method, key, err)
	}
	return u, nil
}

func (c *Client) GetJSON(ctx context.Context, key string, out any) error {
	u, err := c.PresignURL(ctx, MethodGet, key)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", key, statusText(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("разбор %s: %w", key, err)
	}
	return nil
}

func (c *Client) PutJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.PutBytes(ctx, key, "application/json", body)
}

func (c *Client) PutBytes(ctx context.Context, key, contentType string, body []byte) error {
	return c.put(ctx, key, contentType, bytes.NewReader(body), int64(len(body)))
}

func (c *Client) PutFile(ctx context.Context, key, contentType, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return c.put(ctx, key, contentType, f, info.Size())
}

func (c *Client) put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	u, err := c.PresignURL(ctx, MethodPut, key)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("PUT %s: %w", key, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("PUT %s: %s", key, statusText(resp))
	}
	c.logger.Debug("Object uploaded", "key", key, "size", size)
	return nil
}

func statusText(resp *http.Response) string {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if s := strings.TrimSpace(string(msg)); s != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, s)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
