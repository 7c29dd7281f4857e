package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Carima-SSY/AWS-Client/internal/config"
)

// APIGatewayPresigner запрашивает presigned URL у облачного API
type APIGatewayPresigner struct {
	endpoint     string
	deviceType   string
	deviceNumber string
	http         *http.Client
}

func NewAPIGatewayPresigner(cfg *config.AppConfig, httpClient *http.Client) (*APIGatewayPresigner, error) {
	if strings.TrimSpace(cfg.Storage.APIGatewayURL) == "" {
		return nil, errors.New("APIG_ENDPOINT is required when STORAGE_BACKEND=apigateway")
	}
	return &APIGatewayPresigner{
		endpoint:     cfg.Storage.APIGatewayURL,
		deviceType:   cfg.Device.Type,
		deviceNumber: cfg.Device.Number,
		http:         httpClient,
	}, nil
}

type presignRequest struct {
	Action       string `json:"action"`
	Method       string `json:"method"`
	Key          string `json:"key"`
	DeviceType   string `json:"device-type"`
	DeviceNumber string `json:"device-number"`
}

func (p *APIGatewayPresigner) Presign(ctx context.Context, method, key string) (string, error) {
	body, err := json.Marshal(presignRequest{
		Action:       "get_presigned_url",
		Method:       method,
		Key:          key,
		DeviceType:   p.deviceType,
		DeviceNumber: p.deviceNumber,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(statusText(resp))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("ответ API: %w", err)
	}
	return parsePresignResponse(raw)
}

// parsePresignResponse принимает "url" или {"url": "..."}
func parsePresignResponse(raw json.RawMessage) (string, error) {
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil && direct != "" {
		return direct, nil
	}
	var wrapped struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.URL != "" {
		return wrapped.URL, nil
	}
	return "", fmt.Errorf("в ответе API нет url")
}
