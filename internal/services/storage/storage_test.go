package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloud - API выдачи URL и хранилище объектов в одном сервере
type fakeCloud struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	requests []presignRequest
	wrap     bool
	srv      *httptest.Server
}

func newFakeCloud(t *testing.T, wrap bool) *fakeCloud {
	t.Helper()
	fc := &fakeCloud{objects: map[string][]byte{}, types: map[string]string{}, wrap: wrap}
	mux := http.NewServeMux()
	mux.HandleFunc("/presign", func(w http.ResponseWriter, r *http.Request) {
		var req presignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fc.mu.Lock()
		fc.requests = append(fc.requests, req)
		fc.mu.Unlock()

		u := fc.srv.URL + "/objects/" + req.Key
		if fc.wrap {
			_ = json.NewEncoder(w).Encode(map[string]string{"url": u})
		} else {
			_ = json.NewEncoder(w).Encode(u)
		}
	})
	mux.HandleFunc("/objects/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/objects/")
		fc.mu.Lock()
		defer fc.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			fc.objects[key] = body
			fc.types[key] = r.Header.Get("Content-Type")
		case http.MethodGet:
			body, ok := fc.objects[key]
			if !ok {
				http.Error(w, "NoSuchKey", http.StatusNotFound)
				return
			}
			_, _ = w.Write(body)
		}
	})
	fc.srv = httptest.NewServer(mux)
	t.Cleanup(fc.srv.Close)
	return fc
}

func newTestClient(t *testing.T, fc *fakeCloud) *Client {
	t.Helper()
	cfg := &config.AppConfig{
		Device: config.DeviceConfig{Type: "DM400", Number: "7"},
		Storage: config.StorageConfig{
			Backend:       "apigateway",
			APIGatewayURL: fc.srv.URL + "/presign",
			HTTPTimeout:   5 * time.Second,
		},
	}
	c, err := NewObjectStore(cfg, logging.Nop())
	require.NoError(t, err)
	return c
}

func TestClient_PutAndGetJSON(t *testing.T) {
	fc := newFakeCloud(t, false)
	c := newTestClient(t, fc)
	ctx := context.Background()

	require.NoError(t, c.PutJSON(ctx, "DM400/7/recipe/recipe.json", map[string]int{"a": 1}))
	assert.Equal(t, "application/json", fc.types["DM400/7/recipe/recipe.json"])

	var out map[string]int
	require.NoError(t, c.GetJSON(ctx, "DM400/7/recipe/recipe.json", &out))
	assert.Equal(t, 1, out["a"])

	require.Len(t, fc.requests, 2)
	assert.Equal(t, "get_presigned_url", fc.requests[0].Action)
	assert.Equal(t, MethodPut, fc.requests[0].Method)
	assert.Equal(t, MethodGet, fc.requests[1].Method)
	assert.Equal(t, "7", fc.requests[1].DeviceNumber)
}

func TestClient_PutFileWrappedURL(t *testing.T) {
	fc := newFakeCloud(t, true)
	c := newTestClient(t, fc)

	path := filepath.Join(t.TempDir(), "bundle.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK.."), 0o644))

	require.NoError(t, c.PutFile(context.Background(), "DM400/7/cam-bundle/job.zip", "application/zip", path))
	assert.Equal(t, []byte("PK.."), fc.objects["DM400/7/cam-bundle/job.zip"])
}

func TestClient_GetMissing(t *testing.T) {
	fc := newFakeCloud(t, false)
	c := newTestClient(t, fc)

	var out map[string]any
	err := c.GetJSON(context.Background(), "nope.json", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestParsePresignResponse(t *testing.T) {
	_, err := parsePresignResponse(json.RawMessage(`{"nothing": true}`))
	assert.Error(t, err)

	u, err := parsePresignResponse(json.RawMessage(`"https://s3/x"`))
	require.NoError(t, err)
	assert.Equal(t, "https://s3/x", u)
}

func TestNewObjectStore_Validation(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageConfig{Backend: "apigateway"}}
	_, err := NewObjectStore(cfg, logging.Nop())
	assert.ErrorContains(t, err, "APIG_ENDPOINT")

	cfg.Storage.Backend = "minio"
	_, err = NewObjectStore(cfg, logging.Nop())
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
}

func TestMinIOPresigner_SignsLocally(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageConfig{
		Backend:        "minio",
		MinIOEndpoint:  "127.0.0.1:9000",
		MinIOAccessKey: "access",
		MinIOSecretKey: "secret",
		MinIOBucket:    "artifacts",
		MinIORegion:    "us-east-1",
		PresignExpiry:  time.Minute,
	}}
	p, err := NewMinIOPresigner(cfg)
	require.NoError(t, err)

	u, err := p.Presign(context.Background(), MethodPut, "DM400/7/device-log/a.json")
	require.NoError(t, err)
	assert.Contains(t, u, "/artifacts/DM400/7/device-log/a.json")
	assert.Contains(t, u, "X-Amz-Signature=")

	_, err = p.Presign(context.Background(), "delete_object", "x")
	assert.Error(t, err)
}
