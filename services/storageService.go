package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageClient talks to the managed backend's object storage over HTTP:
// bucket existence check/create, upload with an overwrite flag, and public
// URL construction. Objects themselves live entirely on the backend.
type StorageClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var storageClient *StorageClient

func InitStorageClient() {
	storageClient = &StorageClient{
		baseURL: strings.TrimRight(os.Getenv("STORAGE_URL"), "/"),
		apiKey:  os.Getenv("SERVICE_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func GetStorageClient() *StorageClient {
	return storageClient
}

// EnsureBucket checks that a bucket exists and creates it when the check
// comes back not-found.
func (s *StorageClient) EnsureBucket(ctx context.Context, name string, public bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/bucket/"+name, nil)
	if err != nil {
		return err
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("bucket check for %s returned %d", name, resp.StatusCode)
	}

	body, err := json.Marshal(map[string]interface{}{
		"id":     name,
		"name":   name,
		"public": public,
	})
	if err != nil {
		return err
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/bucket", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err = s.client.Do(req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("bucket create for %s returned %d", name, resp.StatusCode)
	}
	return nil
}

// Upload stores an object and returns its public URL. overwrite maps to the
// backend's upsert flag so re-uploads under a stable path succeed.
func (s *StorageClient) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string, overwrite bool) (string, error) {
	if err := s.EnsureBucket(ctx, bucket, true); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/object/"+bucket+"/"+objectPath, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", strconv.FormatBool(overwrite))
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload to %s/%s returned %d: %s", bucket, objectPath, resp.StatusCode, detail)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return s.PublicURL(bucket, objectPath), nil
}

// PublicURL returns the unauthenticated fetch URL for an object.
func (s *StorageClient) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, bucket, objectPath)
}

func (s *StorageClient) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
