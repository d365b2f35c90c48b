package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// ImgBBUploader posts images to an imgbb-compatible hosting API.
type ImgBBUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
	now      func() time.Time
}

var _ Uploader = (*ImgBBUploader)(nil)

func NewImgBBUploader(endpoint, apiKey string, timeout time.Duration) (*ImgBBUploader, error) {
	if apiKey == "" {
		return nil, errors.New("imgbb api key is required")
	}
	if endpoint == "" {
		endpoint = "https://api.imgbb.com/1/upload"
	}

	return &ImgBBUploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}, nil
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (u *ImgBBUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	name := ObjectName(u.now(), contentType)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("name", name); err != nil {
		return "", err
	}
	part, err := form.CreateFormFile("image", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	endpoint := u.endpoint + "?key=" + url.QueryEscape(u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("imgbb upload: unexpected status %d", resp.StatusCode)
	}

	var parsed imgbbResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode imgbb response: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", errors.New("imgbb response did not contain an image url")
	}

	return parsed.Data.URL, nil
}
