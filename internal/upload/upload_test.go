package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.Unix(1767225600, 42)

	name := ObjectName(now, "image/jpeg")
	assert.True(t, strings.HasPrefix(name, "images/1767225600000000042-"), name)
	assert.True(t, strings.HasSuffix(name, ".jpeg"), name)

	assert.True(t, strings.HasSuffix(ObjectName(now, "image/png"), ".png"))
	assert.NotEqual(t, ObjectName(now, "image/jpeg"), ObjectName(now, "image/jpeg"))
}

func TestImgBBUploader(t *testing.T) {
	image := []byte("fake-jpeg-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.True(t, strings.HasPrefix(r.FormValue("name"), "images/"))

		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, image, got)

		_, _ = w.Write([]byte(`{"success":true,"status":200,"data":{"url":"https://i.ibb.co/abc/img.jpeg"}}`))
	}))
	defer server.Close()

	u, err := NewImgBBUploader(server.URL, "secret", time.Second)
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), image, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/img.jpeg", url)
}

func TestImgBBUploader_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rejected", status: http.StatusBadRequest, body: `{"success":false}`},
		{name: "unsuccessful", status: http.StatusOK, body: `{"success":false,"data":{}}`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			u, err := NewImgBBUploader(server.URL, "secret", time.Second)
			require.NoError(t, err)

			_, err = u.Upload(context.Background(), []byte("x"), "image/jpeg")
			assert.Error(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "imgbb"})
	assert.Error(t, err, "api key is required")

	u, err := New(context.Background(), Config{Provider: "imgbb", ImgBBAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ImgBBUploader{}, u)

	_, err = New(context.Background(), Config{Provider: "gcs"})
	assert.Error(t, err, "bucket is required")
}
