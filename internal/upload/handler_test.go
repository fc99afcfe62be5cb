package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/storeapi/internal/logging"
)

type fakeUploader struct {
	key  string
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key = key
	f.body = b
	return "https://storage.example/" + key, nil
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	handler := NewHandler(uploader, logging.NewLogger(true))

	content := bytes.Repeat([]byte("x"), 3*chunkSize+17)
	body, contentType := multipartBody(t, "photo.png", content)

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully uploaded photo.png", resp.Detail)
	assert.Equal(t, "https://storage.example/"+uploader.key, resp.FileURL)

	assert.True(t, strings.HasSuffix(uploader.key, "-photo.png"), "key %q should end with the filename", uploader.key)
	assert.True(t, strings.HasPrefix(uploader.key, "uploads/"), "key %q should be date-partitioned", uploader.key)
	assert.Equal(t, content, uploader.body, "uploaded bytes must match the original")
}

func TestUpload_MissingFile(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeUploader{}, logging.NewLogger(true))

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_StorageFailure(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeUploader{err: io.ErrUnexpectedEOF}, logging.NewLogger(true))

	body, contentType := multipartBody(t, "doc.pdf", []byte("content"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
