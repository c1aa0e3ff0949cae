package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

func TestPresign_SendsPayload(t *testing.T) {
	caseID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/presign", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, caseID.String(), in["case_id"])
		assert.Equal(t, "akta.pdf", in["filename"])
		assert.Equal(t, "bukti", in["folder_slug"])
		_ = json.NewEncoder(w).Encode(map[string]any{"key": "cases/x/akta.pdf", "upload_url": "https://s3/put"})
	}))
	defer srv.Close()

	slug := "bukti"
	fs := NewFileService(srv.URL+"/", time.Second)
	up, err := fs.Presign(context.Background(), PresignRequest{CaseID: caseID, Filename: "akta.pdf", FolderSlug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "cases/x/akta.pdf", up.Key)
	assert.Equal(t, "https://s3/put", up.UploadURL)
}

func TestConfirm_AndDownload(t *testing.T) {
	fileID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files/confirm", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "a.pdf", "status": "uploaded", "bucket": "law"})
	})
	mux.HandleFunc("/api/files/"+fileID.String()+"/download", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"url": "https://s3/get"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fs := NewFileService(srv.URL, time.Second)
	f, err := fs.Confirm(context.Background(), "cases/x/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "cases/x/a.pdf", f.Key)
	assert.Equal(t, "uploaded", f.Status)

	url, err := fs.DownloadURL(context.Background(), fileID)
	require.NoError(t, err)
	assert.Equal(t, "https://s3/get", url)
}

func TestErrorMapping(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"bad filename"}`))
	}))
	defer srv.Close()
	fs := NewFileService(srv.URL, time.Second)
	ctx := context.Background()

	_, err := fs.DownloadURL(ctx, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	status = http.StatusBadGateway
	_, err = fs.Confirm(ctx, "k")
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	status = http.StatusBadRequest
	_, err = fs.Presign(ctx, PresignRequest{Filename: "x"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "bad filename", ae.Message)
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	fs := NewFileService(srv.URL, 20*time.Millisecond)
	_, err := fs.Presign(context.Background(), PresignRequest{Filename: "x"})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	closed := NewFileService("http://127.0.0.1:1", time.Second)
	_, err = closed.Confirm(context.Background(), "k")
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}
