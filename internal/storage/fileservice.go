package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/lawcase-backend/internal/metrics"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

/*
FileService wraps the three calls made to the external object-storage API.
Binary content never passes through this process: the API hands out
presigned upload targets, confirms finished uploads and returns download URLs.

  POST {base}/api/files/presign   {case_id, filename, folder_slug, content_type}
  POST {base}/api/files/confirm   {key}
  GET  {base}/api/files/{id}/download
*/
type FileService struct {
	baseURL string
	client  *http.Client
}

func NewFileService(baseURL string, timeout time.Duration) *FileService {
	return &FileService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type PresignRequest struct {
	CaseID      uuid.UUID `json:"case_id"`
	Filename    string    `json:"filename"`
	FolderSlug  *string   `json:"folder_slug"`
	ContentType *string   `json:"content_type"`
}

// Upload is the presigned target returned to the browser.
type Upload struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	ExpiresIn int               `json:"expires_in,omitempty"`
}

// ConfirmedFile describes an object after a finished upload.
type ConfirmedFile struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	CaseID      uuid.UUID  `json:"case_id"`
	FolderSlug  *string    `json:"folder_slug,omitempty"`
	Name        string     `json:"name"`
	Provider    string     `json:"provider"`
	Bucket      string     `json:"bucket"`
	Key         string     `json:"s3_key"`
	SizeBytes   *int64     `json:"size_bytes"`
	ContentType string     `json:"content_type"`
	Status      string     `json:"status"`
	URL         string     `json:"storage_url"`
}

type Download struct {
	URL string `json:"url"`
}

func (s *FileService) Presign(ctx context.Context, in PresignRequest) (*Upload, error) {
	var out Upload
	if err := s.do(ctx, "presign", http.MethodPost, "/api/files/presign", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FileService) Confirm(ctx context.Context, key string) (*ConfirmedFile, error) {
	var out ConfirmedFile
	if err := s.do(ctx, "confirm", http.MethodPost, "/api/files/confirm", map[string]string{"key": key}, &out); err != nil {
		return nil, err
	}
	if out.Key == "" {
		out.Key = key
	}
	return &out, nil
}

func (s *FileService) DownloadURL(ctx context.Context, fileID uuid.UUID) (string, error) {
	var out Download
	if err := s.do(ctx, "download", http.MethodGet, "/api/files/"+fileID.String()+"/download", nil, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", apperr.Unavailable("file service unavailable", errors.New("empty download url"))
	}
	return out.URL, nil
}

// do sends one JSON request. Transport failures and 5xx map to
// Unavailable, 404 to NotFound, other 4xx to a validation error.
func (s *FileService) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	defer func() { metrics.FileServiceRequestsTotal.WithLabelValues(op, resultLabel(err)).Inc() }()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, r)
	if err != nil {
		return apperr.Internal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return apperr.Unavailable("file service unavailable", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return apperr.NotFound("file not found")
	case res.StatusCode >= 500:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return apperr.Unavailable("file service unavailable", fmt.Errorf("%s %s: %s | %s", method, path, res.Status, b))
	case res.StatusCode >= 400:
		return apperr.BadRequest(upstreamMessage(res.Body, res.Status))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperr.Unavailable("file service unavailable", fmt.Errorf("decode %s response: %w", op, err))
	}
	return nil
}

// upstreamMessage extracts {"detail": "..."} or {"message": "..."} from an error body.
func upstreamMessage(r io.Reader, fallback string) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fallback
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.KindOf(err) == apperr.KindNotFound:
		return "not_found"
	case apperr.KindOf(err) == apperr.KindUnavailable:
		return "unavailable"
	default:
		return "rejected"
	}
}
