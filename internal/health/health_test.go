package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, ping Pinger) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/healthz", NewHandler(ping).Readiness)
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestReadiness(t *testing.T) {
	code, out := probe(t, func(context.Context) error { return nil })
	assert.Equal(t, 200, code)
	assert.Equal(t, Response{OK: true, DB: "up"}, out)

	code, out = probe(t, func(context.Context) error { return errors.New("connection refused") })
	assert.Equal(t, 503, code)
	assert.Equal(t, Response{OK: false, DB: "down"}, out)
}

func TestLiveness(t *testing.T) {
	app := fiber.New()
	app.Get("/health", NewHandler(nil).Liveness)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
