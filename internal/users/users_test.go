package users

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/identity"
	"github.com/aldoetobex/lawcase-backend/internal/testdb"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler(zap.NewNop().Sugar())})
	h := NewHandler(db, identity.NewService(db))
	app.Get("/api/users", h.List)
	app.Post("/api/users", h.Create)
	app.Delete("/api/users/:id", h.Delete)
	return app
}

func send(t *testing.T, app *fiber.App, method, url, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func userBody(username string) string {
	return `{"firm_code":"users","username":"` + username + `","full_name":"Staff ` + username +
		`","role":"staff","password":"Rahasia123","confirm_password":"Rahasia123"}`
}

func TestUsers_SeatCapAndRemove(t *testing.T) {
	db := testdb.Open(t)
	firm := testdb.SeedFirm(t, db, "users", true)
	require.NoError(t, db.Model(firm).Update("max_users", 2).Error)
	app := newTestApp(db)

	code, body := send(t, app, "POST", "/api/users", userBody("budi"))
	require.Equal(t, 201, code, string(body))
	var budi models.User
	require.NoError(t, json.Unmarshal(body, &budi))

	code, _ = send(t, app, "POST", "/api/users", userBody("budi"))
	assert.Equal(t, 409, code)

	code, _ = send(t, app, "POST", "/api/users", userBody("citra"))
	require.Equal(t, 201, code)

	code, body = send(t, app, "POST", "/api/users", userBody("dodi"))
	assert.Equal(t, 409, code)
	assert.Contains(t, string(body), "seat limit reached")

	code, body = send(t, app, "GET", "/api/users?firm_code=users", "")
	require.Equal(t, 200, code)
	var list []models.User
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)
	assert.NotContains(t, string(body), "password")

	url := "/api/users/" + budi.ID.String() + "?firm_code=users"
	code, _ = send(t, app, "DELETE", url+"&admin_password=Wrong1234", "")
	assert.Equal(t, 401, code)
	code, _ = send(t, app, "DELETE", url+"&admin_password="+testdb.FirmPassword, "")
	require.Equal(t, 204, code)

	code, _ = send(t, app, "POST", "/api/users", userBody("dodi"))
	assert.Equal(t, 201, code)
}

func TestUsers_Validation(t *testing.T) {
	db := testdb.Open(t)
	testdb.SeedFirm(t, db, "users", true)
	app := newTestApp(db)

	code, body := send(t, app, "POST", "/api/users",
		`{"firm_code":"users","username":"x y","full_name":"X","role":"boss","password":"short","confirm_password":"other"}`)
	require.Equal(t, 400, code)
	var resp models.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	for _, f := range []string{"username", "full_name", "role", "password", "confirm_password"} {
		assert.Contains(t, resp.Errors, f)
	}
}
