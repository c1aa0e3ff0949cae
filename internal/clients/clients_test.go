package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/testdb"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler(zap.NewNop().Sugar())})
	h := NewHandler(db)
	app.Get("/api/clients", h.List)
	app.Post("/api/clients", h.Create)
	app.Get("/api/clients/:id", h.Get)
	app.Patch("/api/clients/:id", h.Update)
	app.Delete("/api/clients/:id", h.Delete)
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

func strp(s string) *string { return &s }

/* ============================================================================
   Tests
   ============================================================================ */

func TestPatch_Apply(t *testing.T) {
	c := models.Client{Name: "Old", Phone: strp("1")}
	cols := Patch{Notes: strp("  "), Email: strp("a@b.c")}.Apply(&c)
	assert.Equal(t, []string{"email", "notes"}, cols)
	assert.Equal(t, "Old", c.Name)
	assert.Equal(t, "1", *c.Phone)
	assert.Nil(t, c.Notes)
	assert.Empty(t, Patch{}.Apply(&c))
}

func TestCreate_PhoneCoalescing(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	firm := testdb.SeedFirm(t, db, "coalesce", true)

	_, err := create(ctx, db, firm.ID, Fields{Name: "Rina", Phone: strp("")}, nil)
	require.NoError(t, err)

	_, err = create(ctx, db, firm.ID, Fields{Name: "Rina"}, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = create(ctx, db, firm.ID, Fields{Name: "Rina", Phone: strp("0811")}, nil)
	require.NoError(t, err)
	_, err = create(ctx, db, firm.ID, Fields{Name: "Rina", Phone: strp("0811")}, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// the unique index holds even without the pre-check
	err = db.Create(&models.Client{FirmID: firm.ID, Name: "Rina"}).Error
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(apperr.FromDB(err, "", "dup")))
}

func TestHTTP_CreateListPatchDelete(t *testing.T) {
	db := testdb.Open(t)
	firm := testdb.SeedFirm(t, db, "http_cl", true)
	app := newTestApp(db)

	code, body := send(t, app, "POST", "/api/clients", `{"firm_code":"http_cl","name":"  Dewi ","phone":"0812"}`)
	require.Equal(t, 201, code, string(body))
	var created models.Client
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Dewi", created.Name)

	code, _ = send(t, app, "POST", "/api/clients", `{"firm_code":"http_cl","name":"Dewi","phone":"0812"}`)
	assert.Equal(t, 409, code)

	code, body = send(t, app, "POST", "/api/clients", `{"firm_code":"http_cl","name":""}`)
	assert.Equal(t, 400, code)
	assert.Contains(t, string(body), `"name"`)

	code, body = send(t, app, "GET", "/api/clients?firm_code=http_cl&query=DEW", "")
	require.Equal(t, 200, code)
	var page models.Page[models.Client]
	require.NoError(t, json.Unmarshal(body, &page))
	assert.EqualValues(t, 1, page.Total)

	code, _ = send(t, app, "GET", "/api/clients?firm_code=http_cl&page_size=101", "")
	assert.Equal(t, 400, code)

	cs := models.Case{FirmID: firm.ID, ClientID: &created.ID}
	require.NoError(t, db.Create(&cs).Error)

	url := "/api/clients/" + created.ID.String()
	code, body = send(t, app, "PATCH", url, `{"firm_code":"http_cl","notes":"VIP"}`)
	require.Equal(t, 200, code, string(body))
	var patched models.Client
	require.NoError(t, json.Unmarshal(body, &patched))
	assert.Equal(t, "VIP", *patched.Notes)
	assert.Equal(t, "0812", *patched.Phone)

	code, _ = send(t, app, "DELETE", url+"?firm_code=http_cl", "")
	require.Equal(t, 204, code)

	var stored models.Case
	require.NoError(t, db.First(&stored, "id = ?", cs.ID).Error)
	assert.Nil(t, stored.ClientID)

	code, _ = send(t, app, "GET", url+"?firm_code=http_cl", "")
	assert.Equal(t, 404, code)
}

func TestHTTP_TenantScopeAndPlanGate(t *testing.T) {
	db := testdb.Open(t)
	a := testdb.SeedFirm(t, db, "firm_a", true)
	testdb.SeedFirm(t, db, "firm_b", true)
	testdb.SeedFirm(t, db, "unpaid", false)
	app := newTestApp(db)

	cl := models.Client{FirmID: a.ID, Name: "Only A"}
	require.NoError(t, db.Create(&cl).Error)

	code, _ := send(t, app, "GET", "/api/clients/"+cl.ID.String()+"?firm_code=firm_b", "")
	assert.Equal(t, 404, code)

	code, body := send(t, app, "GET", "/api/clients?firm_code=unpaid", "")
	assert.Equal(t, 403, code)
	assert.Contains(t, string(body), "plan required")

	code, _ = send(t, app, "GET", "/api/clients", "")
	assert.Equal(t, 400, code)

	code, _ = send(t, app, "GET", "/api/clients/"+uuid.NewString()+"?firm_code=nope", "")
	assert.Equal(t, 404, code)
}
