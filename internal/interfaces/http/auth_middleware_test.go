package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "inventario-ledger-test"
	testExpMin    = 60
)

// buildGuardedApp GET /protected detrás de AuthMiddleware + RequireRole(allowed...).
func buildGuardedApp(allowed ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

// tokenForRole genera un JWT con el rol indicado ("" = token sin rol).
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func getProtected(t *testing.T, app *fiber.App, authHeader string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		allowed  []string
		role     string
		status   int
		wantCode string
	}{
		{"admin en ruta de admin", []string{pkgjwt.RoleAdmin}, pkgjwt.RoleAdmin, http.StatusOK, ""},
		{"bodeguero en ruta de escritura", []string{pkgjwt.RoleAdmin, pkgjwt.RoleBodeguero}, pkgjwt.RoleBodeguero, http.StatusOK, ""},
		{"rol sin distinguir mayúsculas", []string{pkgjwt.RoleAdmin}, "ADMIN", http.StatusOK, ""},
		{"permitido declarado en mayúsculas", []string{"Bodeguero"}, pkgjwt.RoleBodeguero, http.StatusOK, ""},
		{"vendedor en ruta de escritura", []string{pkgjwt.RoleAdmin, pkgjwt.RoleBodeguero}, pkgjwt.RoleVendedor, http.StatusForbidden, "FORBIDDEN"},
		{"bodeguero en ruta de admin", []string{pkgjwt.RoleAdmin}, pkgjwt.RoleBodeguero, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{pkgjwt.RoleAdmin}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := getProtected(t, buildGuardedApp(tc.allowed...), tokenForRole(t, tc.role))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}

func TestAuthMiddleware_Cabecera(t *testing.T) {
	valid := tokenForRole(t, pkgjwt.RoleAdmin)
	cases := []struct {
		name     string
		header   string
		status   int
		wantCode string
	}{
		{"sin cabecera", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema distinto", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"esquema en minúsculas", "bearer " + valid[len("Bearer "):], http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := getProtected(t, buildGuardedApp(pkgjwt.RoleAdmin), tc.header)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}

func TestAuthMiddleware_CargaClaims(t *testing.T) {
	app := buildGuardedApp(pkgjwt.RoleBodeguero)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleBodeguero))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, pkgjwt.RoleBodeguero, body["role"])
}

// La política de roles del router: escribir en el libro exige admin o bodeguero,
// consultar solo exige un token válido.
func TestRouter_PoliticaDeRoles(t *testing.T) {
	app := buildInventoryApp(t)
	adjust := map[string]any{"product_id": apiProduct, "warehouse_id": apiWhMain, "direction": "ENTRY", "quantity": "1"}

	resp := call(t, app, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleVendedor, adjust)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/adjustments", nil)
	req.Header.Set("Authorization", tokenForRole(t, ""))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", decode[dto.ErrorResponse](t, resp).Code)

	resp = call(t, app, http.MethodGet, "/api/inventory/stock", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestJWT_GenerateYParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleBodeguero, testIssuer, testExpMin)
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, pkgjwt.RoleBodeguero, role)

	_, _, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)

	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	_, _, err = pkgjwt.Parse(testJWTSecret, expired)
	assert.Error(t, err)
}
