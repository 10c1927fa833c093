package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/logging"
)

func TestValidateAPIKey(t *testing.T) {
	assert.True(t, ValidateAPIKey(strings.Repeat("k", 32)))
	assert.True(t, ValidateAPIKey(strings.Repeat("k", 64)))
	assert.False(t, ValidateAPIKey(strings.Repeat("k", 31)))
	assert.False(t, ValidateAPIKey(""))
	assert.False(t, ValidateAPIKey(strings.Repeat(" ", 40)))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("abc"))
	assert.Equal(t, "abcd****", maskAPIKey("abcdefgh"))
}

func newAuthApp(keys []string, enabled bool) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), keys, enabled))
	app.Get("/v1/session", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAPIKeyAuth(t *testing.T) {
	valid := strings.Repeat("q", 40)
	short := "too-short"

	tests := []struct {
		name    string
		keys    []string
		enabled bool
		headers map[string]string
		want    int
	}{
		{name: "disabled", enabled: false, want: fiber.StatusOK},
		{name: "missing key", keys: []string{valid}, enabled: true, want: fiber.StatusUnauthorized},
		{name: "x-api-key", keys: []string{valid}, enabled: true, headers: map[string]string{"X-API-Key": valid}, want: fiber.StatusOK},
		{name: "bearer", keys: []string{valid}, enabled: true, headers: map[string]string{"Authorization": "Bearer " + valid}, want: fiber.StatusOK},
		{name: "bare authorization", keys: []string{valid}, enabled: true, headers: map[string]string{"Authorization": valid}, want: fiber.StatusOK},
		{name: "wrong key", keys: []string{valid}, enabled: true, headers: map[string]string{"X-API-Key": strings.Repeat("z", 40)}, want: fiber.StatusUnauthorized},
		{name: "short configured keys are ignored", keys: []string{short}, enabled: true, headers: map[string]string{"X-API-Key": short}, want: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(tt.keys, tt.enabled)
			req := httptest.NewRequest("GET", "/v1/session", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
