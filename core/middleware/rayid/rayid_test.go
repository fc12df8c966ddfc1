package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalsKey).(string))
	})

	tests := []struct {
		name     string
		incoming string
	}{
		{"Generated", ""},
		{"Propagated", "ray-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(Header, tt.incoming)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			got := resp.Header.Get(Header)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, got)
				return
			}
			_, err = uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}
