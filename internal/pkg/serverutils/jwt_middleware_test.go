package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "middleware-test-secret"

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"user_id": ctx.Locals("user_id")})
	})
	return app
}

func signHMAC(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"role":    "student",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestJwtMiddlewareAcceptsSignedToken(t *testing.T) {
	app := newProtectedApp()

	res, err := app.Test(requestWithToken(signHMAC(t, testSecret)))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
}

func TestJwtMiddlewareRejectsBadTokens(t *testing.T) {
	app := newProtectedApp()

	// A token whose header claims alg "none" must be refused even
	// though its claims parse cleanly.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "u-1",
		"role":    "student",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"wrong secret", signHMAC(t, "some-other-secret")},
		{"alg none", noneToken},
		{"garbage", "not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := app.Test(requestWithToken(tc.token))
			if err != nil {
				t.Fatal(err)
			}
			if res.StatusCode != fiber.StatusUnauthorized {
				t.Errorf("status = %d, want 401", res.StatusCode)
			}
		})
	}
}
