package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/logging"
)

const testJWTSecret = "routes-test-secret"

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	_, err := Setup(app, Deps{
		Cfg: config.Config{
			AppEnv:    "test",
			JWTSecret: testJWTSecret,
		},
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestCatalogIsPublic(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/operators", "", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if _, ok := body["operators"]; !ok {
		t.Fatalf("expected operators payload, got %v", body)
	}
}

func TestWalletRequiresAuth(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/wallet", "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRechargeEndToEnd(t *testing.T) {
	app := setupApp(t)
	token := bearerToken(t, "user-e2e")

	// First touch provisions an empty wallet.
	status, body := doJSON(t, app, fiber.MethodGet, "/api/v1/wallet", token, "")
	if status != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d (%v)", status, body)
	}
	if body["balance"].(float64) != 0 {
		t.Fatalf("new wallet must be empty, got %v", body["balance"])
	}

	// Top up, then recharge. No gateway is configured, so the static
	// gateway approves the request.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/wallet/credit", token, `{"amount": 50000}`)
	if status != http.StatusOK {
		t.Fatalf("credit: expected 200, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/recharges", token,
		`{"operator_id": "1", "amount": 19900, "mobile_number": "7011234567"}`)
	if status != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d (%v)", status, body)
	}
	if body["status"] != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %v", body["status"])
	}
	txID, _ := body["transaction_id"].(string)
	if txID == "" {
		t.Fatal("missing transaction_id")
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/wallet", token, "")
	if status != http.StatusOK {
		t.Fatalf("balance after: expected 200, got %d", status)
	}
	if body["balance"].(float64) != 30100 || body["locked_balance"].(float64) != 0 {
		t.Fatalf("expected 30100/0 after settlement, got %v/%v", body["balance"], body["locked_balance"])
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/recharges/"+txID, token, "")
	if status != http.StatusOK {
		t.Fatalf("status lookup: expected 200, got %d", status)
	}

	// Another user cannot see the transaction.
	otherToken := bearerToken(t, "user-other")
	status, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/recharges/"+txID, otherToken, "")
	if status != http.StatusNotFound {
		t.Fatalf("cross-user lookup must 404, got %d", status)
	}
}

func TestInsufficientFundsSurfacesAsPaymentRequired(t *testing.T) {
	app := setupApp(t)
	token := bearerToken(t, "user-poor")

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/wallet", token, "")
	if status != http.StatusOK {
		t.Fatalf("provision wallet: %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/recharges", token,
		`{"operator_id": "1", "amount": 19900, "mobile_number": "7011234567"}`)
	if status != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", status)
	}
}

func TestProductionSetupDemandsBackends(t *testing.T) {
	app := fiber.New()
	_, err := Setup(app, Deps{
		Cfg:    config.Config{AppEnv: "production", JWTSecret: "x"},
		Logger: logging.Discard(),
	})
	if err == nil {
		t.Fatal("production setup without a database must fail")
	}
}
