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
	"github.com/shopspring/decimal"

	"github.com/gobank/gobank/internal/apperr"
	"github.com/gobank/gobank/internal/config"
	"github.com/gobank/gobank/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppName:       "GoBank",
		AppEnv:        "test",
		Port:          "0",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		SeedBalance:   decimal.NewFromInt(1_000),
		HistoryLimit:  50,
	}
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	if err := Setup(app, Deps{Cfg: testConfig(), Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, cookie *http.Cookie) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, payload
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "bank_token" {
			return c
		}
	}
	t.Fatalf("no bank_token cookie in response")
	return nil
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

func TestRegisterLoginDepositWithdrawRoundTrip(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/register",
		`{"email":"alice@example.com","password":"hunter2","fullName":"Alice Doe"}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", resp.StatusCode, body)
	}
	var registered struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
	}
	if err := json.Unmarshal(body, &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.ID == "" || registered.Email != "alice@example.com" || registered.FullName != "Alice Doe" {
		t.Fatalf("unexpected register response: %s", body)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter2"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	cookie := sessionCookie(t, resp)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/deposit", `{"amount":100}`, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, fiber.MethodPost, "/api/withdraw", `{"amount":40}`, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: expected 200, got %d", resp.StatusCode)
	}
	var withdrawResp balanceResponse
	if err := json.Unmarshal(body, &withdrawResp); err != nil {
		t.Fatalf("decode withdraw response: %v", err)
	}
	if !withdrawResp.Balance.Equal(decimal.NewFromInt(1_060)) {
		t.Fatalf("expected balance 1060, got %s", withdrawResp.Balance)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/balance", "", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d", resp.StatusCode)
	}
	var bal balanceResponse
	if err := json.Unmarshal(body, &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if !bal.Balance.Equal(decimal.NewFromInt(1_060)) {
		t.Fatalf("expected balance 1060, got %s", bal.Balance)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/transactions", "", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transactions: expected 200, got %d", resp.StatusCode)
	}
	var entries []struct {
		Type   string          `json:"type"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != "withdraw" || !entries[0].Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected newest entry withdraw 40, got %+v", entries[0])
	}
	if entries[1].Type != "deposit" || !entries[1].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected oldest entry deposit 100, got %+v", entries[1])
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/me", "", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "alice@example.com") {
		t.Fatalf("unexpected me response: %s", body)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	app := setupApp(t)

	payload := `{"email":"alice@example.com","password":"pw","fullName":"Alice"}`
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/register", payload, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", resp.StatusCode)
	}
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/register", payload, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d (%s)", resp.StatusCode, body)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	app := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/register", `{"email":"a@b.com"}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/register",
		`{"email":"alice@example.com","password":"hunter2","fullName":"Alice"}`, nil)

	respWrongPw, bodyWrongPw := doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"nope"}`, nil)
	respUnknown, bodyUnknown := doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"ghost@example.com","password":"hunter2"}`, nil)

	if respWrongPw.StatusCode != http.StatusUnauthorized || respUnknown.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", respWrongPw.StatusCode, respUnknown.StatusCode)
	}
	if string(bodyWrongPw) != string(bodyUnknown) {
		t.Fatalf("error bodies differ: %s vs %s", bodyWrongPw, bodyUnknown)
	}
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	app := setupApp(t)

	paths := []struct{ method, path, body string }{
		{fiber.MethodGet, "/api/balance", ""},
		{fiber.MethodPost, "/api/deposit", `{"amount":1}`},
		{fiber.MethodPost, "/api/withdraw", `{"amount":1}`},
		{fiber.MethodPost, "/api/send-money", `{"toEmail":"x@y.com","amount":1}`},
		{fiber.MethodGet, "/api/transactions", ""},
		{fiber.MethodGet, "/api/me", ""},
	}
	for _, p := range paths {
		resp, _ := doJSON(t, app, p.method, p.path, p.body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestLogoutRevokesSessionEverywhere(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/register",
		`{"email":"alice@example.com","password":"hunter2","fullName":"Alice"}`, nil)
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter2"}`, nil)
	cookie := sessionCookie(t, resp)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/logout", "", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	// the token signature is still valid; revocation must reject it anyway
	for _, path := range []string{"/api/balance", "/api/transactions", "/api/me"} {
		resp, _ := doJSON(t, app, fiber.MethodGet, path, "", cookie)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s after logout: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestSendMoneyEndToEnd(t *testing.T) {
	app := setupApp(t)

	for _, u := range []struct{ email, name string }{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
	} {
		doJSON(t, app, fiber.MethodPost, "/api/register",
			`{"email":"`+u.email+`","password":"hunter2","fullName":"`+u.name+`"}`, nil)
	}
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter2"}`, nil)
	cookie := sessionCookie(t, resp)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/send-money",
		`{"toEmail":"bob@example.com","amount":250}`, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send-money: expected 200, got %d (%s)", resp.StatusCode, body)
	}
	var sent balanceResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("decode send-money: %v", err)
	}
	if !sent.Balance.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected sender balance 750, got %s", sent.Balance)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/send-money",
		`{"toEmail":"ghost@example.com","amount":10}`, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown recipient: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/send-money",
		`{"toEmail":"alice@example.com","amount":10}`, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self transfer: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/send-money",
		`{"toEmail":"bob@example.com","amount":99999}`, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("insufficient funds: expected 400, got %d", resp.StatusCode)
	}

	// bob received the transfer
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"bob@example.com","password":"hunter2"}`, nil)
	bobCookie := sessionCookie(t, resp)
	resp, body = doJSON(t, app, fiber.MethodGet, "/api/balance", "", bobCookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob balance: expected 200, got %d", resp.StatusCode)
	}
	var bobBal balanceResponse
	if err := json.Unmarshal(body, &bobBal); err != nil {
		t.Fatalf("decode bob balance: %v", err)
	}
	if !bobBal.Balance.Equal(decimal.NewFromInt(1_250)) {
		t.Fatalf("expected bob balance 1250, got %s", bobBal.Balance)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/transactions", "", bobCookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob transactions: expected 200, got %d", resp.StatusCode)
	}
	var entries []struct {
		Type       string  `json:"type"`
		OtherParty *string `json:"other_party"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode bob transactions: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != "received" {
		t.Fatalf("expected one received entry, got %s", body)
	}
	if entries[0].OtherParty == nil || *entries[0].OtherParty != "alice@example.com" {
		t.Fatalf("expected other_party alice@example.com, got %+v", entries[0].OtherParty)
	}
}

func TestInvalidAmounts(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/register",
		`{"email":"alice@example.com","password":"hunter2","fullName":"Alice"}`, nil)
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter2"}`, nil)
	cookie := sessionCookie(t, resp)

	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`, `{"amount":"abc"}`, `{}`} {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/deposit", body, cookie)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("deposit %s: expected 400, got %d", body, resp.StatusCode)
		}
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/withdraw", `{"amount":99999}`, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("overdraw: expected 400, got %d", resp.StatusCode)
	}

	// balance unchanged after every rejected mutation
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/balance", "", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d", resp.StatusCode)
	}
	var bal balanceResponse
	if err := json.Unmarshal(body, &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if !bal.Balance.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("expected untouched seed balance 1000, got %s", bal.Balance)
	}
}

func TestChatNotConfigured(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 without API key, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "AI service not configured") {
		t.Fatalf("unexpected body: %s", body)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/chat", `{}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing messages, got %d", resp.StatusCode)
	}
}
