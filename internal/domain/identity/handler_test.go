package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helio/telemed/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *auth.Issuer) {
	t.Helper()
	accounts := NewMemAccountRepo()
	profiles := NewMemProfileRepo()
	svc := NewService(accounts, profiles, nil, zerolog.Nop())
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewHandler(svc, issuer), svc, issuer
}

func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const registerBody = `{
	"username": "jdoe",
	"email": "jdoe@example.com",
	"password": "secret123",
	"role": "patient",
	"first_name": "Jane",
	"last_name": "Doe"
}`

func TestHandlerRegister(t *testing.T) {
	h, _, issuer := newTestHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		UserType    string `json:"user_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.UserType != "patient" {
		t.Errorf("user_type = %q, want patient", resp.UserType)
	}

	// The issued token carries the stored role.
	claims, err := issuer.Parse(resp.AccessToken)
	if err != nil {
		t.Fatalf("Parse(access_token) error: %v", err)
	}
	if claims.Role != "patient" {
		t.Errorf("token role = %q, want patient", claims.Role)
	}
}

func TestHandlerRegister_Duplicate(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody)
	if err := h.Register(c); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}

	c, _ = jsonContext(t, http.MethodPost, "/api/auth/register", registerBody)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", he.Code)
	}
}

func TestHandlerRegister_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/register", `{"username":"x"}`)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", he.Code)
	}
}

func TestHandlerLogin(t *testing.T) {
	h, svc, issuer := newTestHandler(t)
	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/login",
		`{"username":"jdoe","password":"secret123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string   `json:"username"`
			Role     string   `json:"role"`
			Profile  *Profile `json:"profile"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.User.Username != "jdoe" || resp.User.Role != "patient" {
		t.Errorf("user = %s/%s, want jdoe/patient", resp.User.Username, resp.User.Role)
	}
	if resp.User.Profile == nil || resp.User.Profile.Patient == nil {
		t.Error("expected the patient profile in the login response")
	}

	claims, err := issuer.Parse(resp.Token)
	if err != nil {
		t.Fatalf("Parse(token) error: %v", err)
	}
	if claims.Role != "patient" {
		t.Errorf("token role = %q, want patient", claims.Role)
	}
}

func TestHandlerLogin_UniformRejection(t *testing.T) {
	h, svc, _ := newTestHandler(t)
	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	bodies := []string{
		`{"username":"jdoe","password":"wrong"}`,
		`{"username":"nobody","password":"secret123"}`,
		`{"username":"","password":""}`,
	}

	var messages []interface{}
	for _, body := range bodies {
		c, _ := jsonContext(t, http.MethodPost, "/api/auth/login", body)
		err := h.Login(c)
		he, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("expected *echo.HTTPError for %s, got %v", body, err)
		}
		if he.Code != http.StatusUnauthorized {
			t.Errorf("status = %d for %s, want 401", he.Code, body)
		}
		messages = append(messages, he.Message)
	}
	for _, m := range messages[1:] {
		if m != messages[0] {
			t.Error("all login failures must carry the identical message")
		}
	}
}

func TestHandlerMe(t *testing.T) {
	h, svc, _ := newTestHandler(t)
	account, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	ctx := context.WithValue(req.Context(), auth.AccountIDKey, account.ID)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Me(c); err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandlerMe_MissingProfile(t *testing.T) {
	h, _, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	ctx := context.WithValue(req.Context(), auth.AccountIDKey, uuid.New())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", he.Code)
	}
}

func TestHandlerGetDoctor(t *testing.T) {
	h, svc, _ := newTestHandler(t)

	in := RegisterInput{
		Username: "drsmith", Email: "smith@example.com", Password: "secret123",
		Role: RoleDoctor, FirstName: "Sam", LastName: "Smith", Specialization: "Cardiology",
	}
	account, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	doctorID, err := svc.DoctorIDForAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("DoctorIDForAccount() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("GetDoctor() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	// Unknown doctor is 404.
	c, _ = jsonContext(t, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	err = h.GetDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("GetDoctor(unknown) = %v, want 404", err)
	}
}
