package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/database"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeNotifier records what the auth handlers asked to send.
type fakeNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	links map[string]string
	sent  []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: map[string]string{}, links: map[string]string{}}
}

func (f *fakeNotifier) record(kind, to string) {
	f.sent = append(f.sent, kind+":"+to)
}

func (f *fakeNotifier) SendVerification(_ context.Context, to, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[to] = code
	f.record("verification", to)
	return nil
}

func (f *fakeNotifier) SendWelcome(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("welcome", to)
	return nil
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, to, _, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[to] = link
	f.record("password_reset", to)
	return nil
}

func (f *fakeNotifier) SendPasswordChanged(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("password_changed", to)
	return nil
}

type testApp struct {
	e     *echo.Echo
	db    *sqlx.DB
	h     *Handlers
	users *repository.UserRepo
	mail  *fakeNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	cfg := config.Config{
		Env:        "test",
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		CORSOrigin: "http://localhost:5173",
		ClientURL:  "http://localhost:5173",
	}
	mail := newFakeNotifier()
	deps := Deps{Cfg: cfg, DB: db, Notifier: mail, Log: zap.NewNop()}
	h := NewHandlers(deps)
	return &testApp{e: New(deps, h), db: db, h: h, users: repository.NewUserRepo(db), mail: mail}
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Token      string          `json:"token"`
	User       *model.User     `json:"user"`
	Data       json.RawMessage `json:"data"`
	Pagination *model.Page     `json:"pagination"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, status, rec.Body.String())
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return v
}

// seed inserts a verified user and returns it with a valid token.
func (a *testApp) seed(t *testing.T, email string, role model.Role) (*model.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret123", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := &model.User{Email: email, PasswordHash: hash, Name: strings.Split(email, "@")[0], Role: role, IsVerified: true}
	if err := a.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	tok, err := utils.NewAccessToken(testSecret, u.ID, string(role), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return u, tok.Token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/api/salud", "/api/health"} {
		rec, env := app.do(t, http.MethodGet, path, "", nil)
		expect(t, rec, http.StatusOK)
		if !env.Success {
			t.Errorf("%s: success = false", path)
		}
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["version"] == "" || body["timestamp"] == "" {
			t.Errorf("%s: missing version or timestamp: %v", path, body)
		}
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestApp(t)
	rec, env := app.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	expect(t, rec, http.StatusNotFound)
	if env.Success || env.Message == "" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	app := newTestApp(t)
	creds := map[string]string{"email": "alice@example.com", "password": "secret123"}

	rec, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "secret123", "name": "Alice",
	})
	expect(t, rec, http.StatusCreated)
	if env.Token == "" || env.User == nil || env.User.Role != model.RoleClient || env.User.IsVerified {
		t.Fatalf("register response = %+v", env)
	}
	if ck := rec.Result().Cookies(); len(ck) == 0 || ck[0].Name != "token" || !ck[0].HttpOnly {
		t.Errorf("token cookie not set: %v", ck)
	}
	code := app.mail.codes["alice@example.com"]
	if len(code) != 6 {
		t.Fatalf("verification code = %q", code)
	}

	// The registration token is valid but the account is not verified yet.
	rec, env = app.do(t, http.MethodGet, "/api/auth/profile", env.Token, nil)
	expect(t, rec, http.StatusUnauthorized)
	if !strings.Contains(env.Message, "not verified") {
		t.Errorf("message = %q", env.Message)
	}

	rec, env = app.do(t, http.MethodPost, "/api/auth/login", "", creds)
	expect(t, rec, http.StatusUnauthorized)
	if !strings.Contains(env.Message, "not verified") {
		t.Errorf("message = %q", env.Message)
	}

	rec, _ = app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": "000000x"})
	expect(t, rec, http.StatusBadRequest)

	rec, env = app.do(t, http.MethodPost, "/api/auth/verificar-email", "", map[string]string{"code": code})
	expect(t, rec, http.StatusOK)
	if env.User == nil || !env.User.IsVerified {
		t.Fatalf("verify response = %+v", env)
	}

	rec, env = app.do(t, http.MethodPost, "/api/auth/iniciar-sesion", "", creds)
	expect(t, rec, http.StatusOK)
	if env.Token == "" || env.User.LastLoginAt == nil {
		t.Fatalf("login response = %+v", env)
	}

	rec, env = app.do(t, http.MethodGet, "/api/auth/perfil", env.Token, nil)
	expect(t, rec, http.StatusOK)
	profile := decode[model.User](t, env.Data)
	if profile.Email != "alice@example.com" || profile.Role != model.RoleClient {
		t.Errorf("profile = %+v", profile)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("profile leaks password hash")
	}

	want := []string{"verification:alice@example.com", "welcome:alice@example.com"}
	if strings.Join(app.mail.sent, ",") != strings.Join(want, ",") {
		t.Errorf("sent = %v, want %v", app.mail.sent, want)
	}
}

func (a *testApp) register(t *testing.T, email string) {
	t.Helper()
	rec, _ := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "name": strings.Split(email, "@")[0],
	})
	expect(t, rec, http.StatusCreated)
}

func (a *testApp) verified(t *testing.T, email string) bool {
	t.Helper()
	u, err := a.users.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	return u.IsVerified
}

func TestVerifyEmailCodeExpiry(t *testing.T) {
	app := newTestApp(t)
	registered := time.Now().UTC()
	app.register(t, "dave@example.com")
	code := app.mail.codes["dave@example.com"]

	app.h.Auth.Now = func() time.Time { return registered.Add(25 * time.Hour) }
	for _, body := range []map[string]string{
		{"code": code},
		{"code": code, "email": "dave@example.com"},
	} {
		rec, env := app.do(t, http.MethodPost, "/api/auth/verify-email", "", body)
		expect(t, rec, http.StatusBadRequest)
		if env.Message != "invalid or expired verification code" {
			t.Errorf("message = %q", env.Message)
		}
	}

	app.h.Auth.Now = func() time.Time { return registered.Add(23 * time.Hour) }
	rec, _ := app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": code})
	expect(t, rec, http.StatusOK)
	if !app.verified(t, "dave@example.com") {
		t.Error("account not verified")
	}
}

func TestVerifyEmailSharedCode(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@example.com")
	app.register(t, "b@example.com")
	code := app.mail.codes["b@example.com"]
	if _, err := app.db.Exec("UPDATE users SET verification_code = ? WHERE email = ?", code, "a@example.com"); err != nil {
		t.Fatal(err)
	}

	// A bare code held by two pending accounts verifies neither.
	rec, _ := app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": code})
	expect(t, rec, http.StatusBadRequest)
	if app.verified(t, "a@example.com") || app.verified(t, "b@example.com") {
		t.Fatal("shared code verified an account")
	}

	rec, _ = app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": "999999x", "email": "a@example.com"})
	expect(t, rec, http.StatusBadRequest)

	rec, env := app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": code, "email": "B@example.com"})
	expect(t, rec, http.StatusOK)
	if env.User == nil || env.User.Email != "b@example.com" {
		t.Fatalf("verified user = %+v", env.User)
	}
	if app.verified(t, "a@example.com") {
		t.Error("a@example.com verified by b's request")
	}

	// Once b is verified the code is unique again.
	rec, env = app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": code})
	expect(t, rec, http.StatusOK)
	if env.User.Email != "a@example.com" {
		t.Errorf("verified user = %q", env.User.Email)
	}

	// A verified account cannot be verified again through its email.
	rec, _ = app.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"code": code, "email": "a@example.com"})
	expect(t, rec, http.StatusBadRequest)
}

func TestRegisterDrawsUnusedCode(t *testing.T) {
	app := newTestApp(t)
	codes := []string{"111111", "111111", "111111", "222222"}
	app.h.Auth.NewCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	app.register(t, "first@example.com")
	app.register(t, "second@example.com")

	if got := app.mail.codes["first@example.com"]; got != "111111" {
		t.Errorf("first code = %q", got)
	}
	if got := app.mail.codes["second@example.com"]; got != "222222" {
		t.Errorf("second code = %q, want a fresh one", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "taken@example.com", model.RoleClient)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@example.com", "password": "secret123"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "123", "name": "A"}},
		{"admin role", map[string]string{"email": "a@example.com", "password": "secret123", "name": "A", "role": "admin"}},
		{"unknown role", map[string]string{"email": "a@example.com", "password": "secret123", "name": "A", "role": "owner"}},
		{"duplicate", map[string]string{"email": "TAKEN@example.com", "password": "secret123", "name": "A"}},
		{"long name", map[string]string{"email": "a@example.com", "password": "secret123", "name": strings.Repeat("n", 121)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := app.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			expect(t, rec, http.StatusBadRequest)
			if env.Success {
				t.Error("success = true")
			}
		})
	}

	rec, env := app.do(t, http.MethodPost, "/api/auth/registrar", "", map[string]string{
		"email": "tech@example.com", "password": "secret123", "nombre": "Tec", "rol": "technician",
	})
	expect(t, rec, http.StatusCreated)
	if env.User.Role != model.RoleTechnician || env.User.Name != "Tec" {
		t.Errorf("user = %+v", env.User)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "bob@example.com", model.RoleClient)

	for _, body := range []map[string]string{
		{"email": "bob@example.com", "password": "wrong-pass"},
		{"email": "nobody@example.com", "password": "secret123"},
	} {
		rec, env := app.do(t, http.MethodPost, "/api/auth/login", "", body)
		expect(t, rec, http.StatusBadRequest)
		if env.Message != "invalid credentials" {
			t.Errorf("message = %q", env.Message)
		}
	}
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "carol@example.com", model.RoleClient)

	rec, env := app.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	expect(t, rec, http.StatusOK)
	unknownReply := env.Message

	rec, env = app.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "carol@example.com"})
	expect(t, rec, http.StatusOK)
	if env.Message != unknownReply {
		t.Errorf("reply differs for known email: %q vs %q", env.Message, unknownReply)
	}
	link := app.mail.links["carol@example.com"]
	prefix := "http://localhost:5173/reset-password/"
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("link = %q", link)
	}
	token := strings.TrimPrefix(link, prefix)

	rec, _ = app.do(t, http.MethodPost, "/api/auth/reset-password/"+token, "", map[string]string{"password": "brand-new"})
	expect(t, rec, http.StatusOK)

	// The token is single use.
	rec, _ = app.do(t, http.MethodPost, "/api/auth/reset-password/"+token, "", map[string]string{"password": "another-one"})
	expect(t, rec, http.StatusBadRequest)

	rec, _ = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "carol@example.com", "password": "brand-new"})
	expect(t, rec, http.StatusOK)

	// A second token used after its hour has passed is rejected.
	rec, _ = app.do(t, http.MethodPost, "/api/auth/olvide-contrasena", "", map[string]string{"email": "carol@example.com"})
	expect(t, rec, http.StatusOK)
	token = strings.TrimPrefix(app.mail.links["carol@example.com"], prefix)

	issued := time.Now().UTC()
	app.h.Auth.Now = func() time.Time { return issued.Add(61 * time.Minute) }
	rec, env = app.do(t, http.MethodPost, "/api/auth/restablecer-contrasena/"+token, "", map[string]string{"password": "too-late"})
	expect(t, rec, http.StatusBadRequest)
	if !strings.Contains(env.Message, "expired") {
		t.Errorf("message = %q", env.Message)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodGet, "/api/plantas", "", nil)
	expect(t, rec, http.StatusUnauthorized)
	if env.Message != "not authorized, no token provided" {
		t.Errorf("message = %q", env.Message)
	}

	rec, env = app.do(t, http.MethodGet, "/api/plantas", "not-a-jwt", nil)
	expect(t, rec, http.StatusUnauthorized)
	if env.Message != "invalid token" {
		t.Errorf("message = %q", env.Message)
	}

	u, _ := app.seed(t, "expired@example.com", model.RoleClient)
	old, err := utils.NewAccessToken(testSecret, u.ID, string(u.Role), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	rec, env = app.do(t, http.MethodGet, "/api/plantas", old.Token, nil)
	expect(t, rec, http.StatusUnauthorized)
	if !strings.Contains(env.Message, "expired") {
		t.Errorf("message = %q", env.Message)
	}
}

func TestPlantIncidentLifecycle(t *testing.T) {
	app := newTestApp(t)
	_, adminTok := app.seed(t, "admin@example.com", model.RoleAdmin)
	_, techTok := app.seed(t, "tech@example.com", model.RoleTechnician)
	client, clientTok := app.seed(t, "u1@example.com", model.RoleClient)

	plantBody := map[string]any{"name": "North Plant", "location": "Lima", "client_id": client.ID}

	rec, _ := app.do(t, http.MethodPost, "/api/plantas", clientTok, plantBody)
	expect(t, rec, http.StatusForbidden)

	rec, _ = app.do(t, http.MethodPost, "/api/plantas", adminTok, map[string]any{"name": "X", "location": "Y", "client_id": 999})
	expect(t, rec, http.StatusBadRequest)

	rec, env := app.do(t, http.MethodPost, "/api/plantas", adminTok, plantBody)
	expect(t, rec, http.StatusCreated)
	plant := decode[model.Plant](t, env.Data)
	if plant.ID == 0 || plant.ClientName != "u1" {
		t.Fatalf("plant = %+v", plant)
	}

	rec, env = app.do(t, http.MethodPost, "/api/incidencias", clientTok, map[string]any{
		"plantId": plant.ID, "titulo": "Leak", "descripcion": "Water on the floor",
	})
	expect(t, rec, http.StatusCreated)
	in := decode[model.Incident](t, env.Data)
	if in.Status != model.IncidentPending || in.UserID != client.ID || in.PlantName != "North Plant" || in.ResolvedAt != nil {
		t.Fatalf("incident = %+v", in)
	}

	statusPath := "/api/incidencias/" + itoa(in.ID) + "/estado"
	rec, env = app.do(t, http.MethodPatch, statusPath, clientTok, map[string]string{"estado": "resuelto"})
	expect(t, rec, http.StatusForbidden)
	if env.Message != "access denied for role client" {
		t.Errorf("message = %q", env.Message)
	}

	rec, _ = app.do(t, http.MethodPatch, statusPath, techTok, map[string]string{"status": "closed"})
	expect(t, rec, http.StatusBadRequest)

	rec, env = app.do(t, http.MethodPatch, statusPath, techTok, map[string]string{"status": "resolved"})
	expect(t, rec, http.StatusOK)
	resolved := decode[model.Incident](t, env.Data)
	if resolved.Status != model.IncidentResolved || resolved.ResolvedAt == nil {
		t.Fatalf("resolved incident = %+v", resolved)
	}

	rec, env = app.do(t, http.MethodPatch, "/api/incidents/"+itoa(in.ID)+"/status", techTok, map[string]string{"status": "resolved"})
	expect(t, rec, http.StatusOK)
	again := decode[model.Incident](t, env.Data)
	if again.ResolvedAt == nil || !again.ResolvedAt.Equal(*resolved.ResolvedAt) {
		t.Errorf("resolved_at moved: %v -> %v", resolved.ResolvedAt, again.ResolvedAt)
	}

	rec, env = app.do(t, http.MethodGet, "/api/incidencias/estado/resuelto", clientTok, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[[]model.Incident](t, env.Data); len(got) != 1 {
		t.Errorf("incidents by status = %d, want 1", len(got))
	}

	rec, _ = app.do(t, http.MethodPut, "/api/incidencias/"+itoa(in.ID), techTok, map[string]string{"unknown": "x"})
	expect(t, rec, http.StatusBadRequest)

	rec, _ = app.do(t, http.MethodDelete, "/api/plantas/"+itoa(plant.ID), adminTok, nil)
	expect(t, rec, http.StatusOK)
	rec, _ = app.do(t, http.MethodGet, "/api/incidencias/"+itoa(in.ID), clientTok, nil)
	expect(t, rec, http.StatusNotFound)
	rec, _ = app.do(t, http.MethodDelete, "/api/plantas/"+itoa(plant.ID), adminTok, nil)
	expect(t, rec, http.StatusNotFound)
}

func TestPlantPagination(t *testing.T) {
	app := newTestApp(t)
	_, adminTok := app.seed(t, "admin@example.com", model.RoleAdmin)
	client, _ := app.seed(t, "client@example.com", model.RoleClient)

	var ids []uint64
	for _, name := range []string{"A", "B", "C"} {
		rec, env := app.do(t, http.MethodPost, "/api/plants", adminTok, map[string]any{
			"nombre": name, "ubicacion": "Cusco", "clienteId": client.ID,
		})
		expect(t, rec, http.StatusCreated)
		ids = append(ids, decode[model.Plant](t, env.Data).ID)
	}

	rec, env := app.do(t, http.MethodGet, "/api/plantas?limit=2&page=2", adminTok, nil)
	expect(t, rec, http.StatusOK)
	page := decode[[]model.Plant](t, env.Data)
	if len(page) != 1 || page[0].ID != ids[0] {
		t.Errorf("page 2 = %+v, want only the oldest plant", page)
	}
	if env.Pagination == nil || env.Pagination.Limit != 2 || env.Pagination.Page != 2 {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	rec, env = app.do(t, http.MethodGet, "/api/plantas?limite=2&pagina=9", adminTok, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[[]model.Plant](t, env.Data); got == nil || len(got) != 0 {
		t.Errorf("page beyond data = %v, want empty list", got)
	}

	rec, env = app.do(t, http.MethodGet, "/api/plantas/cliente/"+itoa(client.ID), adminTok, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[[]model.Plant](t, env.Data); len(got) != 3 {
		t.Errorf("plants by client = %d, want 3", len(got))
	}
}

func TestMaintenanceChecklist(t *testing.T) {
	app := newTestApp(t)
	_, adminTok := app.seed(t, "admin@example.com", model.RoleAdmin)
	tech, techTok := app.seed(t, "tech@example.com", model.RoleTechnician)
	client, clientTok := app.seed(t, "client@example.com", model.RoleClient)

	rec, env := app.do(t, http.MethodPost, "/api/plantas", adminTok, map[string]any{"name": "P", "location": "L", "client_id": client.ID})
	expect(t, rec, http.StatusCreated)
	plant := decode[model.Plant](t, env.Data)

	body := map[string]any{
		"plant_id": plant.ID, "description": "Quarterly check", "scheduled_at": "2026-11-02",
		"checklist": []string{"Inspect pumps", " ", "Replace filters"},
	}
	rec, _ = app.do(t, http.MethodPost, "/api/mantenimientos", clientTok, body)
	expect(t, rec, http.StatusForbidden)

	rec, env = app.do(t, http.MethodPost, "/api/mantenimientos", techTok, body)
	expect(t, rec, http.StatusCreated)
	m := decode[model.Maintenance](t, env.Data)
	if m.UserID != tech.ID || m.Type != model.MaintenancePreventive || m.Status != model.MaintenancePending || len(m.Checklist) != 2 {
		t.Fatalf("maintenance = %+v", m)
	}

	base := "/api/mantenimientos/" + itoa(m.ID)
	rec, env = app.do(t, http.MethodPost, base+"/checklist", techTok, map[string]string{"label": "Sign off"})
	expect(t, rec, http.StatusCreated)
	item := decode[model.ChecklistItem](t, env.Data)
	if item.Position != 3 || item.Completed {
		t.Errorf("item = %+v", item)
	}

	rec, env = app.do(t, http.MethodPatch, base+"/checklist/"+itoa(item.ID), techTok, map[string]any{"completed": true, "notes": "ok"})
	expect(t, rec, http.StatusOK)
	if got := decode[model.ChecklistItem](t, env.Data); !got.Completed || got.Notes == nil || *got.Notes != "ok" {
		t.Errorf("updated item = %+v", got)
	}

	rec, _ = app.do(t, http.MethodPatch, "/api/mantenimientos/999/checklist/"+itoa(item.ID), techTok, map[string]any{"completed": true})
	expect(t, rec, http.StatusNotFound)

	rec, env = app.do(t, http.MethodPatch, base+"/estado", techTok, map[string]string{"estado": "completado"})
	expect(t, rec, http.StatusOK)
	if got := decode[model.Maintenance](t, env.Data); got.CompletedAt == nil || got.Status != model.MaintenanceCompleted {
		t.Errorf("completed maintenance = %+v", got)
	}

	rec, env = app.do(t, http.MethodGet, "/api/mantenimientos/tecnico/"+itoa(tech.ID), clientTok, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[[]model.Maintenance](t, env.Data); len(got) != 1 {
		t.Errorf("by technician = %d, want 1", len(got))
	}

	rec, _ = app.do(t, http.MethodDelete, base+"/checklist/"+itoa(item.ID), techTok, nil)
	expect(t, rec, http.StatusOK)
	rec, _ = app.do(t, http.MethodDelete, base+"/checklist/"+itoa(item.ID), techTok, nil)
	expect(t, rec, http.StatusNotFound)

	rec, _ = app.do(t, http.MethodDelete, base, techTok, nil)
	expect(t, rec, http.StatusOK)
	rec, _ = app.do(t, http.MethodGet, base, techTok, nil)
	expect(t, rec, http.StatusNotFound)
}

func TestReportDownloadAndDashboard(t *testing.T) {
	app := newTestApp(t)
	_, adminTok := app.seed(t, "admin@example.com", model.RoleAdmin)
	tech, techTok := app.seed(t, "tech@example.com", model.RoleTechnician)
	client, clientTok := app.seed(t, "client@example.com", model.RoleClient)

	rec, env := app.do(t, http.MethodPost, "/api/plantas", adminTok, map[string]any{"name": "P", "location": "L", "client_id": client.ID})
	expect(t, rec, http.StatusCreated)
	plant := decode[model.Plant](t, env.Data)

	rec, _ = app.do(t, http.MethodPost, "/api/incidencias", clientTok, map[string]any{"plant_id": plant.ID, "title": "T", "description": "D"})
	expect(t, rec, http.StatusCreated)

	rec, _ = app.do(t, http.MethodPost, "/api/reportes", clientTok, map[string]any{"plant_id": plant.ID})
	expect(t, rec, http.StatusForbidden)

	rec, env = app.do(t, http.MethodPost, "/api/reportes", techTok, map[string]any{"plantId": plant.ID, "descripcion": "Monthly"})
	expect(t, rec, http.StatusCreated)
	rep := decode[model.Report](t, env.Data)
	if rep.Type != "general" || rep.Period != "mensual" || rep.UserID != tech.ID {
		t.Fatalf("report = %+v", rep)
	}
	if !strings.HasPrefix(rep.FilePath, "/reportes/reporte_general_"+itoa(plant.ID)+"_") {
		t.Errorf("file path = %q", rep.FilePath)
	}

	rec, _ = app.do(t, http.MethodGet, "/api/reportes/"+itoa(rep.ID)+"/descargar", clientTok, nil)
	expect(t, rec, http.StatusOK)
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	name := rep.FilePath[strings.LastIndex(rep.FilePath, "/")+1:]
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, name) {
		t.Errorf("content disposition = %q, want %q", cd, name)
	}

	rec, env = app.do(t, http.MethodGet, "/api/reportes/usuario/"+itoa(tech.ID), clientTok, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[[]model.Report](t, env.Data); len(got) != 1 {
		t.Errorf("reports by user = %d", len(got))
	}

	rec, env = app.do(t, http.MethodGet, "/api/dashboard", clientTok, nil)
	expect(t, rec, http.StatusOK)
	d := decode[model.Dashboard](t, env.Data)
	if d.Plants != 1 || d.Reports != 1 || d.Incidents["pending"] != 1 || d.Users["admin"] != 1 || d.Users["client"] != 1 {
		t.Errorf("dashboard = %+v", d)
	}

	rec, _ = app.do(t, http.MethodDelete, "/api/reportes/"+itoa(rep.ID), techTok, nil)
	expect(t, rec, http.StatusForbidden)
	rec, _ = app.do(t, http.MethodDelete, "/api/reportes/"+itoa(rep.ID), adminTok, nil)
	expect(t, rec, http.StatusOK)
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

func TestFieldValidation(t *testing.T) {
	app := newTestApp(t)
	_, adminTok := app.seed(t, "admin@example.com", model.RoleAdmin)
	_, techTok := app.seed(t, "tech@example.com", model.RoleTechnician)
	client, clientTok := app.seed(t, "u1@example.com", model.RoleClient)

	rec, env := app.do(t, http.MethodPost, "/api/plants", adminTok, map[string]any{
		"name": strings.Repeat("p", 151), "location": "Lima", "client_id": client.ID,
	})
	expect(t, rec, http.StatusBadRequest)
	if env.Message != "name must be at most 150 characters" {
		t.Errorf("message = %q", env.Message)
	}

	rec, env = app.do(t, http.MethodPost, "/api/plants", adminTok, map[string]any{"name": "P", "location": "Lima", "client_id": client.ID})
	expect(t, rec, http.StatusCreated)
	plant := decode[model.Plant](t, env.Data)

	rec, _ = app.do(t, http.MethodPost, "/api/incidents", clientTok, map[string]any{
		"plant_id": plant.ID, "title": strings.Repeat("t", 201), "description": "d",
	})
	expect(t, rec, http.StatusBadRequest)

	rec, env = app.do(t, http.MethodPost, "/api/incidents", clientTok, map[string]any{
		"plant_id": plant.ID, "title": "Noise", "description": "Pump is loud",
	})
	expect(t, rec, http.StatusCreated)
	in := decode[model.Incident](t, env.Data)

	rec, env = app.do(t, http.MethodPut, "/api/incidents/"+itoa(in.ID), techTok, map[string]string{"description": "  "})
	expect(t, rec, http.StatusBadRequest)
	if env.Message != "description cannot be empty" {
		t.Errorf("message = %q", env.Message)
	}

	rec, _ = app.do(t, http.MethodPost, "/api/reports", techTok, map[string]any{
		"plant_id": plant.ID, "type": strings.Repeat("x", 41),
	})
	expect(t, rec, http.StatusBadRequest)
	rec, _ = app.do(t, http.MethodPost, "/api/reports", techTok, map[string]any{
		"plant_id": plant.ID, "file_path": "/reportes/" + strings.Repeat("f", 250) + ".pdf",
	})
	expect(t, rec, http.StatusBadRequest)
}
