package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/hitoshi/collabifyy/internal/auth"
	"github.com/hitoshi/collabifyy/internal/model"
	"github.com/hitoshi/collabifyy/internal/repository"
	"github.com/hitoshi/collabifyy/internal/security"
	"github.com/hitoshi/collabifyy/internal/waitlist"
)

// --- インメモリリポジトリ ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	cp := *user
	if existing, ok := r.users[user.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.users[user.ID] = &cp
	out := cp
	return &out, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*model.Session{}}
}

func (r *memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Expired(time.Now()) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type memWaitlistRepo struct {
	mu      sync.Mutex
	entries []*model.WaitlistEntry
}

func (r *memWaitlistRepo) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Email == entry.Email {
			return repository.ErrWaitlistEmailTaken
		}
		if e.UserID == entry.UserID {
			return repository.ErrWaitlistUserExists
		}
	}
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memWaitlistRepo) find(match func(*model.WaitlistEntry) bool) *model.WaitlistEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if match(e) {
			cp := *e
			return &cp
		}
	}
	return nil
}

func (r *memWaitlistRepo) FindByUserID(ctx context.Context, userID string) (*model.WaitlistEntry, error) {
	return r.find(func(e *model.WaitlistEntry) bool { return e.UserID == userID }), nil
}

func (r *memWaitlistRepo) FindByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	return r.find(func(e *model.WaitlistEntry) bool { return e.Email == email }), nil
}

var (
	_ repository.UserRepository     = (*memUserRepo)(nil)
	_ repository.SessionRepository  = (*memSessionRepo)(nil)
	_ repository.WaitlistRepository = (*memWaitlistRepo)(nil)
)

// fakeProvider は認可コードごとに固定のIDアサーションを返すIdP。
type fakeProvider struct {
	identities map[string]*auth.IdentityAssertion
}

func (p *fakeProvider) GetLoginURL(state string) string {
	return "https://idp.example/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*auth.IdentityAssertion, error) {
	if id, ok := p.identities[code]; ok {
		return id, nil
	}
	return nil, io.ErrUnexpectedEOF
}

// --- テスト環境 ---

type testEnv struct {
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	const secret = "integration-secret"

	sessions := newMemSessionRepo()
	provider := &fakeProvider{identities: map[string]*auth.IdentityAssertion{
		"code-u1": {ID: "google-u1", Email: "jane@gmail.com", FirstName: "Jane", LastName: "Doe"},
		"code-u2": {ID: "google-u2", Email: "john@gmail.com", FirstName: "John"},
	}}
	authService := auth.NewService(provider, auth.NewStateSigner(secret), newMemUserRepo(), sessions,
		auth.ServiceConfig{SessionTTL: time.Hour})
	waitlistService := waitlist.NewService(&memWaitlistRepo{}, security.NewTextSanitizer(), nil)

	cookies := auth.NewCookieSigner(secret)
	router := NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		SessionFinder:     sessions,
		CookieVerifier:    cookies,
		CORSAllowedOrigin: testFrontendURL,
		AuthService:       authService,
		AuthConfig: AuthHandlerConfig{
			FrontendURL:    testFrontendURL,
			CookieSameSite: http.SameSiteLaxMode,
			SessionTTL:     time.Hour,
			Cookies:        cookies,
		},
		WaitlistService: waitlistService,
		HealthChecker:   &mockHealthChecker{},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server}
}

// newClient はCookieを保持し、リダイレクトを追わないクライアントを返す。
func (e *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, client *http.Client, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

// login はログインからコールバックまでを実行し、リダイレクト先を返す。
func (e *testEnv) login(t *testing.T, client *http.Client, userType, code string) string {
	t.Helper()
	resp, _ := e.do(t, client, http.MethodGet, "/api/login?type="+userType, "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login status = %d, want 302", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid login redirect: %v", err)
	}
	state := loc.Query().Get("state")

	q := url.Values{"code": {code}, "state": {state}}
	resp, _ = e.do(t, client, http.MethodGet, "/api/callback?"+q.Encode(), "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("callback status = %d, want 302", resp.StatusCode)
	}
	return resp.Header.Get("Location")
}

// --- シナリオ ---

func TestIntegration_LoginSubmitLogout(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	// 未ログイン
	resp, body := env.do(t, client, http.MethodGet, "/api/me", "")
	if resp.StatusCode != http.StatusUnauthorized || strings.TrimSpace(body) != "null" {
		t.Fatalf("/api/me before login = %d %q", resp.StatusCode, body)
	}

	if got := env.login(t, client, "brand", "code-u1"); got != testFrontendURL+"/waitlist?type=brand" {
		t.Errorf("callback redirect = %q", got)
	}

	resp, body = env.do(t, client, http.MethodGet, "/api/me", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/me status = %d, want 200", resp.StatusCode)
	}
	var me map[string]interface{}
	if err := json.Unmarshal([]byte(body), &me); err != nil {
		t.Fatalf("failed to decode /api/me: %v", err)
	}
	if me["id"] != "google-u1" || me["email"] != "jane@gmail.com" || me["profileImageUrl"] != nil {
		t.Errorf("/api/me body = %v", me)
	}

	resp, _ = env.do(t, client, http.MethodGet, "/api/waitlist/user", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("waitlist lookup before submit = %d, want 404", resp.StatusCode)
	}

	submission := `{"userType":"brand","name":"<b>Acme</b>","email":"Team@Acme.com","companyOrHandle":"Acme Inc","message":"hello"}`
	resp, body = env.do(t, client, http.MethodPost, "/api/waitlist", submission)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201; body=%s", resp.StatusCode, body)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(body), &entry); err != nil {
		t.Fatalf("failed to decode entry: %v", err)
	}
	if entry["userId"] != "google-u1" || entry["name"] != "Acme" || entry["email"] != "team@acme.com" {
		t.Errorf("entry = %v", entry)
	}

	// 同じユーザーの2回目は拒否される
	resp, body = env.do(t, client, http.MethodPost, "/api/waitlist",
		strings.Replace(submission, "Team@Acme.com", "other@acme.com", 1))
	if resp.StatusCode != http.StatusConflict || !strings.Contains(body, model.ErrCodeWaitlistAlreadyJoined) {
		t.Errorf("second submit = %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, client, http.MethodGet, "/api/waitlist/user", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"email":"team@acme.com"`) {
		t.Errorf("waitlist lookup = %d %s", resp.StatusCode, body)
	}

	resp, _ = env.do(t, client, http.MethodGet, "/api/logout", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != testFrontendURL+"/" {
		t.Errorf("logout = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = env.do(t, client, http.MethodGet, "/api/me", "")
	if resp.StatusCode != http.StatusUnauthorized || strings.TrimSpace(body) != "null" {
		t.Errorf("/api/me after logout = %d %q", resp.StatusCode, body)
	}
	resp, _ = env.do(t, client, http.MethodPost, "/api/waitlist", submission)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("submit after logout = %d, want 401", resp.StatusCode)
	}
}

func TestIntegration_EmailUniqueAcrossUsers(t *testing.T) {
	env := newTestEnv(t)
	first := env.newClient(t)
	second := env.newClient(t)

	env.login(t, first, "creator", "code-u1")
	env.login(t, second, "creator", "code-u2")

	submission := `{"userType":"creator","name":"Jane","email":"shared@x.com","companyOrHandle":"@jane","message":"hi"}`
	resp, _ := env.do(t, first, http.MethodPost, "/api/waitlist", submission)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first submit = %d, want 201", resp.StatusCode)
	}

	resp, body := env.do(t, second, http.MethodPost, "/api/waitlist",
		strings.Replace(submission, "shared@x.com", "SHARED@x.com", 1))
	if resp.StatusCode != http.StatusConflict || !strings.Contains(body, model.ErrCodeWaitlistEmailTaken) {
		t.Errorf("duplicate email submit = %d %s", resp.StatusCode, body)
	}

	resp, _ = env.do(t, second, http.MethodGet, "/api/waitlist/user", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second user lookup = %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_CallbackWithForgedStateFails(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t)

	// ログイン開始せずにコールバックへ直接到達
	q := url.Values{"code": {"code-u1"}, "state": {"forged"}}
	resp, _ := env.do(t, client, http.MethodGet, "/api/callback?"+q.Encode(), "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != testFrontendURL+"/auth" {
		t.Errorf("callback = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = env.do(t, client, http.MethodGet, "/api/me", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("/api/me = %d, want 401", resp.StatusCode)
	}
}
