package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]Claims

func (s stubVerifier) Verify(_ context.Context, raw string) (Claims, error) {
	c, ok := s[raw]
	if !ok {
		return Claims{}, ErrUnauthorized
	}
	return c, nil
}

type stubNotices struct {
	items []Notice
}

func (s *stubNotices) List(_ context.Context, page, perPage int) ([]Notice, int, error) {
	start := (page - 1) * perPage
	if start >= len(s.items) {
		return []Notice{}, len(s.items), nil
	}
	end := min(start+perPage, len(s.items))
	return s.items[start:end], len(s.items), nil
}

func (s *stubNotices) Get(_ context.Context, id int64) (*Notice, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, ErrNotFound
}

type routerFixture struct {
	engine *gin.Engine
	dir    *mockDirectory
	prov   *mockProvider
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	dir := &mockDirectory{}
	prov := &mockProvider{}
	notices := &stubNotices{items: []Notice{
		{ID: 1, Title: "System maintenance", AuthorName: "Hong Gildong", CreatedAt: time.Now()},
		{ID: 2, Title: "Project kickoff", AuthorName: "Kim Cheolsu", CreatedAt: time.Now()},
		{ID: 3, Title: "Vacation requests", AuthorName: "Jeong Suhyeon", CreatedAt: time.Now()},
	}}
	cfg := Config{AllowedOrigins: []string{"https://portal.example.com"}, NoticesPerPage: 2}
	verifier := stubVerifier{"good-token": {Subject: "sub-1", Username: "jdoe"}, "ghost-token": {Subject: "sub-2", Username: "ghost"}}
	return &routerFixture{
		engine: NewRouter(cfg, NewLoginService(dir, prov), verifier, dir, notices),
		dir:    dir,
		prov:   prov,
	}
}

func (f *routerFixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRouterLoginSuccess(t *testing.T) {
	f := newRouterFixture(t)
	f.dir.On("FindEmployee", mock.Anything, "jdoe").Return(jdoe, nil)
	f.prov.On("Authenticate", mock.Anything, "jdoe", "correct").Return(Tokens{IDToken: "i", AccessToken: "a", RefreshToken: "r"}, nil)

	w := f.do(http.MethodPost, "/auth/login", `{"username":"jdoe","password":"correct"}`, map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, w.Code)
	var bundle TokenBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Equal(t, "i", bundle.IDToken)
	assert.Equal(t, "Jane Doe", bundle.Employee.Name)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterLoginFailuresArePlainText(t *testing.T) {
	f := newRouterFixture(t)
	f.dir.On("FindEmployee", mock.Anything, "ghost").Return(EmployeeRecord{}, ErrUnknownUser)

	w := f.do(http.MethodPost, "/auth/login", `{"username":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username/password required", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = f.do(http.MethodPost, "/auth/login", `{"username":"ghost","password":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not registered employee", w.Body.String())
}

func TestRouterOriginCheck(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/healthz", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodOptions, "/auth/login", "", map[string]string{"Origin": "https://portal.example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = f.do(http.MethodGet, "/healthz", "", map[string]string{"Referer": "https://portal.example.com/index.html"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterBearerAuth(t *testing.T) {
	f := newRouterFixture(t)
	f.dir.On("FindEmployee", mock.Anything, "jdoe").Return(jdoe, nil)
	f.dir.On("FindEmployee", mock.Anything, "ghost").Return(EmployeeRecord{}, ErrUnknownUser)

	w := f.do(http.MethodGet, "/employees/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/employees/me", "", map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/employees/me", "", map[string]string{"Authorization": "Bearer good-token"})
	require.Equal(t, http.StatusOK, w.Code)
	var emp EmployeeRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &emp))
	assert.Equal(t, jdoe, emp)

	w = f.do(http.MethodGet, "/employees/me", "", map[string]string{"Authorization": "Bearer ghost-token"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterNotices(t *testing.T) {
	f := newRouterFixture(t)
	auth := map[string]string{"Authorization": "Bearer good-token"}

	w := f.do(http.MethodGet, "/notices", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items   []Notice `json:"items"`
		Total   int      `json:"total"`
		Page    int      `json:"page"`
		PerPage int      `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PerPage)

	w = f.do(http.MethodGet, "/notices?page=2", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)

	w = f.do(http.MethodGet, "/notices?per_page=500", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/notices/2", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var n Notice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
	assert.Equal(t, "Project kickoff", n.Title)

	w = f.do(http.MethodGet, "/notices/99", "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/notices/abc", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":  {"abc", true},
		"bearer abc":  {"abc", true},
		"Bearer   ":   {"", false},
		"Basic abc":   {"", false},
		"":            {"", false},
		"Bearerabcde": {"", false},
	}
	for header, want := range cases {
		token, ok := bearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}
