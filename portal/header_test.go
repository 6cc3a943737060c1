package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee-portal/core"
)

func bindHeader(t *testing.T, store SessionStore, active string) *goquery.Document {
	t.Helper()
	b := NewHeaderBinder(FSFragment{FS: Assets, Path: HeaderPath}, NewClient("http://gateway.invalid", store))
	html, err := b.Bind(context.Background(), active)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestHeaderBindLoggedIn(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), sampleBundle))

	doc := bindHeader(t, store, "notices")
	assert.Equal(t, "Jane Doe (Eng / Engineer)", doc.Find("#who").Text())
	assert.True(t, doc.Find("#btnLogin").HasClass("hidden"))
	assert.False(t, doc.Find("#btnLogout").HasClass("hidden"))

	assert.True(t, doc.Find(`#nav a[data-tab="notices"]`).HasClass("active"))
	assert.Equal(t, 1, doc.Find("#nav a.active").Length())

	action, _ := doc.Find("#btnLogout").Closest("form").Attr("action")
	assert.Equal(t, LogoutPath, action)
	action, _ = doc.Find("#btnLogin").Closest("form").Attr("action")
	assert.Equal(t, LoginTarget, action)
}

func TestHeaderBindFallbackLabels(t *testing.T) {
	store := NewMemoryStore()
	b := sampleBundle
	b.Employee = core.EmployeeRecord{Username: "jdoe"}
	require.NoError(t, store.Set(context.Background(), b))

	doc := bindHeader(t, store, "home")
	assert.Equal(t, "User (- / -)", doc.Find("#who").Text())

	b.Employee = core.EmployeeRecord{Name: "Jane Doe", Title: "Engineer"}
	require.NoError(t, store.Set(context.Background(), b))
	doc = bindHeader(t, store, "home")
	assert.Equal(t, "Jane Doe (- / Engineer)", doc.Find("#who").Text())
}

func TestHeaderBindLoggedOut(t *testing.T) {
	for name, store := range map[string]SessionStore{
		"missing":   NewMemoryStore(),
		"malformed": func() SessionStore { s := NewMemoryStore(); s.SetRaw([]byte("{")); return s }(),
	} {
		t.Run(name, func(t *testing.T) {
			doc := bindHeader(t, store, "approvals")
			assert.False(t, doc.Find("#btnLogin").HasClass("hidden"))
			assert.True(t, doc.Find("#btnLogout").HasClass("hidden"))
			assert.Empty(t, doc.Find("#who").Text())
			assert.True(t, doc.Find(`#nav a[data-tab="approvals"]`).HasClass("active"))
		})
	}
}

func TestHeaderBindUnknownTab(t *testing.T) {
	doc := bindHeader(t, NewMemoryStore(), "payroll")
	assert.Equal(t, 0, doc.Find("#nav a.active").Length())
}

func TestHeaderLogout(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), sampleBundle))
	b := NewHeaderBinder(FSFragment{FS: Assets, Path: HeaderPath}, NewClient("http://gateway.invalid", store))

	target, err := b.Logout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EntryPage, target)
	assert.Equal(t, Missing, store.Get(context.Background()).State)

	doc := bindHeader(t, store, "home")
	assert.True(t, doc.Find("#btnLogout").HasClass("hidden"))
}

func TestHTTPFragment(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.FS(Assets)))
	t.Cleanup(srv.Close)

	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), sampleBundle))
	b := NewHeaderBinder(HTTPFragment{URL: srv.URL + "/" + HeaderPath}, NewClient(srv.URL, store))
	html, err := b.Bind(context.Background(), "home")
	require.NoError(t, err)
	assert.Contains(t, html, "Jane Doe (Eng / Engineer)")

	missing := NewHeaderBinder(HTTPFragment{URL: srv.URL + "/assets/nope.html"}, NewClient(srv.URL, store))
	_, err = missing.Bind(context.Background(), "home")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
