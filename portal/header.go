package portal

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LogoutPath is the form target of the logout control.
const LogoutPath = "logout"

// HeaderPath is where the shared header fragment lives relative to the site root.
const HeaderPath = "assets/header.html"

// FragmentSource loads the raw header fragment.
type FragmentSource interface {
	Fragment(ctx context.Context) (io.ReadCloser, error)
}

// FSFragment reads the fragment from a file system (usually Assets).
type FSFragment struct {
	FS   fs.FS
	Path string
}

func (f FSFragment) Fragment(context.Context) (io.ReadCloser, error) {
	return f.FS.Open(f.Path)
}

// HTTPFragment fetches the fragment from the static site.
type HTTPFragment struct {
	URL    string
	Client *http.Client
}

func (f HTTPFragment) Fragment(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return nil, &APIError{StatusCode: res.StatusCode, Body: string(body)}
	}
	return res.Body, nil
}

// HeaderBinder renders the shared header for the current session.
type HeaderBinder struct {
	source FragmentSource
	client *Client
}

func NewHeaderBinder(source FragmentSource, client *Client) *HeaderBinder {
	return &HeaderBinder{source: source, client: client}
}

// Bind loads the fragment, highlights the nav link whose data-tab equals
// active, and shows either the login or the logout control.
func (b *HeaderBinder) Bind(ctx context.Context, active string) (string, error) {
	rc, err := b.source.Fragment(ctx)
	if err != nil {
		return "", fmt.Errorf("load header: %w", err)
	}
	defer rc.Close()
	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return "", fmt.Errorf("parse header: %w", err)
	}

	doc.Find("#nav a").Each(func(_ int, a *goquery.Selection) {
		if tab, _ := a.Attr("data-tab"); tab == active {
			a.AddClass("active")
		} else {
			a.RemoveClass("active")
		}
	})

	doc.Find("#btnLogin").Closest("form").SetAttr("action", LoginTarget)
	doc.Find("#btnLogout").Closest("form").SetAttr("action", LogoutPath)

	lookup := b.client.GetToken(ctx)
	if lookup.LoggedIn() {
		doc.Find("#btnLogin").AddClass("hidden")
		doc.Find("#btnLogout").RemoveClass("hidden")
		doc.Find("#who").SetText(whoLabel(lookup.Bundle.Employee.Name, lookup.Bundle.Employee.Department, lookup.Bundle.Employee.Title))
	} else {
		doc.Find("#btnLogin").RemoveClass("hidden")
		doc.Find("#btnLogout").AddClass("hidden")
	}

	return doc.Find("body").Html()
}

// Logout clears the session and returns the page to send the user to.
func (b *HeaderBinder) Logout(ctx context.Context) (string, error) {
	if err := b.client.ClearTokens(ctx); err != nil {
		return "", err
	}
	return EntryPage, nil
}

func whoLabel(name, department, title string) string {
	return fmt.Sprintf("%s (%s / %s)", orDefault(name, "User"), orDefault(department, "-"), orDefault(title, "-"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
