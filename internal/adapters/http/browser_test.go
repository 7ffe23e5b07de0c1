//go:build browser

package web

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"

	"mentorship/internal/adapters/backend"
	"mentorship/internal/application/orchestrators"
)

// browserApp runs the dashboard against the fake backend with a headless Chromium.
type browserApp struct {
	BaseURL string
	API     *fakeAPI
	Browser playwright.Browser
}

func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	api := newFakeAPI()
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	srv, err := NewServer(Config{CSRFKey: bytes.Repeat([]byte("b"), 32), RateLimitPerSecond: 1000}, Deps{
		NewBackend: func() (orchestrators.Backend, error) {
			return backend.NewClient(apiServer.URL, nil)
		},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
	})
	return &browserApp{BaseURL: server.URL, API: api, Browser: browser}
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	if _, err := page.Goto(a.BaseURL + "/"); err != nil {
		t.Fatalf("failed to open dashboard: %v", err)
	}
	return page
}

func waitVisible(t *testing.T, loc playwright.Locator) {
	t.Helper()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("element never became visible: %v", err)
	}
}

// TestBrowser_EnrollFromModal tests opening a card, enrolling and seeing the toast.
func TestBrowser_EnrollFromModal(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	if err := page.Locator(`[data-activity="Go Basics"] >> text=View Details`).Click(); err != nil {
		t.Fatalf("failed to open details: %v", err)
	}
	waitVisible(t, page.Locator("#modal-title"))

	if err := page.Locator(".enrollment input[name=name]").Fill("Bea"); err != nil {
		t.Fatalf("fill name: %v", err)
	}
	if err := page.Locator(".enrollment input[name=email]").Fill("bea@example.com"); err != nil {
		t.Fatalf("fill email: %v", err)
	}
	if err := page.Locator(".enrollment button[type=submit]").Click(); err != nil {
		t.Fatalf("submit enrollment: %v", err)
	}

	waitVisible(t, page.Locator("[data-toast] >> text=Signed up bea@example.com"))
	waitVisible(t, page.Locator(".participants >> text=bea@example.com"))
}

// TestBrowser_CancelWithConfirm tests the native confirm dialog on removals.
func TestBrowser_CancelWithConfirm(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	var prompt string
	page.OnDialog(func(d playwright.Dialog) {
		prompt = d.Message()
		d.Accept()
	})

	if _, err := page.Goto(app.BaseURL + "/?open=Go+Basics"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if err := page.Locator(".participants button.danger").First().Click(); err != nil {
		t.Fatalf("click remove: %v", err)
	}
	waitVisible(t, page.Locator("[data-toast] >> text=Unregistered"))

	if !strings.Contains(prompt, "ana@example.com") {
		t.Errorf("confirm prompt = %q, want it to name the participant", prompt)
	}
	_, cancels, _, _ := app.API.calls()
	if len(cancels) != 1 {
		t.Fatalf("cancel calls = %d, want 1", len(cancels))
	}
}

// TestBrowser_EscapeClosesModal tests keyboard dismissal.
func TestBrowser_EscapeClosesModal(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/?open=Go+Basics"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	waitVisible(t, page.Locator("#modal-title"))
	if err := page.Keyboard().Press("Escape"); err != nil {
		t.Fatalf("press escape: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("escape did not close the modal: %v", err)
	}
}

// TestBrowser_SearchFilters tests the debounced search box.
func TestBrowser_SearchFilters(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	if err := page.Locator("input[name=q]").Fill("rust"); err != nil {
		t.Fatalf("fill search: %v", err)
	}
	if err := page.WaitForURL("**/?q=rust**", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("search did not submit: %v", err)
	}
	n, err := page.Locator("[data-activity]").Count()
	if err != nil {
		t.Fatalf("count cards: %v", err)
	}
	if n != 1 {
		t.Errorf("cards = %d, want 1", n)
	}
}
