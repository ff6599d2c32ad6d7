package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome    = "home"
	PageLogin   = "login"
	PageLoading = "loading"
	PageDenied  = "denied"
	PageAccount = "account"
	PageAdmin   = "admin"
)

var pages = []string{PageHome, PageLogin, PageLoading, PageDenied, PageAccount, PageAdmin}

// AdminSection is one area of the admin console.
type AdminSection struct {
	Slug     string
	Title    string
	Resource string
}

// AdminSections lists the console areas in menu order.
func AdminSections() []AdminSection {
	return []AdminSection{
		{Slug: "branches", Title: "Branches", Resource: "branches"},
		{Slug: "products", Title: "Products", Resource: "products"},
		{Slug: "categories", Title: "Categories", Resource: "categories"},
		{Slug: "metals", Title: "Metals", Resource: "metals"},
		{Slug: "gems", Title: "Gems", Resource: "gems"},
		{Slug: "reviews", Title: "Reviews", Resource: "reviews"},
		{Slug: "service-requests", Title: "Service requests", Resource: "service-requests"},
		{Slug: "users", Title: "Users and roles", Resource: "users"},
	}
}

// PageData is the view model shared by every page.
type PageData struct {
	Title       string
	State       domainauth.State
	LoginPath   string
	Error       string
	Email       string
	RedirectURI string
	RetryAfter  int
	Sections    []AdminSection
	Section     *AdminSection
}

// Views renders the gateway's HTML pages.
type Views struct {
	pages     map[string]*template.Template
	loginPath string
	logger    *slog.Logger
}

// NewViews parses the embedded templates.
func NewViews(loginPath string, logger *slog.Logger) (*Views, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := template.New("layout").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template, len(pages)), loginPath: loginPath, logger: logger}
	for _, name := range pages {
		t, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, cloneErr)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render writes page with status. Output is buffered so a template error
// still yields a clean 500.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data PageData) {
	t, ok := v.pages[page]
	if !ok {
		v.logger.Error("unknown page", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if data.LoginPath == "" {
		data.LoginPath = v.loginPath
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Error("render page failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
