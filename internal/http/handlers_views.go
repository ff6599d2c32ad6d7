package httpx

import (
	"net/http"
)

// ViewHandlers renders the storefront's own pages.
type ViewHandlers struct {
	Sessions SessionSource
	Views    *Views
}

// Home renders the landing page with navigation for the current session.
// GET /{$}.
func (h *ViewHandlers) Home(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Home"}
	if id, ok := BrowserIDFromContext(r.Context()); ok && !BrowserIDIsNew(r.Context()) {
		data.State = h.Sessions.Get(id).Snapshot()
	}
	h.Views.Render(w, http.StatusOK, PageHome, data)
}

// Account renders the signed-in user's profile. Requires RequireSession.
// GET /account.
func (h *ViewHandlers) Account(w http.ResponseWriter, r *http.Request) {
	st := StateFromContext(r.Context())
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, st.CurrentUser)
		return
	}
	h.Views.Render(w, http.StatusOK, PageAccount, PageData{Title: "My account", State: st})
}

// AdminConsole renders the admin console or one of its sections. Requires
// RequireSession with RequireAdmin.
// GET /admin, GET /admin/{section}.
func (h *ViewHandlers) AdminConsole(w http.ResponseWriter, r *http.Request) {
	st := StateFromContext(r.Context())
	data := PageData{Title: "Admin console", State: st, Sections: AdminSections()}

	if slug := r.PathValue("section"); slug != "" {
		for i := range data.Sections {
			if data.Sections[i].Slug == slug {
				data.Section = &data.Sections[i]
				data.Title = data.Section.Title
				break
			}
		}
		if data.Section == nil {
			http.NotFound(w, r)
			return
		}
	}
	h.Views.Render(w, http.StatusOK, PageAdmin, data)
}
