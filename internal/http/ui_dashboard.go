package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/http/ui/viewmodel"
)

// Dashboard renders the signed-in user's dashboard.
// GET /dashboard (guarded).
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Knowlio - Dashboard", PageTitle: "Dashboard", CurrentPage: PageDashboard}).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// contentListOptions reads search and pagination from the query string.
func contentListOptions(q url.Values) model.ContentListOptions {
	limit, _ := strconv.Atoi(q.Get("page_size"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return model.ContentListOptions{Search: q.Get("q"), Limit: limit, Offset: offset}.Normalize()
}

func contentPageURL(search string, limit, offset int) string {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	q.Set("page_size", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return PublisherDashboardPath + "?" + q.Encode()
}

func buildContentPagination(page *model.ContentPage, search string) viewmodel.Pagination {
	p := viewmodel.Pagination{
		PageSize:   page.Limit,
		PageSizes:  model.ContentPageSizes,
		HasPrev:    page.HasPrev(),
		HasNext:    page.HasNext(),
		StartIndex: page.RangeStart(),
		EndIndex:   page.RangeEnd(),
		TotalCount: page.Total,
	}
	if p.HasPrev {
		p.PrevURL = contentPageURL(search, page.Limit, page.PrevOffset())
	}
	if p.HasNext {
		p.NextURL = contentPageURL(search, page.Limit, page.NextOffset())
	}
	return p
}

// PublisherDashboard renders the searchable, paginated content library.
// GET /publisher-dashboard?q=&page_size=&offset= (guarded).
func (h *UIHandlers) PublisherDashboard(w http.ResponseWriter, r *http.Request) {
	opts := contentListOptions(r.URL.Query())
	page, err := h.ContentSvc.Page(r.Context(), opts)
	if err != nil {
		h.renderError(w, r, errorPageParams{Err: err, Message: "Unable to load the content library."})
		return
	}

	data := NewTemplateData(r, PageMeta{
		Title:       "Knowlio - Publisher Dashboard",
		PageTitle:   "Content library",
		CurrentPage: PagePublisherDashboard,
	}).
		With("Search", opts.Search).
		With("Items", page.Items).
		With("Pagination", buildContentPagination(page, opts.Search)).
		WithToast(deletedToast(r.URL.Query().Get("deleted"))).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func deletedToast(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("Content item %s deleted.", id)
}

// ContentDelete removes a library item.
// POST /publisher-dashboard/content/{id}/delete (guarded).
func (h *UIHandlers) ContentDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.ContentSvc.Delete(r.Context(), id); err != nil {
		if apperrors.IsNotFound(err) {
			h.renderError(w, r, errorPageParams{Status: http.StatusNotFound, Message: "Content item not found."})
			return
		}
		h.renderError(w, r, errorPageParams{Err: err, Message: "Unable to delete the content item."})
		return
	}
	h.logger().InfoContext(r.Context(), "content item deleted", "id", id)

	q := url.Values{}
	q.Set("deleted", id)
	if search := r.PostFormValue("q"); search != "" {
		q.Set("q", search)
	}
	redirectAfterPost(w, r, PublisherDashboardPath+"?"+q.Encode())
}

// ContentDownload serves an item's metadata as a JSON attachment.
// GET /publisher-dashboard/content/{id}/download (guarded).
func (h *UIHandlers) ContentDownload(w http.ResponseWriter, r *http.Request) {
	item, err := h.ContentSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
			h.renderError(w, r, errorPageParams{Status: http.StatusNotFound, Message: "Content item not found."})
			return
		}
		h.renderError(w, r, errorPageParams{Err: err, Message: "Unable to download the content item."})
		return
	}

	body, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		h.renderError(w, r, errorPageParams{Err: err})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "content-"+item.ID+".json"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		return
	}
}
