package httpx

import (
	"errors"
	"net/http"

	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/service"
)

const contactSuccessMessage = "Thank you for your message! We'll get back to you soon."

// Home renders the landing page.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Knowlio", PageTitle: "Licensed knowledge for AI", CurrentPage: PageHome}).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// About renders the about page.
func (h *UIHandlers) About(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Knowlio - About", PageTitle: "About Knowlio", CurrentPage: PageAbout}).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func contactMeta() PageMeta {
	return PageMeta{Title: "Knowlio - Contact", PageTitle: "Contact us", CurrentPage: PageContact}
}

// Contact renders the empty contact form.
func (h *UIHandlers) Contact(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, contactMeta()).
		With("Form", model.CreateContactMessageRequest{}).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// ContactSubmit validates and stores a contact form submission.
// POST /contact.
func (h *UIHandlers) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, errorPageParams{Err: err, Status: http.StatusBadRequest, Message: "Invalid form submission."})
		return
	}
	req := model.CreateContactMessageRequest{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
	}

	_, err := h.ContactSvc.Submit(r.Context(), &req)
	if err == nil {
		data := NewTemplateData(r, contactMeta()).
			With("Form", model.CreateContactMessageRequest{}).
			WithToast(contactSuccessMessage).
			Build()
		h.renderPage(w, r, http.StatusOK, data)
		return
	}

	b := NewTemplateData(r, contactMeta()).With("Form", req)
	var verrs *service.ValidationErrors
	status := http.StatusInternalServerError
	if errors.As(err, &verrs) {
		status = http.StatusUnprocessableEntity
		b.WithFieldErrors(verrs.Fields)
	} else {
		h.logger().ErrorContext(r.Context(), "contact submit failed", "error", err)
	}
	b.WithError(apperrors.UserMessage(err, apperrors.MsgGeneric))
	h.renderPage(w, r, status, b.Build())
}
