package model

import (
	"regexp"
	"strings"
	"time"
)

// emailPattern matches the addresses accepted by the contact form.
var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,4}$`)

// ContactMessage is a submission from the contact form.
type ContactMessage struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Subject   string    `json:"subject"    db:"subject"`
	Message   string    `json:"message"    db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateContactMessageRequest carries a contact form submission.
type CreateContactMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// FieldErrors maps form field names to a single message each.
type FieldErrors map[string]string

// Normalize trims every field.
func (r *CreateContactMessageRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate returns per-field messages; an empty result means the request is valid.
func (r *CreateContactMessageRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "Name is required"
	}
	switch email := strings.TrimSpace(r.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Invalid email address"
	}
	if strings.TrimSpace(r.Subject) == "" {
		errs["subject"] = "Subject is required"
	}
	if strings.TrimSpace(r.Message) == "" {
		errs["message"] = "Message is required"
	}
	return errs
}
