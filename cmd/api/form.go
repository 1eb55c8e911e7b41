package main

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/yyvfuruta/intake/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

// formValues echoes what the user typed back into the form.
type formValues struct {
	Name            string
	Gender          string
	BloodType       string
	TermsAccepted   bool
	AppointmentDate string
}

type formPage struct {
	Values     formValues
	Errors     map[string]string
	Genders    []models.Gender
	BloodTypes []models.BloodType
	Submission *models.Submission
	ID         uuid.UUID
}

func newFormPage() formPage {
	return formPage{
		Genders:    models.Genders,
		BloodTypes: models.BloodTypes,
	}
}

func (app *application) showFormHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, newFormPage())
}

func (app *application) submitFormHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	values := formValues{
		Name:            r.PostForm.Get("name"),
		Gender:          r.PostForm.Get("gender"),
		BloodType:       r.PostForm.Get("bloodType"),
		TermsAccepted:   r.PostForm.Get("termsAccepted") == "true",
		AppointmentDate: r.PostForm.Get("appointmentDate"),
	}

	raw := &models.RawSubmission{
		Name:            values.Name,
		Gender:          values.Gender,
		BloodType:       values.BloodType,
		TermsAccepted:   values.TermsAccepted,
		AppointmentDate: values.AppointmentDate,
	}

	page := newFormPage()

	sub, fieldErrors := app.validateSubmission(raw)
	if fieldErrors != nil {
		page.Values = values
		page.Errors = fieldErrors
		app.render(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	page.Submission = sub
	page.ID = app.forward(sub)
	app.render(w, r, http.StatusOK, page)
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	buf := new(bytes.Buffer)
	if err := app.templates.ExecuteTemplate(buf, "form", page); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		app.logger.Error("Failed to write page", "error", err)
	}
}
