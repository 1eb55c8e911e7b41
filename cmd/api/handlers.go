package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/yyvfuruta/intake/internal/broker"
	"github.com/yyvfuruta/intake/internal/metrics"
	"github.com/yyvfuruta/intake/internal/models"
	"github.com/yyvfuruta/intake/internal/validator"
)

func (app *application) createSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	var input models.RawSubmission
	if err := readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sub, fieldErrors := app.validateSubmission(&input)
	if fieldErrors != nil {
		app.failedValidationResponse(w, r, fieldErrors)
		return
	}

	id := app.forward(sub)

	err := writeJSON(w, http.StatusCreated, envelope{"id": id, "submission": sub}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, envelope{"status": "ok"}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if app.publisher == nil {
		if err := writeJSON(w, http.StatusOK, envelope{"status": "ready", "forwarding": "disabled"}, nil); err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := app.publisher.Ping(r.Context()); err != nil {
		app.logger.Warn("Broker not ready", "error", err)
		app.errorResponse(w, r, http.StatusServiceUnavailable, "broker unavailable")
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": "ready", "forwarding": "enabled"}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// validateSubmission reads the clock once and validates raw against it. It
// returns either the submission or the per-field messages, never both.
func (app *application) validateSubmission(raw *models.RawSubmission) (*models.Submission, map[string]string) {
	v := validator.New()
	sub := models.ValidateSubmission(v, raw, app.clock())
	metrics.ObserveValidation(v.Errors)

	if !v.Valid() {
		return nil, v.Errors
	}
	return sub, nil
}

// forward hands sub to the broker without waiting for the result. A failed
// publish is logged and counted; the caller has already accepted sub.
func (app *application) forward(sub *models.Submission) uuid.UUID {
	ev := models.NewSubmissionEvent(sub, app.clock())

	if app.publisher == nil {
		metrics.ForwardsTotal.WithLabelValues("publish", "skipped").Inc()
		return ev.ID
	}

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), app.config.PublishTimeout)
		defer cancel()

		body, err := json.Marshal(ev)
		if err == nil {
			err = app.publisher.Publish(ctx, broker.SubmissionEventsExchangeName, broker.SubmissionValidatedRoutingKey, body)
		}

		metrics.ObserveForward("publish", err)
		if err != nil {
			app.logger.Error("Failed to publish submission", "submission_id", ev.ID, "error", err)
			return
		}
		app.logger.Info("Submission published", "submission_id", ev.ID)
	})

	return ev.ID
}
