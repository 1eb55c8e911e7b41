package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyvfuruta/intake/internal/models"
)

func testEvent() *models.SubmissionEvent {
	sub := &models.Submission{
		Name:            "Jose",
		Gender:          models.GenderMale,
		BloodType:       models.BloodTypeBNeg,
		TermsAccepted:   true,
		AppointmentDate: "2024-06-12",
	}
	return models.NewSubmissionEvent(sub, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC))
}

func TestForward(t *testing.T) {
	ev := testEvent()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, ev.ID.String(), r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL, srv.Client())
	require.NoError(t, s.Forward(context.Background(), ev))

	assert.Equal(t, map[string]any{
		"name":            "Jose",
		"gender":          "Masculino",
		"bloodType":       "B-",
		"termsAccepted":   true,
		"appointmentDate": "2024-06-12",
	}, got)
}

func TestForwardNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, srv.Client()).Forward(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestForwardUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPSink(url, nil).Forward(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach sink")
}

func TestForwardHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewHTTPSink(srv.URL, srv.Client()).Forward(ctx, testEvent())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
