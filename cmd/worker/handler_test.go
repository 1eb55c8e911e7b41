package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyvfuruta/intake/internal/broker"
	"github.com/yyvfuruta/intake/internal/models"
)

type fakeSink struct {
	err       error
	forwarded []*models.SubmissionEvent
}

func (s *fakeSink) Forward(_ context.Context, ev *models.SubmissionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.forwarded = append(s.forwarded, ev)
	return nil
}

type fakeTracker struct {
	delivered map[string]time.Duration
	lookupErr error
	markErr   error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{delivered: make(map[string]time.Duration)}
}

func (f *fakeTracker) Delivered(_ context.Context, id string) (bool, error) {
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	_, ok := f.delivered[id]
	return ok, nil
}

func (f *fakeTracker) MarkDelivered(_ context.Context, id string, ttl time.Duration) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.delivered[id] = ttl
	return nil
}

func newTestHandler(s *fakeSink, tr *fakeTracker) *handler {
	return &handler{
		sink:      s,
		delivered: tr,
		dedupTTL:  time.Hour,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func eventDelivery(t *testing.T, headers amqp.Table) (amqp.Delivery, *models.SubmissionEvent) {
	t.Helper()
	sub := &models.Submission{
		Name:            "Ana Maria",
		Gender:          models.GenderFemale,
		BloodType:       models.BloodTypeABPos,
		TermsAccepted:   true,
		AppointmentDate: "2024-06-16",
	}
	ev := models.NewSubmissionEvent(sub, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return amqp.Delivery{Body: body, Headers: headers}, ev
}

func TestHandleMessageForwardsAndMarks(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()
	msg, ev := eventDelivery(t, nil)

	require.NoError(t, newTestHandler(s, tr).HandleMessage(context.Background(), msg))

	require.Len(t, s.forwarded, 1)
	assert.Equal(t, ev.ID, s.forwarded[0].ID)
	assert.Equal(t, ev.Submission, s.forwarded[0].Submission)
	assert.Equal(t, time.Hour, tr.delivered[ev.ID.String()])
}

func TestHandleMessageSkipsDelivered(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()
	msg, ev := eventDelivery(t, nil)
	tr.delivered[ev.ID.String()] = time.Hour

	require.NoError(t, newTestHandler(s, tr).HandleMessage(context.Background(), msg))
	assert.Empty(t, s.forwarded)
}

func TestHandleMessageSinkFailureIsRetried(t *testing.T) {
	s, tr := &fakeSink{err: errors.New("502")}, newFakeTracker()
	msg, ev := eventDelivery(t, nil)

	err := newTestHandler(s, tr).HandleMessage(context.Background(), msg)
	require.Error(t, err)
	assert.NotContains(t, tr.delivered, ev.ID.String())
}

func TestHandleMessageDropsAfterMaxRetries(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()
	msg, _ := eventDelivery(t, amqp.Table{"x-death": []any{
		amqp.Table{"queue": broker.SubmissionValidatedQueue, "count": int64(maxRetries)},
	}})

	require.NoError(t, newTestHandler(s, tr).HandleMessage(context.Background(), msg))
	assert.Empty(t, s.forwarded)
}

func TestHandleMessageDropsUndecodableBody(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()

	err := newTestHandler(s, tr).HandleMessage(context.Background(), amqp.Delivery{Body: []byte("{")})
	require.NoError(t, err)
	assert.Empty(t, s.forwarded)
}

func TestHandleMessageTrackerLookupFailure(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()
	tr.lookupErr = errors.New("redis down")
	msg, _ := eventDelivery(t, nil)

	err := newTestHandler(s, tr).HandleMessage(context.Background(), msg)
	assert.EqualError(t, err, "redis down")
	assert.Empty(t, s.forwarded)
}

func TestHandleMessageMarkFailureStillAcks(t *testing.T) {
	s, tr := &fakeSink{}, newFakeTracker()
	tr.markErr = errors.New("redis down")
	msg, _ := eventDelivery(t, nil)

	require.NoError(t, newTestHandler(s, tr).HandleMessage(context.Background(), msg))
	assert.Len(t, s.forwarded, 1)
}
