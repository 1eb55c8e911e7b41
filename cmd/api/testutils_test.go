package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yyvfuruta/intake/internal/config"
	"golang.org/x/time/rate"
)

const testToken = "secret-token"

// testNow is the instant every test application validates against.
var testNow = time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)

type published struct {
	exchange   string
	routingKey string
	body       []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
	pingErr  error
}

func (p *fakePublisher) Publish(_ context.Context, exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{exchange, routingKey, body})
	return nil
}

func (p *fakePublisher) Ping(context.Context) error {
	return p.pingErr
}

func (p *fakePublisher) sent() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.messages...)
}

func newTestApplication(t *testing.T, pub *fakePublisher) *application {
	t.Helper()

	templates, err := parseTemplates()
	require.NoError(t, err)

	app := &application{
		config: &config.API{
			Port:           4000,
			AuthToken:      testToken,
			RateLimit:      1000,
			RateBurst:      1000,
			PublishTimeout: time.Second,
		},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:     func() time.Time { return testNow },
		limiter:   rate.NewLimiter(rate.Inf, 0),
		templates: templates,
	}
	// A nil *fakePublisher must stay a nil interface.
	if pub != nil {
		app.publisher = pub
	}
	return app
}

// do sends a request through the full route table and waits for any
// background publish it started.
func do(t *testing.T, app *application, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	app.wg.Wait()
	return rr
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

var errPublish = errors.New("broker down")
