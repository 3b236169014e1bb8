package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gramcare-backend/models"
)

type stubDetector struct {
	code  string
	err   error
	delay time.Duration
	calls int
}

func (d *stubDetector) Detect(ctx context.Context, _ string) (string, error) {
	d.calls++
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return d.code, d.err
}

type stubTranslator struct {
	mu    sync.Mutex
	out   string
	err   error
	calls int
}

func (t *stubTranslator) Translate(_ context.Context, text, lang string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	if t.out != "" {
		return t.out, nil
	}
	return "[" + lang + "] " + text, nil
}

type stubAI struct {
	result *models.AIResult
	err    error
	panics bool
}

func (a *stubAI) Respond(context.Context, string, string, string) (*models.AIResult, error) {
	if a.panics {
		panic("ai exploded")
	}
	return a.result, a.err
}

type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(context.Context, string, string) (string, error) {
	p.calls++
	return p.reply, p.err
}

type panickingAlerts struct{}

func (panickingAlerts) AlertsFor(string) []models.AlertEntry {
	panic("alerts unavailable")
}

type memoryTranscripts struct {
	mu      sync.Mutex
	records []models.TranscriptRecord
	err     error
}

func (m *memoryTranscripts) Save(_ context.Context, r *models.TranscriptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *memoryTranscripts) all() []models.TranscriptRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TranscriptRecord(nil), m.records...)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSender) SendTextMessage(_ context.Context, _ string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, body)
	return nil
}

var errStub = errors.New("stub failure")
