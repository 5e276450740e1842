package captcha

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/captcha/json"
	"github.com/leeforge/captcha/metrics"
)

type fakeStore struct {
	mu      sync.Mutex
	answers map[string]string
	expired map[string]bool
	ttls    map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		answers: map[string]string{},
		expired: map[string]bool{},
		ttls:    map[string]time.Duration{},
	}
}

func (s *fakeStore) Save(_ context.Context, id, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[id] = answer
	s.ttls[id] = ttl
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired[id] {
		return "", ErrCaptchaExpired
	}
	a, ok := s.answers[id]
	if !ok {
		return "", ErrCaptchaNotFound
	}
	return a, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, id)
	delete(s.expired, id)
	return nil
}

func (s *fakeStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answers[id]
	return ok, nil
}

type fakeLimiter struct {
	max      int
	failures map[string]int
	blockGen bool
}

func (l *fakeLimiter) AllowGenerate(context.Context, string) error {
	if l.blockGen {
		return ErrRateLimitExceeded
	}
	return nil
}

func (l *fakeLimiter) AllowVerify(_ context.Context, id string) error {
	if l.failures[id] >= l.max {
		return ErrRateLimitExceeded
	}
	return nil
}

func (l *fakeLimiter) RecordFailure(_ context.Context, id string) error {
	l.failures[id]++
	return nil
}

func (l *fakeLimiter) AttemptsLeft(_ context.Context, id string) (int, error) {
	return l.max - l.failures[id], nil
}

func (l *fakeLimiter) Reset(_ context.Context, id string) error {
	delete(l.failures, id)
	return nil
}

type fixedGenerator struct {
	code string
	err  error
}

func (g fixedGenerator) Generate(context.Context, string) (Result, error) {
	if g.err != nil {
		return Result{}, g.err
	}
	return Result{Code: g.code, Mime: MimePNG, Base64: DataURIPrefix, Image: []byte{1}}, nil
}

func newTestService(gen Generator, opts ...ServiceOption) (*DefaultService, *fakeStore, *fakeLimiter) {
	store := newFakeStore()
	limiter := &fakeLimiter{max: 3, failures: map[string]int{}}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	opts = append([]ServiceOption{WithRateLimiter(limiter), withClock(func() time.Time { return now })}, opts...)
	return NewService(DefaultConfig(), gen, store, opts...), store, limiter
}

func TestServiceGenerateAndVerify(t *testing.T) {
	collector := metrics.NewCollector()
	svc, store, _ := newTestService(fixedGenerator{code: "AbC9"}, WithServiceMetrics(collector))
	ctx := context.Background()

	data, err := svc.Generate(ctx, "", "1.2.3.4")
	require.NoError(t, err)
	assert.NotEmpty(t, data.ID)
	assert.Equal(t, "default", data.Profile)
	assert.Equal(t, MimePNG, data.Mime)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 9, 5, 0, time.UTC), data.ExpiresAt)
	assert.Equal(t, 5*time.Minute, store.ttls[data.ID])

	res, err := svc.Verify(ctx, data.ID, " abc9 ", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	exists, _ := store.Exists(ctx, data.ID)
	assert.False(t, exists, "a solved captcha must be consumed")

	res, err = svc.Verify(ctx, data.ID, "AbC9", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonNotFound, res.FailureReason)

	m, ok := collector.GetMetric("captcha_verifications_total", map[string]string{"valid": "true"})
	require.True(t, ok)
	assert.Equal(t, float64(1), m.Value)
}

func TestServiceCaseSensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CaseSensitive = true
	store := newFakeStore()
	svc := NewService(cfg, fixedGenerator{code: "AbC9"}, store)
	ctx := context.Background()

	data, err := svc.Generate(ctx, "login", "")
	require.NoError(t, err)
	assert.Equal(t, "login", data.Profile)

	res, err := svc.Verify(ctx, data.ID, "abc9", "")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonMismatch, res.FailureReason)

	res, err = svc.Verify(ctx, data.ID, "AbC9", "")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestServiceAttemptLimit(t *testing.T) {
	svc, _, limiter := newTestService(fixedGenerator{code: "wxyz"})
	ctx := context.Background()

	data, err := svc.Generate(ctx, "default", "client")
	require.NoError(t, err)

	var last *VerifyResult
	for left := 2; left >= 0; left-- {
		res, err := svc.Verify(ctx, data.ID, "nope", "client")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, left, res.AttemptsLeft)
		last = res
	}

	// 次数耗尽时 attemptsLeft 仍需出现在响应中
	raw, err := json.Marshal(last)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"attemptsLeft":0`)

	_, err = svc.Verify(ctx, data.ID, "wxyz", "client")
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	limiter.Reset(ctx, "client")
	res, err := svc.Verify(ctx, data.ID, "wxyz", "client")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestServiceExpired(t *testing.T) {
	svc, store, _ := newTestService(fixedGenerator{code: "wxyz"})
	ctx := context.Background()

	data, err := svc.Generate(ctx, "default", "client")
	require.NoError(t, err)
	store.expired[data.ID] = true

	res, err := svc.Verify(ctx, data.ID, "wxyz", "client")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonExpired, res.FailureReason)
}

func TestServiceGenerateErrors(t *testing.T) {
	ctx := context.Background()

	svc, _, limiter := newTestService(fixedGenerator{code: "x"})
	limiter.blockGen = true
	_, err := svc.Generate(ctx, "default", "client")
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	svc, _, _ = newTestService(fixedGenerator{err: ErrConfigNotFound})
	_, err = svc.Generate(ctx, "missing", "client")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.False(t, errors.Is(err, ErrGenerationFailed))

	svc, _, _ = newTestService(fixedGenerator{err: ErrFontLoad})
	_, err = svc.Generate(ctx, "default", "client")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrFontLoad)
}

func TestServiceVerifyRequiresID(t *testing.T) {
	svc, _, _ := newTestService(fixedGenerator{code: "x"})
	_, err := svc.Verify(context.Background(), "", "x", "client")
	assert.Error(t, err)
}

func TestServiceWithEngine(t *testing.T) {
	e := NewEngine(WithProfiles(StaticProfiles{"default": {}}))
	store := newFakeStore()
	svc := NewService(DefaultConfig(), e, store)
	ctx := context.Background()

	data, err := svc.Generate(ctx, "", "client")
	require.NoError(t, err)
	assert.NotEmpty(t, data.Image)

	answer, err := store.Get(ctx, data.ID)
	require.NoError(t, err)
	res, err := svc.Verify(ctx, data.ID, answer, "client")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}
