package google

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/bird/internal/envelope"
)

type memStore struct {
	mu    sync.Mutex
	rec   *Record
	err   error
	saves int
}

func (s *memStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.rec == nil {
		return nil, ErrNoToken
	}
	r := *s.rec
	return &r, nil
}

func (s *memStore) Save(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = r
	s.saves++
	return nil
}

type fakeRefresher struct {
	calls atomic.Int32
	fn    func(*oauth2.Token) (*oauth2.Token, error)
}

func (f *fakeRefresher) Refresh(_ context.Context, t *oauth2.Token) (*oauth2.Token, error) {
	f.calls.Add(1)
	return f.fn(t)
}

var t0 = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestInitialState(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
		want  TokenState
	}{
		{"no file", &memStore{}, NoToken},
		{"corrupt file", &memStore{err: errors.New("corrupt")}, Invalid},
		{"valid", &memStore{rec: &Record{AccessToken: "a", RefreshToken: "r", Expiry: t0.Add(time.Hour)}}, Valid},
		{"expired", &memStore{rec: &Record{AccessToken: "a", RefreshToken: "r", Expiry: t0.Add(-time.Hour)}}, Expired},
		{"no expiry", &memStore{rec: &Record{AccessToken: "a"}}, Valid},
		{"missing scope", &memStore{rec: &Record{AccessToken: "a", Scopes: []string{"email"}}}, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0
			m := NewManager(tt.store, &fakeRefresher{}, WithClock(clock(&now)))
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestValidTokenValid(t *testing.T) {
	now := t0
	ref := &fakeRefresher{}
	m := NewManager(&memStore{rec: &Record{AccessToken: "a", Expiry: t0.Add(time.Hour)}}, ref, WithClock(clock(&now)))

	tok, err := m.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Zero(t, ref.calls.Load())
}

func TestValidBecomesExpiredAndRefreshes(t *testing.T) {
	now := t0
	store := &memStore{rec: &Record{AccessToken: "old", RefreshToken: "r", Expiry: t0.Add(10 * time.Minute)}}
	ref := &fakeRefresher{fn: func(tok *oauth2.Token) (*oauth2.Token, error) {
		assert.Equal(t, "r", tok.RefreshToken)
		return &oauth2.Token{AccessToken: "new", Expiry: now.Add(time.Hour)}, nil
	}}
	var results []string
	m := NewManager(store, ref, WithClock(clock(&now)), WithRefreshObserver(func(r string) { results = append(results, r) }))
	require.Equal(t, Valid, m.State())

	now = t0.Add(20 * time.Minute)
	assert.Equal(t, Expired, m.State())

	tok, err := m.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken, "refresh token is kept when the provider omits it")
	assert.Equal(t, Valid, m.State())
	assert.Equal(t, []string{"success"}, results)

	// The refreshed record is persisted.
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "new", store.rec.AccessToken)
	assert.Equal(t, "r", store.rec.RefreshToken)
	assert.Equal(t, CalendarScopes, store.rec.Scopes)
}

func TestInvalidGrantMovesToInvalid(t *testing.T) {
	now := t0
	store := &memStore{rec: &Record{AccessToken: "old", RefreshToken: "revoked", Expiry: t0.Add(-time.Minute)}}
	ref := &fakeRefresher{fn: func(*oauth2.Token) (*oauth2.Token, error) {
		return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant", ErrorDescription: "Token has been expired or revoked."}
	}}
	m := NewManager(store, ref, WithClock(clock(&now)))

	_, err := m.ValidToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConsentRequired)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, Invalid, cfgErr.State)
	assert.Equal(t, envelope.KindConfiguration, envelope.KindOf(err))
	assert.Equal(t, Invalid, m.State())

	// Later calls report the configuration error without refreshing again.
	for i := 0; i < 3; i++ {
		_, err = m.ValidToken(context.Background())
		assert.ErrorIs(t, err, ErrConsentRequired)
	}
	assert.EqualValues(t, 1, ref.calls.Load())
	assert.Zero(t, store.saves)
}

func TestTransientRefreshFailureStaysExpired(t *testing.T) {
	now := t0
	fail := true
	ref := &fakeRefresher{fn: func(*oauth2.Token) (*oauth2.Token, error) {
		if fail {
			return nil, errors.New("connection reset")
		}
		return &oauth2.Token{AccessToken: "new", Expiry: now.Add(time.Hour)}, nil
	}}
	m := NewManager(&memStore{rec: &Record{AccessToken: "old", RefreshToken: "r", Expiry: t0}}, ref, WithClock(clock(&now)))

	_, err := m.ValidToken(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConsentRequired)
	assert.Equal(t, Expired, m.State())

	fail = false
	tok, err := m.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
}

func TestExpiredWithoutRefreshToken(t *testing.T) {
	now := t0
	ref := &fakeRefresher{}
	m := NewManager(&memStore{rec: &Record{AccessToken: "old", Expiry: t0}}, ref, WithClock(clock(&now)))

	_, err := m.ValidToken(context.Background())
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Equal(t, Invalid, m.State())
	assert.Zero(t, ref.calls.Load())
}

func TestNoTokenWithoutConsent(t *testing.T) {
	m := NewManager(&memStore{}, &fakeRefresher{})
	_, err := m.Token()
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Contains(t, err.Error(), "bird auth calendar")
}

func TestConsentFromNoTokenAndInvalid(t *testing.T) {
	for _, store := range []*memStore{
		{},
		{rec: &Record{AccessToken: "x", Scopes: []string{"other"}}},
	} {
		now := t0
		var consents atomic.Int32
		consent := func(context.Context) (*oauth2.Token, error) {
			consents.Add(1)
			return &oauth2.Token{AccessToken: "granted", RefreshToken: "r", Expiry: now.Add(time.Hour)}, nil
		}
		m := NewManager(store, &fakeRefresher{}, WithClock(clock(&now)), WithConsent(consent))
		require.NotEqual(t, Valid, m.State())

		tok, err := m.ValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "granted", tok.AccessToken)
		assert.Equal(t, Valid, m.State())
		assert.Equal(t, 1, store.saves)
		assert.EqualValues(t, 1, consents.Load())
	}
}

func TestConsentFailureKeepsState(t *testing.T) {
	m := NewManager(&memStore{}, &fakeRefresher{}, WithConsent(func(context.Context) (*oauth2.Token, error) {
		return nil, errors.New("user closed the browser")
	}))
	_, err := m.ValidToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, NoToken, m.State())
}

func TestAuthorize(t *testing.T) {
	store := &memStore{rec: &Record{AccessToken: "a", Expiry: t0.Add(time.Hour)}}
	now := t0

	m := NewManager(store, &fakeRefresher{}, WithClock(clock(&now)))
	_, err := m.Authorize(context.Background())
	assert.ErrorIs(t, err, ErrConsentRequired)

	m = NewManager(store, &fakeRefresher{}, WithClock(clock(&now)), WithConsent(func(context.Context) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "b", RefreshToken: "r2"}, nil
	}))
	tok, err := m.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", tok.AccessToken)
	assert.Equal(t, "b", store.rec.AccessToken)
}

func TestConcurrentRefreshRunsOnce(t *testing.T) {
	now := t0
	ref := &fakeRefresher{fn: func(*oauth2.Token) (*oauth2.Token, error) {
		time.Sleep(5 * time.Millisecond)
		return &oauth2.Token{AccessToken: "new", Expiry: t0.Add(time.Hour)}, nil
	}}
	m := NewManager(&memStore{rec: &Record{AccessToken: "old", RefreshToken: "r", Expiry: t0}}, ref, WithClock(clock(&now)))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.ValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "new", tok.AccessToken)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ref.calls.Load())
}

func TestTokenStateString(t *testing.T) {
	assert.Equal(t, "no_token", NoToken.String())
	assert.Equal(t, "refreshing", Refreshing.String())
	assert.Equal(t, "state(42)", TokenState(42).String())
}

type blockingRefresher struct{ calls atomic.Int32 }

func (b *blockingRefresher) Refresh(ctx context.Context, _ *oauth2.Token) (*oauth2.Token, error) {
	b.calls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRefreshHonoursDeadline(t *testing.T) {
	tests := []struct {
		name string
		get  func(m *Manager) (*oauth2.Token, error)
	}{
		{"valid token with caller deadline", func(m *Manager) (*oauth2.Token, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			return m.ValidToken(ctx)
		}},
		{"token source", func(m *Manager) (*oauth2.Token, error) {
			return m.Token()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0
			ref := &blockingRefresher{}
			m := NewManager(&memStore{rec: &Record{AccessToken: "old", RefreshToken: "r", Expiry: t0}}, ref,
				WithClock(clock(&now)), WithTokenTimeout(20*time.Millisecond))

			start := time.Now()
			_, err := tt.get(m)
			require.Error(t, err)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), 2*time.Second)
			assert.EqualValues(t, 1, ref.calls.Load())
			assert.Equal(t, Expired, m.State(), "a timed out refresh can be retried")
		})
	}
}
