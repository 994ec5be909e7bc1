package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Buffetology/internal/cache"
	"Buffetology/internal/model"
)

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk on fire") }
func (failingStore) Clear(context.Context) error { return nil }
func (failingStore) Close() error { return nil }

func newFileStore(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.NewFileStore(t.TempDir(), cache.Day)
	require.NoError(t, err)
	return s
}

func TestCachedFetcher_RatiosServedFromCache(t *testing.T) {
	mock := DemoFetcher()
	f := NewCachedFetcher(mock, newFileStore(t), zerolog.Nop())
	ctx := context.Background()

	first, err := f.FetchRatios(ctx, "MOAT")
	require.NoError(t, err)
	second, err := f.FetchRatios(ctx, "moat")
	require.NoError(t, err)

	assert.Equal(t, 1, mock.Calls("MOAT"))
	assert.Equal(t, first.Missing(), second.Missing())
	assert.InDelta(t, *first.TrailingPE, *second.TrailingPE, 0)
	assert.Equal(t, "mock", f.Name())
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	mock := NewMockFetcher()
	mock.Errors["BAD"] = errors.New("timeout")
	f := NewCachedFetcher(mock, newFileStore(t), zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := f.FetchRatios(context.Background(), "BAD")
		assert.Error(t, err)
	}
	assert.Equal(t, 2, mock.Calls("BAD"))
}

func TestCachedFetcher_StoreFailuresIgnored(t *testing.T) {
	mock := DemoFetcher()
	f := NewCachedFetcher(mock, failingStore{}, zerolog.Nop())

	s, err := f.FetchRatios(context.Background(), "MOAT")
	require.NoError(t, err)
	assert.True(t, s.Complete())
}

func TestCachedFetcher_UniverseCachedInFull(t *testing.T) {
	mock := DemoFetcher()
	store := newFileStore(t)
	f := NewCachedFetcher(mock, store, zerolog.Nop())
	ctx := context.Background()

	top, err := f.FetchUniverse(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"MOAT", "STDY"}, top)

	mock.Universe = nil
	all, err := f.FetchUniverse(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestCachedFetcher_Statements(t *testing.T) {
	f := NewCachedFetcher(DemoFetcher(), newFileStore(t), zerolog.Nop())
	sf, ok := f.(StatementFetcher)
	require.True(t, ok)
	_, err := sf.FetchStatements(context.Background(), "MOAT")
	assert.ErrorContains(t, err, "not supported")
}

func TestNewCachedFetcher_NilStore(t *testing.T) {
	mock := NewMockFetcher()
	assert.Same(t, mock, NewCachedFetcher(mock, nil, zerolog.Nop()))
}

func TestMockFetcher(t *testing.T) {
	m := NewMockFetcher()
	m.Snapshots["A"] = &model.RatioSnapshot{Ticker: "A", FetchedAt: time.Now()}
	m.Panics["P"] = true

	_, err := m.FetchRatios(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoData)
	_, err = m.FetchUniverse(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Panics(t, func() { m.FetchRatios(context.Background(), "P") })

	s, err := m.FetchRatios(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", s.Ticker)
}
