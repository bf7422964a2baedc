package studio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/styleai/server/internal/module/quota"
)

type stubProvider struct {
	calls   int
	failErr error
	palette *PaletteAnalysis
}

func (p *stubProvider) GenerateTryOn(_ context.Context, _ InlineImage, _ []InlineImage) (InlineImage, error) {
	p.calls++
	if p.failErr != nil {
		return InlineImage{}, p.failErr
	}
	return InlineImage{MIMEType: "image/png", Data: "Z2VuZXJhdGVk"}, nil
}

func (p *stubProvider) AnalyzeColorPalette(_ context.Context, _ InlineImage) (*PaletteAnalysis, error) {
	p.calls++
	if p.failErr != nil {
		return nil, p.failErr
	}
	if p.palette != nil {
		return p.palette, nil
	}
	return &PaletteAnalysis{Season: "Cool Winter", Palette: []string{"#1B264F"}, Description: "crisp contrast"}, nil
}

func (p *stubProvider) GenerateCatalog(_ context.Context, _, _ InlineImage, _ string) (InlineImage, error) {
	p.calls++
	if p.failErr != nil {
		return InlineImage{}, p.failErr
	}
	return InlineImage{MIMEType: "image/png", Data: "Y2F0YWxvZw=="}, nil
}

func (p *stubProvider) ModelFor(Kind) string { return "test-model" }

type stubRepo struct {
	created []*GenerationRecord
	failErr error
}

func (r *stubRepo) Create(_ context.Context, record *GenerationRecord) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.created = append(r.created, record)
	return nil
}

func (r *stubRepo) ListByUser(_ context.Context, userKey string, limit int) ([]*GenerationRecord, error) {
	var out []*GenerationRecord
	for _, rec := range r.created {
		if rec.UserKey == userKey {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// brokenConsumeStore reads fine but fails every write. It exercises the
// bookkeeping path where the result has already been delivered.
type brokenConsumeStore struct {
	inner *quota.MemoryStore
}

func (s *brokenConsumeStore) Get(ctx context.Context, userKey, periodKey string) (int64, error) {
	return s.inner.Get(ctx, userKey, periodKey)
}

func (s *brokenConsumeStore) IncrementIfUnder(context.Context, string, string, int64, time.Duration) (bool, int64, error) {
	return false, 0, quota.ErrStoreUnavailable
}

func (s *brokenConsumeStore) Close() error { return s.inner.Close() }

func newTestService(t *testing.T, provider Provider, repo Repository, store quota.Store) *Service {
	t.Helper()
	if store == nil {
		memStore := quota.NewMemoryStore()
		t.Cleanup(func() { memStore.Close() })
		store = memStore
	}
	gate := quota.NewGate(&quota.GateConfig{
		Store:  store,
		Limits: quota.Limits{Default: 3, Tiers: map[string]int64{"business": 20}},
	})
	return NewService(&ServiceConfig{
		Provider: provider,
		Gate:     gate,
		Repo:     repo,
	})
}

func tryOnRequest() *TryOnRequest {
	return &TryOnRequest{
		UserPhotoDataURI:    validDataURI("image/jpeg"),
		OutfitImageDataURIs: []string{validDataURI("image/png")},
	}
}

func TestServiceTryOnSuccessConsumesQuota(t *testing.T) {
	provider := &stubProvider{}
	repo := &stubRepo{}
	svc := newTestService(t, provider, repo, nil)

	resp, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.NoError(t, err)
	assert.Contains(t, resp.TryOnImageDataURI, "data:image/png;base64,")
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(1), resp.Usage.Used)
	assert.Equal(t, int64(2), resp.Usage.Remaining)

	require.Len(t, repo.created, 1)
	assert.Equal(t, KindTryOn, repo.created[0].Kind)
	assert.Equal(t, StatusSucceeded, repo.created[0].Status)
	assert.Equal(t, "test-model", repo.created[0].Model)
}

func TestServiceLimitReachedSkipsProvider(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider, &stubRepo{}, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, provider.calls)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.ErrorIs(t, err, ErrDailyLimitReached)
	assert.Equal(t, 3, provider.calls, "rejected request must not reach the provider")
}

func TestServiceProviderFailureDoesNotConsume(t *testing.T) {
	provider := &stubProvider{failErr: ErrProviderFailed}
	repo := &stubRepo{}
	svc := newTestService(t, provider, repo, nil)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.ErrorIs(t, err, ErrProviderFailed)

	usage, err := svc.Usage(context.Background(), "alice@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage.Used, "failed generation must not burn quota")

	require.Len(t, repo.created, 1)
	assert.Equal(t, StatusFailed, repo.created[0].Status)
}

func TestServiceInvalidImageRejectedBeforeAdmission(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider, &stubRepo{}, nil)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", &TryOnRequest{
		UserPhotoDataURI:    "not-a-data-uri",
		OutfitImageDataURIs: []string{validDataURI("image/png")},
	})
	require.ErrorIs(t, err, ErrInvalidImage)
	assert.Zero(t, provider.calls)
}

func TestServiceTryOnRequiresOutfit(t *testing.T) {
	svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", &TryOnRequest{
		UserPhotoDataURI: validDataURI("image/jpeg"),
	})
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestServiceStoreDownFailsClosed(t *testing.T) {
	provider := &stubProvider{}
	store := &failingQuotaStore{}
	svc := newTestService(t, provider, &stubRepo{}, store)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.ErrorIs(t, err, quota.ErrStoreUnavailable)
	assert.Zero(t, provider.calls, "unverifiable admission must not reach the provider")
}

type failingQuotaStore struct{}

func (failingQuotaStore) Get(context.Context, string, string) (int64, error) {
	return 0, quota.ErrStoreUnavailable
}

func (failingQuotaStore) IncrementIfUnder(context.Context, string, string, int64, time.Duration) (bool, int64, error) {
	return false, 0, quota.ErrStoreUnavailable
}

func (failingQuotaStore) Close() error { return nil }

func TestServiceBookkeepingFailureStillReturnsResult(t *testing.T) {
	memStore := quota.NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	provider := &stubProvider{}
	svc := newTestService(t, provider, &stubRepo{}, &brokenConsumeStore{inner: memStore})

	resp, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.NoError(t, err, "a delivered generation is not withheld over bookkeeping")
	assert.NotEmpty(t, resp.TryOnImageDataURI)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(0), resp.Usage.Used, "snapshot falls back to the pre-call read")
}

func TestServiceCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	provider := &stubProvider{failErr: ErrProviderFailed}
	svc := newTestService(t, provider, &stubRepo{}, nil)

	// Use a fresh user per attempt so admission never interferes.
	users := []string{"u1@example.com", "u2@example.com", "u3@example.com", "u4@example.com", "u5@example.com"}
	for _, user := range users {
		_, err := svc.TryOn(context.Background(), user, "", tryOnRequest())
		require.ErrorIs(t, err, ErrProviderFailed)
	}

	_, err := svc.TryOn(context.Background(), "u6@example.com", "", tryOnRequest())
	require.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, len(users), provider.calls, "open circuit short-circuits the provider call")
}

func TestServicePalette(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider, &stubRepo{}, nil)

	resp, err := svc.AnalyzePalette(context.Background(), "alice@example.com", "", &PaletteRequest{
		UserImageDataURI: validDataURI("image/jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cool Winter", resp.Season)
	assert.NotEmpty(t, resp.Palette)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(1), resp.Usage.Used)
}

func TestServiceCatalogSharesDailyPool(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider, &stubRepo{}, nil)

	_, err := svc.GenerateCatalog(context.Background(), "shop@example.com", "business", &CatalogRequest{
		MannequinImageDataURI: validDataURI("image/png"),
		ProductImageDataURI:   validDataURI("image/jpeg"),
	})
	require.NoError(t, err)

	resp, err := svc.TryOn(context.Background(), "shop@example.com", "business", tryOnRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Usage.Used, "catalog and try-on draw from one pool")
	assert.Equal(t, int64(20), resp.Usage.Limit, "business tier ceiling applies")
}

func TestServiceHistory(t *testing.T) {
	provider := &stubProvider{}
	repo := &stubRepo{}
	svc := newTestService(t, provider, repo, nil)

	_, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.NoError(t, err)
	_, err = svc.AnalyzePalette(context.Background(), "alice@example.com", "", &PaletteRequest{
		UserImageDataURI: validDataURI("image/jpeg"),
	})
	require.NoError(t, err)

	resp, err := svc.History(context.Background(), "alice@example.com", 10)
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)

	other, err := svc.History(context.Background(), "bob@example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, other.Records)
}

func TestServiceBookkeepingRepoFailureIsSwallowed(t *testing.T) {
	provider := &stubProvider{}
	repo := &stubRepo{failErr: errors.New("db down")}
	svc := newTestService(t, provider, repo, nil)

	resp, err := svc.TryOn(context.Background(), "alice@example.com", "", tryOnRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TryOnImageDataURI)
}
