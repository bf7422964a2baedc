package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/styleai/server/internal/module/quota"
	"github.com/styleai/server/internal/shared/logger"
	"github.com/styleai/server/internal/utils/metrics"
)

// Service runs generation flows: admission through the quota gate, the
// provider call behind a circuit breaker, then usage bookkeeping and a
// best-effort history record.
//
// Admission failures are terminal. Bookkeeping failures after a delivered
// generation are logged and swallowed so the user still receives the result
// they paid a provider call for.
type Service struct {
	provider Provider
	gate     *quota.Gate
	repo     Repository
	breaker  *gobreaker.CircuitBreaker[any]
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// ServiceConfig contains service dependencies.
type ServiceConfig struct {
	Provider Provider
	Gate     *quota.Gate
	Repo     Repository
	Metrics  *metrics.Metrics
	Logger   *logger.Logger

	// Circuit breaker tuning. Zero values fall back to defaults.
	FailureThreshold uint32
	CircuitTimeout   time.Duration
}

// NewService creates a studio service.
func NewService(cfg *ServiceConfig) *Service {
	failures := cfg.FailureThreshold
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.CircuitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.New(nil)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "studio-provider",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Client-side mistakes must not trip the breaker.
			return err == nil || errors.Is(err, ErrInvalidImage) || errors.Is(err, context.Canceled)
		},
	})

	return &Service{
		provider: cfg.Provider,
		gate:     cfg.Gate,
		repo:     cfg.Repo,
		breaker:  breaker,
		metrics:  cfg.Metrics,
		logger:   log,
	}
}

// TryOn generates a virtual try-on image.
func (s *Service) TryOn(ctx context.Context, userKey, userClass string, req *TryOnRequest) (*TryOnResponse, error) {
	req.Normalize()
	if len(req.OutfitImageDataURIs) == 0 {
		return nil, fmt.Errorf("%w: at least one outfit image is required", ErrInvalidImage)
	}

	userPhoto, err := ParseImageDataURI(req.UserPhotoDataURI)
	if err != nil {
		return nil, err
	}
	outfits := make([]InlineImage, 0, len(req.OutfitImageDataURIs))
	for _, uri := range req.OutfitImageDataURIs {
		img, err := ParseImageDataURI(uri)
		if err != nil {
			return nil, err
		}
		outfits = append(outfits, img)
	}

	var result InlineImage
	usage, err := s.generate(ctx, userKey, userClass, KindTryOn, func(ctx context.Context) error {
		var genErr error
		result, genErr = s.provider.GenerateTryOn(ctx, userPhoto, outfits)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	return &TryOnResponse{
		TryOnImageDataURI: result.DataURI(),
		Usage:             usage,
	}, nil
}

// AnalyzePalette runs seasonal color analysis on a portrait.
func (s *Service) AnalyzePalette(ctx context.Context, userKey, userClass string, req *PaletteRequest) (*PaletteResponse, error) {
	portrait, err := ParseImageDataURI(req.UserImageDataURI)
	if err != nil {
		return nil, err
	}

	var analysis *PaletteAnalysis
	usage, err := s.generate(ctx, userKey, userClass, KindColorPalette, func(ctx context.Context) error {
		var genErr error
		analysis, genErr = s.provider.AnalyzeColorPalette(ctx, portrait)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	return &PaletteResponse{
		PaletteAnalysis: *analysis,
		Usage:           usage,
	}, nil
}

// GenerateCatalog composites a product onto a mannequin photo.
func (s *Service) GenerateCatalog(ctx context.Context, userKey, userClass string, req *CatalogRequest) (*CatalogResponse, error) {
	mannequin, err := ParseImageDataURI(req.MannequinImageDataURI)
	if err != nil {
		return nil, err
	}
	product, err := ParseImageDataURI(req.ProductImageDataURI)
	if err != nil {
		return nil, err
	}

	var result InlineImage
	usage, err := s.generate(ctx, userKey, userClass, KindCatalog, func(ctx context.Context) error {
		var genErr error
		result, genErr = s.provider.GenerateCatalog(ctx, mannequin, product, req.CatalogStyleDescription)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	return &CatalogResponse{
		CatalogImageDataURI: result.DataURI(),
		Usage:               usage,
	}, nil
}

// History returns the user's most recent generation records.
func (s *Service) History(ctx context.Context, userKey string, limit int) (*HistoryResponse, error) {
	records, err := s.repo.ListByUser(ctx, userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("list generation history: %w", err)
	}
	return &HistoryResponse{Records: records}, nil
}

// Usage returns the user's current quota snapshot without consuming.
func (s *Service) Usage(ctx context.Context, userKey, userClass string) (*quota.Snapshot, error) {
	return s.gate.CheckRemaining(ctx, userKey, userClass)
}

// generate runs the shared admission, provider call, and bookkeeping flow.
// It returns the post-consumption usage snapshot on success.
func (s *Service) generate(ctx context.Context, userKey, userClass string, kind Kind, call func(context.Context) error) (*quota.Snapshot, error) {
	snapshot, err := s.gate.CheckRemaining(ctx, userKey, userClass)
	if err != nil {
		// Admission cannot be verified, so the request is refused.
		s.recordQuotaDecision("check", "error")
		s.recordGeneration(kind, StatusFailed, 0)
		return nil, err
	}
	if snapshot.Remaining <= 0 {
		s.recordQuotaDecision("check", "denied")
		s.recordGeneration(kind, "limit_reached", 0)
		return nil, ErrDailyLimitReached
	}
	s.recordQuotaDecision("check", "allowed")

	start := time.Now()
	_, err = s.breaker.Execute(func() (any, error) {
		return nil, call(ctx)
	})
	elapsed := time.Since(start)

	if err != nil {
		s.recordGeneration(kind, StatusFailed, elapsed)
		s.recordHistory(ctx, userKey, kind, snapshot.PeriodKey, StatusFailed)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
		}
		return nil, err
	}

	// The generation has been delivered at this point. A bookkeeping
	// failure here must not take the result away from the user.
	usage := snapshot
	if consumed, consumeErr := s.gate.ConsumeOne(ctx, userKey, userClass); consumeErr != nil {
		s.recordQuotaDecision("consume", "error")
		s.logger.Warn("usage bookkeeping failed after successful generation",
			logger.String("user_key", userKey),
			logger.String("kind", string(kind)),
			logger.Err(consumeErr),
		)
	} else {
		s.recordQuotaDecision("consume", "accepted")
		usage = &quota.Snapshot{
			Used:      consumed.Used,
			Limit:     consumed.Limit,
			Remaining: max(consumed.Limit-consumed.Used, 0),
			PeriodKey: consumed.PeriodKey,
			ResetsAt:  snapshot.ResetsAt,
		}
	}

	s.recordGeneration(kind, StatusSucceeded, elapsed)
	s.recordHistory(ctx, userKey, kind, snapshot.PeriodKey, StatusSucceeded)

	return usage, nil
}

func (s *Service) recordGeneration(kind Kind, status string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(string(kind), status, duration)
	}
}

func (s *Service) recordQuotaDecision(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordQuotaDecision(operation, outcome)
	}
}

// recordHistory persists a generation record. Failures are logged only.
func (s *Service) recordHistory(ctx context.Context, userKey string, kind Kind, periodKey, status string) {
	if s.repo == nil {
		return
	}
	record := &GenerationRecord{
		ID:        uuid.New(),
		UserKey:   userKey,
		Kind:      kind,
		PeriodKey: periodKey,
		Model:     s.provider.ModelFor(kind),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Warn("failed to persist generation record",
			logger.String("user_key", userKey),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
	}
}
