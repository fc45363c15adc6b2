package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/terplogapp/terplog-server/internal/domain"
	domainerrors "github.com/terplogapp/terplog-server/internal/errors"
	"github.com/terplogapp/terplog-server/internal/genai"
	"github.com/terplogapp/terplog-server/internal/id"
	"github.com/terplogapp/terplog-server/internal/ratelimit"
	"github.com/terplogapp/terplog-server/internal/store"
	"github.com/terplogapp/terplog-server/internal/sync"
	"github.com/terplogapp/terplog-server/internal/views"
)

// AnalysisUnavailable is returned as the analysis value when the
// generative provider stays down through all retries. It is a result,
// not an error; the review itself is untouched.
const AnalysisUnavailable = "The effects analysis service is unavailable right now. Please try again later."

// ReviewService coordinates review mutations: the validation gate, the
// write, the conditional popular mirror and the effects analysis flow.
type ReviewService struct {
	store        *store.Store
	materializer *sync.Materializer
	profiles     *ProfileService
	generator    genai.Generator
	genaiLimiter *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	store *store.Store,
	materializer *sync.Materializer,
	profiles *ProfileService,
	generator genai.Generator,
	genaiLimiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		store:        store,
		materializer: materializer,
		profiles:     profiles,
		generator:    generator,
		genaiLimiter: genaiLimiter,
		logger:       logger,
	}
}

// CreateReviewRequest contains a review submission.
type CreateReviewRequest struct {
	Strain      string   `json:"strain"`
	Rating      int      `json:"rating"`
	Type        string   `json:"type,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Terpenes    []string `json:"terpenes,omitempty"`
	Cost        float64  `json:"cost,omitempty"`
	Potency     string   `json:"potency,omitempty"`
	Flavor      string   `json:"flavor,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Location    string   `json:"location,omitempty"`
	Effects     string   `json:"effects,omitempty"`
}

// Create validates and stores a new review. Highly rated reviews are
// mirrored into the shared popular collection afterwards; the mirror
// is best-effort and a mirror failure never rolls back the review.
func (s *ReviewService) Create(ctx context.Context, userID string, req CreateReviewRequest) (*domain.Review, error) {
	reviewID, err := id.Generate("review")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		ID:          reviewID,
		OwnerID:     userID,
		Strain:      strings.TrimSpace(req.Strain),
		Rating:      req.Rating,
		Type:        domain.StrainType(req.Type),
		ProductType: domain.ProductType(req.ProductType),
		Terpenes:    req.Terpenes,
		Cost:        req.Cost,
		Potency:     req.Potency,
		Flavor:      req.Flavor,
		Brand:       req.Brand,
		Location:    req.Location,
		Effects:     req.Effects,
		CreatedAt:   time.Now(),
	}

	// The gate runs before any write. First failure wins.
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.IsHighlyRated() {
		s.mirrorToPopular(ctx, review)
	}

	return review, nil
}

// mirrorToPopular projects a highly rated review into the shared
// collection. Runs after the review write; failures are logged and
// swallowed so the already-committed review stands.
func (s *ReviewService) mirrorToPopular(ctx context.Context, review *domain.Review) {
	popularID, err := id.Generate("popular")
	if err != nil {
		s.logger.Warn("failed to generate popular ID, skipping mirror",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()))
		return
	}

	addedBy := s.profiles.DisplayName(ctx, review.OwnerID)
	entry := review.ToPopularStrain(popularID, addedBy)

	if err := s.store.CreatePopularStrain(ctx, entry); err != nil {
		s.logger.Warn("failed to mirror review to popular collection",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()))
	}
}

// List returns the user's reviews, newest first, narrowed by the
// optional query and filters.
func (s *ReviewService) List(ctx context.Context, userID, query string, filters views.Filters) ([]*domain.Review, error) {
	reviews, err := s.materializer.ReviewsSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reviews snapshot: %w", err)
	}

	reviews = views.Search(reviews, query)
	reviews = views.Filter(reviews, filters)
	return reviews, nil
}

// Get returns a single review, owner-checked.
func (s *ReviewService) Get(ctx context.Context, userID, reviewID string) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	if review.OwnerID != userID {
		// Reviews are private; hide existence from non-owners
		return nil, domainerrors.NotFound("review not found")
	}

	return review, nil
}

// Delete removes a review. The popular mirror, if one was created, is
// deliberately left in place; the shared collection is append-only
// from the reviewer's perspective.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	if _, err := s.Get(ctx, userID, reviewID); err != nil {
		return err
	}

	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			return domainerrors.NotFound("review not found")
		}
		return fmt.Errorf("delete review: %w", err)
	}

	return nil
}

// AnalysisResult is the outcome of an effects analysis request.
type AnalysisResult struct {
	Analysis  string `json:"analysis"`
	Persisted bool   `json:"persisted"`
}

// Analyze generates an effects summary for a review. Only one analysis
// may run per review at a time; a second request conflicts while the
// first is in flight. On provider failure the fixed unavailable
// message is returned as the result and nothing is written.
func (s *ReviewService) Analyze(ctx context.Context, userID, reviewID string) (*AnalysisResult, error) {
	review, err := s.Get(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := s.materializer.StartAnalysis(userID, reviewID); err != nil {
		return nil, err
	}

	if s.genaiLimiter != nil {
		if err := s.genaiLimiter.Wait(ctx, userID); err != nil {
			s.materializer.FinishAnalysis(userID, reviewID)
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	system, user := genai.EffectsPrompt(review)
	analysis, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		s.logger.Warn("effects analysis failed after retries",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()))
		s.materializer.FinishAnalysis(userID, reviewID)
		return &AnalysisResult{Analysis: AnalysisUnavailable}, nil
	}

	// The merged snapshot clears the loading overlay (snapshot wins).
	if _, err := s.store.MergeReviewAnalysis(ctx, reviewID, analysis); err != nil {
		s.materializer.FinishAnalysis(userID, reviewID)
		return nil, fmt.Errorf("merge analysis: %w", err)
	}

	return &AnalysisResult{Analysis: analysis, Persisted: true}, nil
}

// ShareText renders a review as shareable plain text.
func (s *ReviewService) ShareText(ctx context.Context, userID, reviewID string) (string, error) {
	review, err := s.Get(ctx, userID, reviewID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s", review.Strain)
	if review.Type != "" {
		fmt.Fprintf(&b, " (%s)", review.Type)
	}
	fmt.Fprintf(&b, "\nRating: %s", strings.Repeat("★", review.Rating)+strings.Repeat("☆", domain.MaxRating-review.Rating))
	if review.ProductType != "" {
		fmt.Fprintf(&b, "\nProduct: %s", review.ProductType)
	}
	if review.Potency != "" {
		fmt.Fprintf(&b, "\nPotency: %s", review.Potency)
	}
	if len(review.Terpenes) > 0 {
		fmt.Fprintf(&b, "\nTerpenes: %s", strings.Join(review.Terpenes, ", "))
	}
	if review.Brand != "" {
		fmt.Fprintf(&b, "\nBrand: %s", review.Brand)
	}
	if review.Effects != "" {
		fmt.Fprintf(&b, "\nEffects: %s", review.Effects)
	}
	b.WriteString("\n\nLogged with TerpLog")

	return b.String(), nil
}

// Dashboard returns the user's top highly rated reviews.
func (s *ReviewService) Dashboard(ctx context.Context, userID string) ([]*domain.Review, error) {
	reviews, err := s.materializer.ReviewsSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reviews snapshot: %w", err)
	}
	return views.Dashboard(reviews), nil
}

// Breakdown returns the user's product type breakdown.
func (s *ReviewService) Breakdown(ctx context.Context, userID string) (views.BreakdownResult, error) {
	reviews, err := s.materializer.ReviewsSnapshot(ctx, userID)
	if err != nil {
		return views.BreakdownResult{}, fmt.Errorf("reviews snapshot: %w", err)
	}
	return views.Breakdown(reviews), nil
}

// Popular returns the shared popular collection: newest first, one
// entry per strain, at most five entries.
func (s *ReviewService) Popular(ctx context.Context) ([]*domain.PopularStrain, error) {
	strains, err := s.materializer.PopularSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("popular snapshot: %w", err)
	}
	return strains, nil
}

// Suggest asks the generative provider for strain suggestions matching
// free-form preferences.
func (s *ReviewService) Suggest(ctx context.Context, userID, preferences string) (string, error) {
	preferences = strings.TrimSpace(preferences)
	if preferences == "" {
		return "", domainerrors.Validation("preferences are required")
	}

	if s.genaiLimiter != nil {
		if err := s.genaiLimiter.Wait(ctx, userID); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	system, user := genai.SuggestPrompt(preferences)
	suggestions, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		s.logger.Warn("strain suggestion failed after retries",
			slog.String("error", err.Error()))
		return AnalysisUnavailable, nil
	}

	return suggestions, nil
}
