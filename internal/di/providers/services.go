package providers

import (
	"github.com/samber/do/v2"

	"github.com/terplogapp/terplog-server/internal/auth"
	"github.com/terplogapp/terplog-server/internal/genai"
	"github.com/terplogapp/terplog-server/internal/logger"
	"github.com/terplogapp/terplog-server/internal/service"
	"github.com/terplogapp/terplog-server/internal/sync"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	materializer := do.MustInvoke[*sync.Materializer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, materializer, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	materializer := do.MustInvoke[*sync.Materializer](i)
	profileService := do.MustInvoke[*service.ProfileService](i)
	generator := do.MustInvoke[genai.Generator](i)
	limiter := do.MustInvoke[*GenAILimiter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(
		storeHandle.Store,
		materializer,
		profileService,
		generator,
		limiter.KeyedRateLimiter,
		log.Logger,
	), nil
}
