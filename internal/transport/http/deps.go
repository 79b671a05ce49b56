package http

import (
	"log/slog"

	"github.com/matchday-app/notify-api/internal/bridge"
	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/dispatch"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/infrastructure/dynamo"
	"github.com/matchday-app/notify-api/internal/infrastructure/identity"
	"github.com/matchday-app/notify-api/internal/infrastructure/pushprovider"
	"github.com/matchday-app/notify-api/internal/resolver"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo *dynamo.NotificationRepo
	TokenRepo        *dynamo.TokenRepo
	Resolver         *resolver.Resolver
	Push             dispatch.Strategy
	PushProvider     pushprovider.Provider // nil when push registration is unavailable
	LocalStore       cache.Store
	InboxCache       *cache.Cache[[]domain.Notification]
	IdentityProvider *identity.Provider
	Hub              *bridge.Hub
	Logger           *slog.Logger
}
