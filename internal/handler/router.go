package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/workcity-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/handler/commerce"
	"github.com/zhouzirui/workcity-chat/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	chatService "github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
	commerceService "github.com/zhouzirui/workcity-chat/backend/internal/service/commerce"
	"github.com/zhouzirui/workcity-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. m may be nil, in which case
// /metrics is not mounted.
func NewRouter(chatSvc *chatService.Service, commerceSvc *commerceService.Service, auth *middlewarePkg.Authenticator, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	chatHandler := chat.New(chatSvc, auth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Register session store routes
		chatHandler.RegisterRoutes(api)

		// Order and product context is optional, like the shop it comes from
		if commerceSvc != nil {
			commerce.New(commerceSvc, auth).RegisterRoutes(api)
		}
	})

	return r
}
