// Package api exposes the counter engine over HTTP: a huma-described
// mutation surface for staff and token bearers, plus the raw streaming
// routes (SSE and WebSocket) for the live channel.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/doorstaff/gatecount/internal/auth"
	"github.com/doorstaff/gatecount/internal/counter"
	"github.com/doorstaff/gatecount/internal/live"
)

// Server wires the store, the live registry and the session manager behind
// the HTTP surface. The registry is an explicit dependency, never ambient
// state.
type Server struct {
	store      *counter.Store
	registry   *live.Registry
	dispatcher *live.Dispatcher
	sessions   *live.Sessions
	staffSalt  string
}

func NewServer(store *counter.Store, registry *live.Registry, dispatcher *live.Dispatcher, sessions *live.Sessions, staffSalt string) http.Handler {
	s := &Server{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		sessions:   sessions,
		staffSalt:  staffSalt,
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Gatecount API", "1.0.0")
	api := humachi.New(router, cfg)

	s.registerCounterHandlers(api)
	s.registerTokenHandlers(api)
	s.registerLiveHandlers(api)

	// The streaming endpoints hold the response open and need the raw
	// ResponseWriter, so they bypass huma and mount on chi directly.
	router.Get("/api/v1/editions/{edition_id}/live", s.handleEditionLive)
	router.Get("/api/v1/editions/{edition_id}/live/ws", s.handleEditionLiveWS)
	router.Get("/api/v1/t/{token}/live", s.handleTokenLive)

	return router
}

// authorizeStaff validates the per-edition staff key. Denials are surfaced
// as HTTP rejections, never downgraded to no-ops.
func (s *Server) authorizeStaff(editionID int64, key string) error {
	if key == "" {
		return huma.Error401Unauthorized("staff key required")
	}
	if err := auth.ValidateStaffKey(editionID, key, s.staffSalt); err != nil {
		return huma.Error403Forbidden("staff key not valid for this edition")
	}
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *counter.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case counter.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case counter.CodeNotFound:
			return huma.Error404NotFound(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
