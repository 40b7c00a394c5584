package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// The token surface is the anonymous shared-link entry mode: a bearer of a
// counter's token (scanned from a QR code at a door station) may read and
// mutate that one counter, nothing else. The token resolves the counter, so
// no further authorization check applies.
func (s *Server) registerTokenHandlers(api huma.API) {
	type tokenInput struct {
		Token string `path:"token"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-counter-by-token",
		Method:      http.MethodGet,
		Path:        "/api/v1/t/{token}",
		Summary:     "Get the counter behind a share token",
		Tags:        []string{"Token access"},
	}, func(ctx context.Context, input *tokenInput) (*counterOutput, error) {
		c, err := s.store.GetByToken(ctx, input.Token)
		if err != nil {
			return nil, mapErr(err)
		}
		return &counterOutput{Body: c}, nil
	})

	type tokenStepInput struct {
		Token string `path:"token"`
		Body  stepBody
	}
	huma.Register(api, huma.Operation{
		OperationID: "increment-counter-by-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/t/{token}/increment",
		Summary:     "Increment via share token",
		Tags:        []string{"Token access"},
	}, func(ctx context.Context, input *tokenStepInput) (*counterOutput, error) {
		c, err := s.store.GetByToken(ctx, input.Token)
		if err != nil {
			return nil, mapErr(err)
		}
		c, err = s.store.Increment(ctx, c.EditionID, c.ID, input.Body.Step)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decrement-counter-by-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/t/{token}/decrement",
		Summary:     "Decrement via share token (clamped at zero)",
		Tags:        []string{"Token access"},
	}, func(ctx context.Context, input *tokenStepInput) (*counterOutput, error) {
		c, err := s.store.GetByToken(ctx, input.Token)
		if err != nil {
			return nil, mapErr(err)
		}
		c, err = s.store.Decrement(ctx, c.EditionID, c.ID, input.Body.Step)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-counter-by-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/t/{token}/reset",
		Summary:     "Reset to zero via share token",
		Tags:        []string{"Token access"},
	}, func(ctx context.Context, input *tokenInput) (*counterOutput, error) {
		c, err := s.store.GetByToken(ctx, input.Token)
		if err != nil {
			return nil, mapErr(err)
		}
		c, err = s.store.Reset(ctx, c.EditionID, c.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})
}
