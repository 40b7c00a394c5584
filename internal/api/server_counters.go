package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doorstaff/gatecount/internal/counter"
	"github.com/doorstaff/gatecount/internal/live"
)

// staffCounterInput identifies one counter within an edition plus the staff
// credential for that edition.
type staffCounterInput struct {
	EditionID int64  `path:"edition_id"`
	CounterID int64  `path:"counter_id"`
	StaffKey  string `header:"X-Staff-Key"`
}

type counterOutput struct {
	Body counter.Counter
}

type stepBody struct {
	Step int64 `json:"step,omitempty" default:"1" minimum:"1" doc:"Amount to apply (defaults to 1)"`
}

func (s *Server) registerCounterHandlers(api huma.API) {
	type createInput struct {
		EditionID int64  `path:"edition_id"`
		StaffKey  string `header:"X-Staff-Key"`
		Body      struct {
			Name string `json:"name" doc:"Display name, e.g. \"Main hall\""`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID:   "create-counter",
		Method:        http.MethodPost,
		Path:          "/api/v1/editions/{edition_id}/counters",
		Summary:       "Create a counter",
		Tags:          []string{"Counters"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *createInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.Create(ctx, input.EditionID, input.Body.Name)
		if err != nil {
			return nil, mapErr(err)
		}
		return &counterOutput{Body: c}, nil
	})

	type listInput struct {
		EditionID int64  `path:"edition_id"`
		StaffKey  string `header:"X-Staff-Key"`
	}
	type listOutput struct {
		Body struct {
			Counters []counter.Counter `json:"counters"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-counters",
		Method:      http.MethodGet,
		Path:        "/api/v1/editions/{edition_id}/counters",
		Summary:     "List an edition's counters",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *listInput) (*listOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		counters, err := s.store.List(ctx, input.EditionID)
		if err != nil {
			return nil, mapErr(err)
		}
		out := &listOutput{}
		out.Body.Counters = counters
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-counter",
		Method:      http.MethodGet,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}",
		Summary:     "Get a counter",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *staffCounterInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.Get(ctx, input.EditionID, input.CounterID)
		if err != nil {
			return nil, mapErr(err)
		}
		return &counterOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-counter",
		Method:      http.MethodDelete,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}",
		Summary:     "Delete a counter and evict its live channels",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *staffCounterInput) (*struct{}, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		if err := s.store.Delete(ctx, input.EditionID, input.CounterID); err != nil {
			return nil, mapErr(err)
		}
		s.registry.UnregisterAll(live.CounterScope(input.EditionID, input.CounterID))
		return nil, nil
	})

	type stepInput struct {
		EditionID int64  `path:"edition_id"`
		CounterID int64  `path:"counter_id"`
		StaffKey  string `header:"X-Staff-Key"`
		Body      stepBody
	}
	huma.Register(api, huma.Operation{
		OperationID: "increment-counter",
		Method:      http.MethodPost,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}/increment",
		Summary:     "Increment a counter",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *stepInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.Increment(ctx, input.EditionID, input.CounterID, input.Body.Step)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decrement-counter",
		Method:      http.MethodPost,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}/decrement",
		Summary:     "Decrement a counter (clamped at zero)",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *stepInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.Decrement(ctx, input.EditionID, input.CounterID, input.Body.Step)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-counter",
		Method:      http.MethodPost,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}/reset",
		Summary:     "Reset a counter to zero",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *staffCounterInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.Reset(ctx, input.EditionID, input.CounterID)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	type setInput struct {
		EditionID int64  `path:"edition_id"`
		CounterID int64  `path:"counter_id"`
		StaffKey  string `header:"X-Staff-Key"`
		Body      struct {
			Value int64 `json:"value" minimum:"0" doc:"Absolute value to write"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "set-counter",
		Method:      http.MethodPost,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}/set",
		Summary:     "Set a counter to an absolute value",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *setInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.SetValue(ctx, input.EditionID, input.CounterID, input.Body.Value)
		if err != nil {
			return nil, mapErr(err)
		}
		s.dispatcher.Broadcast(c)
		return &counterOutput{Body: c}, nil
	})

	// Token regeneration is not a value change, so it deliberately does not
	// broadcast; connected channels keep streaming under the old session.
	huma.Register(api, huma.Operation{
		OperationID: "regenerate-counter-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/editions/{edition_id}/counters/{counter_id}/token",
		Summary:     "Regenerate a counter's share token",
		Tags:        []string{"Counters"},
	}, func(ctx context.Context, input *staffCounterInput) (*counterOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		c, err := s.store.RegenerateToken(ctx, input.EditionID, input.CounterID)
		if err != nil {
			return nil, mapErr(err)
		}
		return &counterOutput{Body: c}, nil
	})
}
