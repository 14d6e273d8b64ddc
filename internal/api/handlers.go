package api

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/util"
)

// SimulationRequest is the body of POST /api/v1/simulations. Omitted fields
// take the configured defaults.
type SimulationRequest struct {
	AvailableInternalMM   *float64 `json:"availableInternalMM"`
	RequiredMM            *float64 `json:"requiredMM"`
	UnitCostInternal      *float64 `json:"unitCostInternal"`
	UnitCostExternal      *float64 `json:"unitCostExternal"`
	OutsourceLimitPercent *float64 `json:"outsourceLimitPercent"`
	Strategy              *string  `json:"strategy"`
}

// Input merges the request over defaults.
func (r SimulationRequest) Input(defaults simulation.Input) (simulation.Input, error) {
	in := defaults
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.AvailableInternalMM, r.AvailableInternalMM)
	set(&in.RequiredMM, r.RequiredMM)
	set(&in.UnitCostInternal, r.UnitCostInternal)
	set(&in.UnitCostExternal, r.UnitCostExternal)
	set(&in.OutsourceLimitPercent, r.OutsourceLimitPercent)

	if r.Strategy != nil {
		strategy, err := simulation.ParseStrategy(*r.Strategy)
		if err != nil {
			return simulation.Input{}, err
		}
		in.Strategy = strategy
	}
	return in, nil
}

func (s *Server) handleSimulate(ctx *fasthttp.RequestCtx) {
	var req SimulationRequest
	if body := bytes.TrimSpace(ctx.PostBody()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "malformed_body", err.Error())
			return
		}
	}

	in, err := req.Input(s.deps.Planner.Defaults())
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	rctx, cancel := s.requestContext()
	defer cancel()

	run, err := s.deps.Planner.Run(rctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	ctx.Response.Header.Set("X-Trace-Id", run.TraceID)
	writeJSON(ctx, fasthttp.StatusOK, s.deps.Planner.Export(run))
}

// HistoryEntry summarizes one recorded run.
type HistoryEntry struct {
	ID          string    `json:"simulationId"`
	TraceID     string    `json:"traceId"`
	Strategy    string    `json:"strategy"`
	TotalCost   float64   `json:"totalCost"`
	Fulfillment int       `json:"fulfillmentPercent"`
	Risk        int       `json:"riskScore"`
	ExecutedAt  time.Time `json:"executedAt"`
}

// handleHistory lists recorded runs, newest first. ?trace= narrows the list
// to the run with that trace ID.
func (s *Server) handleHistory(ctx *fasthttp.RequestCtx) {
	var trace string
	if raw := ctx.QueryArgs().Peek("trace"); len(raw) > 0 {
		id, err := util.ParseID(string(raw))
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", "trace: "+err.Error())
			return
		}
		trace = id
	}

	runs := s.deps.Planner.History()
	entries := make([]HistoryEntry, 0, len(runs))
	for _, r := range runs {
		if trace != "" && r.TraceID != trace {
			continue
		}
		entries = append(entries, HistoryEntry{
			ID:          r.ID,
			TraceID:     r.TraceID,
			Strategy:    r.Input.Strategy.String(),
			TotalCost:   r.Result.TotalCost,
			Fulfillment: r.Result.FulfillmentPercent,
			Risk:        r.Result.RiskIndex,
			ExecutedAt:  r.Result.ExecutedAt,
		})
	}
	writeJSON(ctx, fasthttp.StatusOK, entries)
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

func (s *Server) handlePeople(ctx *fasthttp.RequestCtx) {
	q := ctx.QueryArgs()

	filter := models.PersonFilter{
		Role:          string(q.Peek("role")),
		Skill:         string(q.Peek("skill")),
		Department:    string(q.Peek("department")),
		Certification: string(q.Peek("certification")),
		Project:       string(q.Peek("project")),
	}

	if v := string(q.Peek("type")); v != "" && v != models.FilterAll {
		t := models.PersonType(v)
		if !t.Valid() {
			writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", fmt.Sprintf("unknown type %q", v))
			return
		}
		filter.Type = &t
	}

	var err error
	if filter.MinAvailability, err = intArg(q, "minAvailability"); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	if v := string(q.Peek("availableBy")); v != "" {
		by, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", "availableBy must be YYYY-MM-DD")
			return
		}
		filter.AvailableBy = &by
	}

	page, err := pageArgs(q)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	rctx, cancel := s.requestContext()
	defer cancel()

	list, err := s.deps.People.Search(rctx, filter, page)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ListResponse[*models.Person]{
		Items:      nonNil(list.People),
		Total:      list.Total,
		Page:       list.Page,
		TotalPages: list.TotalPages,
	})
}

func (s *Server) handlePartners(ctx *fasthttp.RequestCtx) {
	q := ctx.QueryArgs()

	filter := models.PartnerFilter{
		Search:    string(q.Peek("search")),
		Specialty: string(q.Peek("specialty")),
		Tier:      string(q.Peek("tier")),
		Status:    string(q.Peek("status")),
	}

	page, err := pageArgs(q)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	rctx, cancel := s.requestContext()
	defer cancel()

	list, err := s.deps.Partners.Search(rctx, filter, page)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ListResponse[*models.Partner]{
		Items:      nonNil(list.Partners),
		Total:      list.Total,
		Page:       list.Page,
		TotalPages: list.TotalPages,
	})
}

func (s *Server) handleDashboard(ctx *fasthttp.RequestCtx) {
	rctx, cancel := s.requestContext()
	defer cancel()

	overview, err := s.deps.Dashboard.Overview(rctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, overview)
}

// AssistantRequest is the body of POST /api/v1/assistant.
type AssistantRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAssistant(ctx *fasthttp.RequestCtx) {
	var req AssistantRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "malformed_body", err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.deps.Assistant.Answer(req.Question))
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	rctx, cancel := s.requestContext()
	defer cancel()

	if s.deps.Health != nil {
		if err := s.deps.Health.HealthCheck(rctx); err != nil {
			writeError(ctx, fasthttp.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func intArg(q *fasthttp.Args, name string) (int, error) {
	v := q.Peek(name)
	if len(v) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(string(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func pageArgs(q *fasthttp.Args) (models.Pagination, error) {
	page := models.DefaultPagination()

	n, err := intArg(q, "page")
	if err != nil {
		return page, err
	}
	if n > 0 {
		page.Page = n
	}

	size, err := intArg(q, "pageSize")
	if err != nil {
		return page, err
	}
	if size > 0 {
		page.PageSize = size
	}
	return page, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
