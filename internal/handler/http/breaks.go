package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

type BreakHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	End(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
}

type breakHandlerImpl struct {
	breakService breaks.BreakService
}

func NewBreakHandler(breakService breaks.BreakService) BreakHandler {
	return &breakHandlerImpl{breakService: breakService}
}

func (h *breakHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req breaks.StartBreakRequest
	if !decodeJSON(w, r, &req, "StartBreak") {
		return
	}

	result, err := h.breakService.Start(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Break started", result)
}

func (h *breakHandlerImpl) End(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req breaks.EndBreakRequest
	if !decodeJSON(w, r, &req, "EndBreak") {
		return
	}

	result, err := h.breakService.End(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break ended", result)
}

// History handles GET /break/history
// Query params:
//   - from: YYYY-MM-DD (default: 29 days before to)
//   - to: YYYY-MM-DD (default: today, UTC)
func (h *breakHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.breakService.History(r.Context(), actor, breaks.HistoryRequest{
		From: q.Get("from"),
		To:   q.Get("to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
