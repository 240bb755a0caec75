package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/presensia/presensia-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presensia-backend-go/internal/handler/http/response"
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
	statsService "github.com/presensia/presensia-backend-go/internal/service/stats"
)

type StatsHandler interface {
	GetMonthly(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
}

type statsHandlerImpl struct {
	statsService *statsService.StatsServiceImpl
}

func NewStatsHandler(service *statsService.StatsServiceImpl) StatsHandler {
	return &statsHandlerImpl{statsService: service}
}

func parsePeriod(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, validator.ValidationErrors{{Field: "year", Message: "year must be a four digit number"}}
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || !validator.IsValidMonth(month) {
		return 0, 0, validator.ValidationErrors{{Field: "month", Message: "month must be between 1 and 12"}}
	}

	return year, month, nil
}

// GetMonthly implements StatsHandler.
func (h *statsHandlerImpl) GetMonthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.statsService.GetMonthly(r.Context(), middleware.EmployeeID(r), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Recompute implements StatsHandler. Forces a rebuild of the caller's month,
// mainly for support flows after a data correction.
func (h *statsHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.statsService.Recompute(r.Context(), middleware.EmployeeID(r), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Stats recomputed", result)
}
