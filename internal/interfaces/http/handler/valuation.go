package handler

import (
	"github.com/gin-gonic/gin"

	appvaluation "github.com/arvinbobis/reverse-dcf/internal/application/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/dto"
)

// ValuationHandler serves the reverse DCF endpoints.
type ValuationHandler struct {
	BaseHandler
	service *appvaluation.Service
}

// NewValuationHandler creates a new ValuationHandler
func NewValuationHandler(service *appvaluation.Service) *ValuationHandler {
	return &ValuationHandler{service: service}
}

// ReverseDCF godoc
// @ID           calculateReverseDCF
// @Summary      Solve for the market-implied growth rate
// @Description  Finds the growth rate at which the DCF value equals the current stock price, values the company at the baseline growth rate and builds a sensitivity table around the implied rate
// @Tags         valuations
// @Accept       json
// @Produce      json
// @Param        request body dto.AssumptionsRequest true "Valuation assumptions"
// @Success      200 {object} APIResponse[dto.CalculationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Failure      504 {object} ErrorResponse
// @Router       /valuations/reverse-dcf [post]
func (h *ValuationHandler) ReverseDCF(c *gin.Context) {
	var req dto.AssumptionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := req.Assumptions()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.Calculate(c.Request.Context(), appvaluation.CalculateCommand{Assumptions: a})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewCalculationResponse(res))
}

// CustomGrowth godoc
// @ID           calculateCustomGrowth
// @Summary      Value at a custom growth rate
// @Description  Values the company at a caller-chosen growth rate, which must lie strictly between -100% and 100%, and projects the price three years ahead
// @Tags         valuations
// @Accept       json
// @Produce      json
// @Param        request body dto.CustomGrowthRequest true "Assumptions and custom growth rate"
// @Success      200 {object} APIResponse[dto.CustomGrowthResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Failure      504 {object} ErrorResponse
// @Router       /valuations/custom-growth [post]
func (h *ValuationHandler) CustomGrowth(c *gin.Context) {
	var req dto.CustomGrowthRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := req.Assumptions()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	g, err := req.GrowthRate()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.CustomGrowth(c.Request.Context(), appvaluation.CustomGrowthCommand{
		Assumptions:      a,
		CustomGrowthRate: g,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewCustomGrowthResponse(res))
}

// Batch godoc
// @ID           calculateReverseDCFBatch
// @Summary      Solve several companies at once
// @Description  Runs the reverse DCF calculation for every item. Each item reports its own result or error; meta carries the counts
// @Tags         valuations
// @Accept       json
// @Produce      json
// @Param        request body dto.BatchRequest true "Batch items"
// @Success      200 {object} APIResponse[dto.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /valuations/batch [post]
func (h *ValuationHandler) Batch(c *gin.Context) {
	var req dto.BatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.Command()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.Batch(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, BatchResponseFor(res, getRequestID(c)), res.Succeeded, res.Failed)
}

// BatchResponseFor renders every batch item, mapping failed items through
// ErrorResponseFor.
func BatchResponseFor(res *appvaluation.BatchResult, requestID string) dto.BatchResponse {
	items := make([]dto.BatchItemResponse, len(res.Items))
	for i, item := range res.Items {
		out := dto.BatchItemResponse{Index: item.Index, ID: item.ID}
		if item.Err != nil {
			_, errResp := ErrorResponseFor(item.Err, requestID)
			out.Error = errResp.Error
		} else {
			data := dto.NewCalculationResponse(item.Result)
			out.Success = true
			out.Data = &data
		}
		items[i] = out
	}
	return dto.BatchResponse{Items: items}
}
