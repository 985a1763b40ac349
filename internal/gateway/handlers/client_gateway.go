package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/middleware"
	loyalty "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/loyalty/handler"
	sales "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/sales/handler"
)

type ClientHTTPHandler struct {
	loyalty *loyalty.LoyaltyHandler
	sales   *sales.SalesHandler
}

func NewClientHTTPHandler(loyaltyHandler *loyalty.LoyaltyHandler, salesHandler *sales.SalesHandler) *ClientHTTPHandler {
	return &ClientHTTPHandler{
		loyalty: loyaltyHandler,
		sales:   salesHandler,
	}
}

type RegisterClientRequest struct {
	ID        int64  `json:"id" binding:"required"`
	FirstName string `json:"first_name"`
}

type companyLoyaltyResponse struct {
	LoyaltyID    *int64 `json:"loyalty_id"`
	CompanyID    string `json:"company_id"`
	CompanyName  string `json:"company_name"`
	Points       int64  `json:"points"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func (h *ClientHTTPHandler) Register(c *gin.Context) {
	var req RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "id is required")
		return
	}

	info, err := h.loyalty.RegisterClient(c.Request.Context(), loyalty.RegisterClientRequest{
		ID:        req.ID,
		FirstName: req.FirstName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func clientIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("client_id"), 10, 64)
	if err != nil || id <= 0 {
		respondValidation(c, "client_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *ClientHTTPHandler) ListLoyalty(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	var companyID *string
	if v := c.Query("company_id"); v != "" {
		companyID = &v
	}

	infos, err := h.loyalty.ListLoyalty(c.Request.Context(), clientID, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (h *ClientHTTPHandler) ListCompanies(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	entries, err := h.loyalty.ListCompaniesWithLoyalty(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]companyLoyaltyResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, companyLoyaltyResponse{
			LoyaltyID:    entry.LoyaltyID,
			CompanyID:    entry.Company.ID,
			CompanyName:  entry.Company.Name,
			Points:       entry.Points,
			IsSubscribed: entry.Subscribed,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientHTTPHandler) Subscribe(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	if err := h.loyalty.Subscribe(c.Request.Context(), clientID, c.Param("company_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *ClientHTTPHandler) Unsubscribe(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	if err := h.loyalty.Unsubscribe(c.Request.Context(), clientID, c.Param("company_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// LoyalStats splits the company's transactions into loyal (client attached)
// and anonymous ones. Company auth.
func (h *ClientHTTPHandler) LoyalStats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	from, to, ok := bindDateRange(c)
	if !ok {
		return
	}

	stats, err := h.sales.ClientLoyalStats(c.Request.Context(), claims.CompanyID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
