package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/middleware"
	accounts "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/accounts/handler"
	loyalty "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/loyalty/handler"
	sales "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/sales/handler"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

type CashierHTTPHandler struct {
	accounts *accounts.AccountsHandler
	loyalty  *loyalty.LoyaltyHandler
	sales    *sales.SalesHandler
	tokens   *utils.TokenManager
}

func NewCashierHTTPHandler(accountsHandler *accounts.AccountsHandler, loyaltyHandler *loyalty.LoyaltyHandler, salesHandler *sales.SalesHandler, tokens *utils.TokenManager) *CashierHTTPHandler {
	return &CashierHTTPHandler{
		accounts: accountsHandler,
		loyalty:  loyaltyHandler,
		sales:    salesHandler,
		tokens:   tokens,
	}
}

type PreSaleHTTPRequest struct {
	ClientID   int64           `json:"client_id" binding:"required"`
	TotalPrice decimal.Decimal `json:"total_price" binding:"required"`
}

type SellItemHTTPRequest struct {
	ItemID    string          `json:"item_id" binding:"required"`
	Quantity  int32           `json:"quantity" binding:"required"`
	SellPrice decimal.Decimal `json:"sell_price" binding:"required"`
}

type SellHTTPRequest struct {
	ClientID           *int64                `json:"client_id,omitempty"`
	TotalPrice         decimal.Decimal       `json:"total_price" binding:"required"`
	TotalPriceWithSale decimal.Decimal       `json:"total_price_with_sale" binding:"required"`
	PointsUsed         int64                 `json:"points_used"`
	Items              []SellItemHTTPRequest `json:"items" binding:"required,dive"`
}

type preSaleResponse struct {
	ClientBalance    int64           `json:"client_balance"`
	PriceWithSale    decimal.Decimal `json:"price_with_sale"`
	PointsUsed       decimal.Decimal `json:"points_used"`
	AfterSaleBalance decimal.Decimal `json:"after_sale_balance"`
	PointsEarn       decimal.Decimal `json:"points_earn"`
}

func (h *CashierHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	result, err := h.accounts.LoginCashier(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"cashier_id": result.CashierID,
		"company_id": result.CompanyID,
	})
}

func (h *CashierHTTPHandler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication token required"})
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), claims); err != nil {
		respondValidation(c, "Failed to invalidate token")
		return
	}
	c.Status(http.StatusOK)
}

// PreSale previews the discount a client's points can cover. Nothing is
// written except the lazy zero-balance ledger row.
func (h *CashierHTTPHandler) PreSale(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req PreSaleHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "client_id and total_price are required")
		return
	}

	result, err := h.loyalty.PreSale(c.Request.Context(), loyalty.PreSaleRequest{
		ClientID:   req.ClientID,
		CompanyID:  claims.CompanyID,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preSaleResponse{
		ClientBalance:    result.ClientBalance,
		PriceWithSale:    result.PriceWithSale,
		PointsUsed:       result.PointsUsed,
		AfterSaleBalance: result.AfterSaleBalance,
		PointsEarn:       result.PointsEarn,
	})
}

func (h *CashierHTTPHandler) Sell(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req SellHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	items := make([]sales.SellItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, sales.SellItem{
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			SellPrice: item.SellPrice,
		})
	}

	err := h.sales.Sell(c.Request.Context(), sales.SellRequest{
		CompanyID:          claims.CompanyID,
		CashierID:          claims.CashierID,
		Items:              items,
		TotalPrice:         req.TotalPrice,
		TotalPriceWithSale: req.TotalPriceWithSale,
		PointsUsed:         req.PointsUsed,
		ClientID:           req.ClientID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
