package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/middleware"
	accounts "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/accounts/handler"
	sales "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/sales/handler"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

type CompanyHTTPHandler struct {
	accounts *accounts.AccountsHandler
	sales    *sales.SalesHandler
	tokens   *utils.TokenManager
}

func NewCompanyHTTPHandler(accountsHandler *accounts.AccountsHandler, salesHandler *sales.SalesHandler, tokens *utils.TokenManager) *CompanyHTTPHandler {
	return &CompanyHTTPHandler{
		accounts: accountsHandler,
		sales:    salesHandler,
		tokens:   tokens,
	}
}

// Request structs

type RegisterCompanyRequest struct {
	Name             string           `json:"name" binding:"required"`
	Username         string           `json:"username" binding:"required"`
	Password         string           `json:"password" binding:"required"`
	MaxSale          *decimal.Decimal `json:"max_sale,omitempty"`
	BonusPointsRatio *decimal.Decimal `json:"bonus_points_ratio,omitempty"`
	Description      *string          `json:"description,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateCompanyRequest struct {
	Name             *string          `json:"name,omitempty"`
	Description      *string          `json:"description,omitempty"`
	MaxSale          *decimal.Decimal `json:"max_sale,omitempty"`
	BonusPointsRatio *decimal.Decimal `json:"bonus_points_ratio,omitempty"`
}

type CreateCashierRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DateRangeRequest struct {
	FromDate string `json:"from_date" binding:"required"`
	ToDate   string `json:"to_date" binding:"required"`
}

type DateRequest struct {
	Date string `json:"date" binding:"required"`
}

type companyResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Username         string          `json:"username"`
	MaxSale          decimal.Decimal `json:"max_sale"`
	BonusPointsRatio decimal.Decimal `json:"bonus_points_ratio"`
	Description      *string         `json:"description"`
}

type cashierResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Username  string `json:"username"`
	Status    string `json:"status"`
}

const dateLayout = "2006-01-02"

func (h *CompanyHTTPHandler) Register(c *gin.Context) {
	var req RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	result, err := h.accounts.RegisterCompany(c.Request.Context(), accounts.RegisterCompanyRequest{
		Name:             req.Name,
		Username:         req.Username,
		Password:         req.Password,
		MaxSale:          req.MaxSale,
		BonusPointsRatio: req.BonusPointsRatio,
		Description:      req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company_id": result.CompanyID,
		"token":      result.Token,
	})
}

func (h *CompanyHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	result, err := h.accounts.LoginCompany(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"company_id": result.CompanyID,
	})
}

func (h *CompanyHTTPHandler) Logout(c *gin.Context) {
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

// ownCompany enforces that the path company matches the authenticated one.
func ownCompany(c *gin.Context) (string, bool) {
	claims := middleware.ClaimsFromContext(c)
	companyID := c.Param("company_id")
	if claims == nil || claims.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You cannot access another company"})
		return "", false
	}
	return companyID, true
}

func (h *CompanyHTTPHandler) GetCompany(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	info, err := h.accounts.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyToResponse(info))
}

func (h *CompanyHTTPHandler) UpdateCompany(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	info, err := h.accounts.UpdateCompany(c.Request.Context(), companyID, accounts.UpdateCompanyRequest{
		Name:             req.Name,
		Description:      req.Description,
		MaxSale:          req.MaxSale,
		BonusPointsRatio: req.BonusPointsRatio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyToResponse(info))
}

// --- Cashier management ---

func (h *CompanyHTTPHandler) CreateCashier(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	var req CreateCashierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	result, err := h.accounts.CreateCashier(c.Request.Context(), accounts.CreateCashierRequest{
		CompanyID: companyID,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company_id": result.CompanyID,
		"cashier_id": result.CashierID,
		"token":      result.Token,
	})
}

func (h *CompanyHTTPHandler) ListCashiers(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	cashiers, err := h.accounts.ListCashiers(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]cashierResponse, 0, len(cashiers))
	for _, cashier := range cashiers {
		resp = append(resp, cashierToResponse(cashier))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CompanyHTTPHandler) GetCashier(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	cashier, err := h.accounts.GetCashier(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cashierToResponse(*cashier))
}

func (h *CompanyHTTPHandler) DeactivateCashier(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	if err := h.accounts.DeactivateCashier(c.Request.Context(), companyID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Reporting ---

func (h *CompanyHTTPHandler) DailyMoneyStats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	from, to, ok := bindDateRange(c)
	if !ok {
		return
	}

	stats, err := h.sales.DailyMoneyStats(c.Request.Context(), claims.CompanyID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CompanyHTTPHandler) HourlyMoneyStats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req DateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Date is required.")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondValidation(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	stats, err := h.sales.HourlyMoneyStats(c.Request.Context(), claims.CompanyID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CompanyHTTPHandler) CashierDailyMoneyStats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	from, to, ok := bindDateRange(c)
	if !ok {
		return
	}

	stats, err := h.sales.CashierDailyMoneyStats(c.Request.Context(), claims.CompanyID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func bindDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var req DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Both from_date and to_date are required.")
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(dateLayout, req.FromDate)
	if err != nil {
		respondValidation(c, "Invalid from_date format, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, req.ToDate)
	if err != nil {
		respondValidation(c, "Invalid to_date format, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func cashierToResponse(info accounts.CashierInfo) cashierResponse {
	return cashierResponse{
		ID:        info.ID,
		CompanyID: info.CompanyID,
		Username:  info.Username,
		Status:    info.Status,
	}
}

func companyToResponse(info *accounts.CompanyInfo) companyResponse {
	return companyResponse{
		ID:               info.ID,
		Name:             info.Name,
		Username:         info.Username,
		MaxSale:          info.MaxSale,
		BonusPointsRatio: info.BonusPointsRatio,
		Description:      info.Description,
	}
}
