package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	catalog "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/catalog/handler"
)

type ItemHTTPHandler struct {
	catalog *catalog.CatalogHandler
}

func NewItemHTTPHandler(catalogHandler *catalog.CatalogHandler) *ItemHTTPHandler {
	return &ItemHTTPHandler{catalog: catalogHandler}
}

type CreateItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Status      string          `json:"status"`
	Description *string         `json:"description,omitempty"`
}

type UpdateItemRequest struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Status      *string          `json:"status,omitempty"`
	Description *string          `json:"description,omitempty"`
}

func (h *ItemHTTPHandler) Create(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "name and price are required")
		return
	}

	info, err := h.catalog.CreateItem(c.Request.Context(), catalog.CreateItemRequest{
		CompanyID:   companyID,
		Name:        req.Name,
		Price:       req.Price,
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ItemHTTPHandler) Update(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	info, err := h.catalog.UpdateItem(c.Request.Context(), companyID, c.Param("id"), catalog.UpdateItemRequest{
		Name:        req.Name,
		Price:       req.Price,
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// List and Get are public; clients browse the catalog without a token.
func (h *ItemHTTPHandler) List(c *gin.Context) {
	infos, err := h.catalog.ListItems(c.Request.Context(), c.Param("company_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (h *ItemHTTPHandler) Get(c *gin.Context) {
	info, err := h.catalog.GetItem(c.Request.Context(), c.Param("company_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
