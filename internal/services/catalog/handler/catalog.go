package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/common"
)

const (
	ITEM_CACHE_PREFIX      = "catalog:item:"
	ITEM_LIST_CACHE_PREFIX = "catalog:items:company:"
	CACHE_TTL_SHORT        = 5 * time.Minute
)

type CatalogHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client) *CatalogHandler {
	return &CatalogHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *CatalogHandler) invalidateItemCaches(ctx context.Context, companyID string, itemIDs ...string) {
	_ = s.redis.Del(ctx, ITEM_LIST_CACHE_PREFIX+companyID)
	for _, id := range itemIDs {
		_ = s.redis.Del(ctx, fmt.Sprintf("%s%s", ITEM_CACHE_PREFIX, id))
	}
}

type CreateItemRequest struct {
	CompanyID   string
	Name        string
	Price       decimal.Decimal
	Status      string
	Description *string
}

type UpdateItemRequest struct {
	Name        *string
	Price       *decimal.Decimal
	Status      *string
	Description *string
}

type ItemInfo struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
	Description *string         `json:"description"`
}

func normalizeStatus(status string) (string, error) {
	switch strings.ToUpper(status) {
	case "", models.StatusActive:
		return models.StatusActive, nil
	case models.StatusInactive:
		return models.StatusInactive, nil
	}
	return "", common.Validationf("status must be ACTIVE or INACTIVE")
}

func (s *CatalogHandler) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemInfo, error) {
	if req.Name == "" {
		return nil, common.Validationf("name is required")
	}
	if !common.ValidPrice(req.Price) {
		return nil, common.Validationf("price must be a positive two-decimal value")
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", req.CompanyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("company %s", req.CompanyID)
		}
		return nil, err
	}

	item := models.Item{
		ID:          uuid.NewString(),
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Price:       req.Price,
		Status:      status,
		Description: req.Description,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	s.invalidateItemCaches(ctx, req.CompanyID)

	info := itemToInfo(item)
	return &info, nil
}

func (s *CatalogHandler) UpdateItem(ctx context.Context, companyID, itemID string, req UpdateItemRequest) (*ItemInfo, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", itemID, companyID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("item %s", itemID)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		if !common.ValidPrice(*req.Price) {
			return nil, common.Validationf("price must be a positive two-decimal value")
		}
		updates["price"] = *req.Price
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		updates["status"] = status
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
			return nil, err
		}
		s.invalidateItemCaches(ctx, companyID, itemID)
		if err := s.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
			return nil, err
		}
	}

	info := itemToInfo(item)
	return &info, nil
}

func (s *CatalogHandler) GetItem(ctx context.Context, companyID, itemID string) (*ItemInfo, error) {
	cacheKey := ITEM_CACHE_PREFIX + itemID
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var info ItemInfo
		if json.Unmarshal([]byte(cached), &info) == nil && info.CompanyID == companyID {
			return &info, nil
		}
	}

	var item models.Item
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", itemID, companyID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("item %s", itemID)
		}
		return nil, err
	}

	info := itemToInfo(item)
	if data, err := json.Marshal(info); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}
	return &info, nil
}

func (s *CatalogHandler) ListItems(ctx context.Context, companyID string) ([]ItemInfo, error) {
	cacheKey := ITEM_LIST_CACHE_PREFIX + companyID
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var infos []ItemInfo
		if json.Unmarshal([]byte(cached), &infos) == nil {
			return infos, nil
		}
	}

	var items []models.Item
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}

	infos := make([]ItemInfo, 0, len(items))
	for _, item := range items {
		infos = append(infos, itemToInfo(item))
	}

	if data, err := json.Marshal(infos); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}
	return infos, nil
}

func itemToInfo(item models.Item) ItemInfo {
	return ItemInfo{
		ID:          item.ID,
		CompanyID:   item.CompanyID,
		Name:        item.Name,
		Price:       item.Price,
		Status:      item.Status,
		Description: item.Description,
	}
}
