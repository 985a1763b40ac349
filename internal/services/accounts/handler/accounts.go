package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/common"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

const (
	COMPANY_CACHE_PREFIX = "accounts:company:"
	CACHE_TTL_MEDIUM     = 30 * time.Minute
)

var (
	defaultMaxSale          = decimal.RequireFromString("0.50")
	defaultBonusPointsRatio = decimal.RequireFromString("0.20")
)

type AccountsHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	tokens *utils.TokenManager
}

func NewAccountsHandler(db *gorm.DB, redisClient *redis.Client, tokens *utils.TokenManager) *AccountsHandler {
	return &AccountsHandler{
		db:     db,
		redis:  redisClient,
		tokens: tokens,
	}
}

func (s *AccountsHandler) invalidateCompanyCache(ctx context.Context, companyIDs ...string) {
	for _, id := range companyIDs {
		_ = s.redis.Del(ctx, COMPANY_CACHE_PREFIX+id)
	}
}

// --- Requests / results ---

type RegisterCompanyRequest struct {
	Name             string
	Username         string
	Password         string
	MaxSale          *decimal.Decimal
	BonusPointsRatio *decimal.Decimal
	Description      *string
}

type RegisterCompanyResult struct {
	CompanyID string
	Token     string
	ExpiresAt time.Time
}

type CompanyInfo struct {
	ID               string
	Name             string
	Username         string
	MaxSale          decimal.Decimal
	BonusPointsRatio decimal.Decimal
	Description      *string
}

type UpdateCompanyRequest struct {
	Name             *string
	Description      *string
	MaxSale          *decimal.Decimal
	BonusPointsRatio *decimal.Decimal
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	CompanyID string
	CashierID string
}

type CreateCashierRequest struct {
	CompanyID string
	Username  string
	Password  string
}

type CreateCashierResult struct {
	CashierID string
	CompanyID string
	Token     string
}

type CashierInfo struct {
	ID        string
	CompanyID string
	Username  string
	Status    string
}

// --- Companies ---

func (s *AccountsHandler) RegisterCompany(ctx context.Context, req RegisterCompanyRequest) (*RegisterCompanyResult, error) {
	if req.Name == "" || req.Username == "" {
		return nil, common.Validationf("name and username are required")
	}
	if len(req.Password) < 8 {
		return nil, common.Validationf("password must be at least 8 characters")
	}

	maxSale := defaultMaxSale
	if req.MaxSale != nil {
		if !common.ValidRatio(*req.MaxSale) {
			return nil, common.Validationf("max_sale out of range")
		}
		maxSale = *req.MaxSale
	}
	bonusRatio := defaultBonusPointsRatio
	if req.BonusPointsRatio != nil {
		if !common.ValidRatio(*req.BonusPointsRatio) {
			return nil, common.Validationf("bonus_points_ratio out of range")
		}
		bonusRatio = *req.BonusPointsRatio
	}

	var existing models.Company
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, common.Conflictf("company with this username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	company := models.Company{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Username:         req.Username,
		Password:         string(pwHash),
		MaxSale:          maxSale,
		BonusPointsRatio: bonusRatio,
		Description:      req.Description,
	}
	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.GenerateCompanyToken(company.ID, company.Username)
	if err != nil {
		return nil, err
	}

	return &RegisterCompanyResult{
		CompanyID: company.ID,
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

func (s *AccountsHandler) LoginCompany(ctx context.Context, username, password string) (*LoginResult, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Validationf("invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.Password), []byte(password)); err != nil {
		return nil, common.Validationf("invalid username or password")
	}

	token, exp, err := s.tokens.GenerateCompanyToken(company.ID, company.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		CompanyID: company.ID,
	}, nil
}

func (s *AccountsHandler) GetCompany(ctx context.Context, companyID string) (*CompanyInfo, error) {
	cacheKey := COMPANY_CACHE_PREFIX + companyID
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var info CompanyInfo
		if json.Unmarshal([]byte(cached), &info) == nil {
			return &info, nil
		}
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("company %s", companyID)
		}
		return nil, err
	}

	info := companyToInfo(company)
	if data, err := json.Marshal(info); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, CACHE_TTL_MEDIUM)
	}
	return info, nil
}

func (s *AccountsHandler) UpdateCompany(ctx context.Context, companyID string, req UpdateCompanyRequest) (*CompanyInfo, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("company %s", companyID)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.MaxSale != nil {
		if !common.ValidRatio(*req.MaxSale) {
			return nil, common.Validationf("max_sale out of range")
		}
		updates["max_sale"] = *req.MaxSale
	}
	if req.BonusPointsRatio != nil {
		if !common.ValidRatio(*req.BonusPointsRatio) {
			return nil, common.Validationf("bonus_points_ratio out of range")
		}
		updates["bonus_points_ratio"] = *req.BonusPointsRatio
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&company).Updates(updates).Error; err != nil {
			return nil, err
		}
		s.invalidateCompanyCache(ctx, companyID)
		if err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
			return nil, err
		}
	}

	return companyToInfo(company), nil
}

// --- Cashiers ---

func (s *AccountsHandler) CreateCashier(ctx context.Context, req CreateCashierRequest) (*CreateCashierResult, error) {
	if req.Username == "" {
		return nil, common.Validationf("username is required")
	}
	if len(req.Password) < 8 {
		return nil, common.Validationf("password must be at least 8 characters")
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", req.CompanyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("company %s", req.CompanyID)
		}
		return nil, err
	}

	var existing models.Cashier
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, common.Conflictf("cashier with this username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	cashier := models.Cashier{
		ID:        uuid.NewString(),
		CompanyID: company.ID,
		Username:  req.Username,
		Password:  string(pwHash),
		Status:    models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&cashier).Error; err != nil {
		return nil, err
	}

	token, _, err := s.tokens.GenerateCashierToken(cashier.ID, company.ID, cashier.Username)
	if err != nil {
		return nil, err
	}

	return &CreateCashierResult{
		CashierID: cashier.ID,
		CompanyID: company.ID,
		Token:     token,
	}, nil
}

func (s *AccountsHandler) LoginCashier(ctx context.Context, username, password string) (*LoginResult, error) {
	var cashier models.Cashier
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&cashier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Validationf("invalid username or password")
		}
		return nil, err
	}

	if cashier.IsFired || cashier.Status != models.StatusActive {
		return nil, common.Validationf("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cashier.Password), []byte(password)); err != nil {
		return nil, common.Validationf("invalid username or password")
	}

	token, exp, err := s.tokens.GenerateCashierToken(cashier.ID, cashier.CompanyID, cashier.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		CompanyID: cashier.CompanyID,
		CashierID: cashier.ID,
	}, nil
}

func (s *AccountsHandler) ListCashiers(ctx context.Context, companyID string) ([]CashierInfo, error) {
	var cashiers []models.Cashier
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("created_at").Find(&cashiers).Error; err != nil {
		return nil, err
	}
	infos := make([]CashierInfo, 0, len(cashiers))
	for _, c := range cashiers {
		infos = append(infos, cashierToInfo(c))
	}
	return infos, nil
}

func (s *AccountsHandler) GetCashier(ctx context.Context, companyID, cashierID string) (*CashierInfo, error) {
	cashier, err := s.findCashier(ctx, companyID, cashierID)
	if err != nil {
		return nil, err
	}
	info := cashierToInfo(*cashier)
	return &info, nil
}

// DeactivateCashier is the DELETE semantics: the row is kept for transaction
// history, only the status flips.
func (s *AccountsHandler) DeactivateCashier(ctx context.Context, companyID, cashierID string) error {
	cashier, err := s.findCashier(ctx, companyID, cashierID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(cashier).Update("status", models.StatusInactive).Error
}

func (s *AccountsHandler) findCashier(ctx context.Context, companyID, cashierID string) (*models.Cashier, error) {
	var cashier models.Cashier
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", cashierID, companyID).First(&cashier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("cashier %s", cashierID)
		}
		return nil, err
	}
	return &cashier, nil
}

func companyToInfo(c models.Company) *CompanyInfo {
	return &CompanyInfo{
		ID:               c.ID,
		Name:             c.Name,
		Username:         c.Username,
		MaxSale:          c.MaxSale,
		BonusPointsRatio: c.BonusPointsRatio,
		Description:      c.Description,
	}
}

func cashierToInfo(c models.Cashier) CashierInfo {
	status := c.Status
	if c.IsFired {
		status = models.StatusInactive
	}
	return CashierInfo{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Username:  c.Username,
		Status:    status,
	}
}
