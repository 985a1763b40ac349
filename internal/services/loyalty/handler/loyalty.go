package handler

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/common"
)

type LoyaltyHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewLoyaltyHandler(db *gorm.DB, redisClient *redis.Client) *LoyaltyHandler {
	return &LoyaltyHandler{
		db:    db,
		redis: redisClient,
	}
}

type RegisterClientRequest struct {
	ID        int64
	FirstName string
}

type ClientInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

type LoyaltyInfo struct {
	ID          int64  `json:"id"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Points      int64  `json:"points"`
	Status      string `json:"status"`
}

type CompanyLoyalty struct {
	LoyaltyID  *int64
	Company    models.Company
	Points     int64
	Subscribed bool
}

type PreSaleRequest struct {
	ClientID   int64
	CompanyID  string
	TotalPrice decimal.Decimal
}

// PreSaleResult previews the discount; nothing is committed beyond the lazy
// zero-balance ledger row.
type PreSaleResult struct {
	ClientBalance    int64
	PriceWithSale    decimal.Decimal
	PointsUsed       decimal.Decimal
	AfterSaleBalance decimal.Decimal
	PointsEarn       decimal.Decimal
}

// RegisterClient is an idempotent upsert: registering the same id twice
// keeps the first row.
func (s *LoyaltyHandler) RegisterClient(ctx context.Context, req RegisterClientRequest) (*ClientInfo, error) {
	if req.ID <= 0 {
		return nil, common.Validationf("client id must be positive")
	}

	client := models.Client{ID: req.ID, FirstName: req.FirstName}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&client).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&client, req.ID).Error; err != nil {
		return nil, err
	}

	return &ClientInfo{ID: client.ID, FirstName: client.FirstName}, nil
}

// GetOrCreateLoyalty is the explicit ledger upsert shared by the pre-sale
// and subscribe flows. A missing row is created with zero points and an
// ACTIVE status; an existing row is returned untouched.
func (s *LoyaltyHandler) GetOrCreateLoyalty(ctx context.Context, clientID int64, companyID string) (*models.ClientLoyalty, error) {
	var loyalty models.ClientLoyalty
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND company_id = ?", clientID, companyID).
		Attrs(models.ClientLoyalty{Points: 0, Status: models.StatusActive}).
		FirstOrCreate(&loyalty).Error
	if err != nil {
		return nil, err
	}
	return &loyalty, nil
}

func (s *LoyaltyHandler) ListLoyalty(ctx context.Context, clientID int64, companyID *string) ([]LoyaltyInfo, error) {
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Company").
		Where("client_id = ? AND status = ?", clientID, models.StatusActive)
	if companyID != nil {
		if err := s.requireCompany(ctx, *companyID); err != nil {
			return nil, err
		}
		query = query.Where("company_id = ?", *companyID)
	}

	var loyalties []models.ClientLoyalty
	if err := query.Find(&loyalties).Error; err != nil {
		return nil, err
	}

	infos := make([]LoyaltyInfo, 0, len(loyalties))
	for _, l := range loyalties {
		info := LoyaltyInfo{
			ID:        l.ID,
			CompanyID: l.CompanyID,
			Points:    l.Points,
			Status:    l.Status,
		}
		if l.Company != nil {
			info.CompanyName = l.Company.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListCompaniesWithLoyalty joins every registered company against the
// client's ledger rows; companies the client never touched come back with
// zero points and is_subscribed=false.
func (s *LoyaltyHandler) ListCompaniesWithLoyalty(ctx context.Context, clientID int64) ([]CompanyLoyalty, error) {
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	var companies []models.Company
	if err := s.db.WithContext(ctx).Order("created_at").Find(&companies).Error; err != nil {
		return nil, err
	}

	var loyalties []models.ClientLoyalty
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Find(&loyalties).Error; err != nil {
		return nil, err
	}

	byCompany := make(map[string]models.ClientLoyalty, len(loyalties))
	for _, l := range loyalties {
		byCompany[l.CompanyID] = l
	}

	result := make([]CompanyLoyalty, 0, len(companies))
	for _, company := range companies {
		entry := CompanyLoyalty{Company: company}
		if l, ok := byCompany[company.ID]; ok {
			id := l.ID
			entry.LoyaltyID = &id
			entry.Points = l.Points
			entry.Subscribed = l.Status == models.StatusActive
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *LoyaltyHandler) Subscribe(ctx context.Context, clientID int64, companyID string) error {
	if err := s.requireClient(ctx, clientID); err != nil {
		return err
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return err
	}

	var loyalty models.ClientLoyalty
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND company_id = ?", clientID, companyID).
		First(&loyalty).Error
	if err == nil {
		if loyalty.Status == models.StatusActive {
			return common.Validationf("already subscribed to this company")
		}
		return s.db.WithContext(ctx).Model(&loyalty).Update("status", models.StatusActive).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	loyalty = models.ClientLoyalty{
		ClientID:  clientID,
		CompanyID: companyID,
		Points:    0,
		Status:    models.StatusActive,
	}
	return s.db.WithContext(ctx).Create(&loyalty).Error
}

func (s *LoyaltyHandler) Unsubscribe(ctx context.Context, clientID int64, companyID string) error {
	if err := s.requireClient(ctx, clientID); err != nil {
		return err
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return err
	}

	var loyalty models.ClientLoyalty
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND company_id = ?", clientID, companyID).
		First(&loyalty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Validationf("not subscribed to this company")
		}
		return err
	}
	if loyalty.Status == models.StatusInactive {
		return common.Validationf("not subscribed to this company")
	}

	return s.db.WithContext(ctx).Model(&loyalty).Update("status", models.StatusInactive).Error
}

// PreSale computes the discount preview. Redeemable points are capped by
// both the company's max_sale policy and the client's balance; the balance
// itself is not touched.
func (s *LoyaltyHandler) PreSale(ctx context.Context, req PreSaleRequest) (*PreSaleResult, error) {
	if !common.ValidPrice(req.TotalPrice) {
		return nil, common.Validationf("total_price must be a positive two-decimal value")
	}

	if err := s.requireClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", req.CompanyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("company %s", req.CompanyID)
		}
		return nil, err
	}

	loyalty, err := s.GetOrCreateLoyalty(ctx, req.ClientID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	balance := decimal.NewFromInt(loyalty.Points)
	pointsUsed := decimal.Min(req.TotalPrice.Mul(company.MaxSale), balance)

	return &PreSaleResult{
		ClientBalance:    loyalty.Points,
		PriceWithSale:    req.TotalPrice.Sub(pointsUsed),
		PointsUsed:       pointsUsed,
		AfterSaleBalance: balance.Sub(pointsUsed),
		PointsEarn:       company.BonusPointsRatio.Mul(req.TotalPrice),
	}, nil
}

func (s *LoyaltyHandler) requireClient(ctx context.Context, clientID int64) error {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFoundf("client %d", clientID)
		}
		return err
	}
	return nil
}

func (s *LoyaltyHandler) requireCompany(ctx context.Context, companyID string) error {
	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFoundf("company %s", companyID)
		}
		return err
	}
	return nil
}
