package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/common"
)

const (
	EventSaleCompleted = "sale.completed"

	saleEventChannel = "sales:events"
)

type SalesHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

type SaleEvent struct {
	EventType     string    `json:"event_type"`
	TransactionID int64     `json:"transaction_id"`
	CompanyID     string    `json:"company_id"`
	CashierID     string    `json:"cashier_id"`
	ClientID      *int64    `json:"client_id,omitempty"`
	Price         string    `json:"price"`
	PointsUsed    int64     `json:"points_used"`
	PointsEarned  int64     `json:"points_earned"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewSalesHandler(db *gorm.DB, redisClient *redis.Client) *SalesHandler {
	return &SalesHandler{
		db:    db,
		redis: redisClient,
	}
}

type SellItem struct {
	ItemID    string
	Quantity  int32
	SellPrice decimal.Decimal
}

type SellRequest struct {
	CompanyID          string
	CashierID          string
	Items              []SellItem
	TotalPriceWithSale decimal.Decimal
	TotalPrice         decimal.Decimal
	PointsUsed         int64
	ClientID           *int64
}

func (r SellRequest) validate() error {
	if r.CashierID == "" {
		return common.ErrPermissionDenied
	}
	if len(r.Items) == 0 {
		return common.Validationf("sale must have at least one item")
	}
	if !common.ValidPrice(r.TotalPrice) {
		return common.Validationf("total_price must be a positive two-decimal value")
	}
	if r.TotalPriceWithSale.IsNegative() || !common.TwoDecimalPlaces(r.TotalPriceWithSale) {
		return common.Validationf("total_price_with_sale must be a non-negative two-decimal value")
	}
	if r.PointsUsed < 0 {
		return common.Validationf("points_used must be non-negative")
	}
	for _, item := range r.Items {
		if item.Quantity < 1 {
			return common.Validationf("item quantity must be at least 1")
		}
		if item.SellPrice.IsNegative() || !common.TwoDecimalPlaces(item.SellPrice) {
			return common.Validationf("sell_price must be a non-negative two-decimal value")
		}
	}
	return nil
}

// Sell finalizes a sale in one database transaction: the transaction row,
// the ledger adjustment and every line item either all commit or none do.
func (s *SalesHandler) Sell(ctx context.Context, req SellRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", req.CompanyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFoundf("company %s", req.CompanyID)
		}
		return err
	}

	if req.ClientID != nil {
		var client models.Client
		if err := s.db.WithContext(ctx).First(&client, *req.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundf("client %d", *req.ClientID)
			}
			return err
		}
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pointsEarned int64
	if req.ClientID != nil {
		pointsEarned = req.TotalPriceWithSale.Mul(company.BonusPointsRatio).IntPart()
	}

	trx := models.Transaction{
		ClientID:      req.ClientID,
		CompanyID:     req.CompanyID,
		CashierID:     req.CashierID,
		Price:         req.TotalPrice,
		PriceWithSale: req.TotalPriceWithSale,
		PointsUsed:    req.PointsUsed,
		PointsEarned:  pointsEarned,
	}
	if err := tx.Create(&trx).Error; err != nil {
		tx.Rollback()
		return err
	}

	if req.ClientID != nil {
		var loyalty models.ClientLoyalty
		if err := tx.Where("client_id = ? AND company_id = ?", *req.ClientID, req.CompanyID).
			First(&loyalty).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundf("loyalty for client %d", *req.ClientID)
			}
			return err
		}

		// Earned points are credited only when no points were redeemed;
		// redeemed points always burn. Applied as one expression update so
		// concurrent sales against the same row cannot lose an update.
		delta := -req.PointsUsed
		if req.PointsUsed == 0 {
			delta += pointsEarned
		}
		if err := tx.Model(&models.ClientLoyalty{}).
			Where("id = ?", loyalty.ID).
			UpdateColumn("points", gorm.Expr("points + ?", delta)).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	trxItems := make([]models.TransactionItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		var item models.Item
		if err := tx.Where("id = ?", reqItem.ItemID).First(&item).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundf("item %s", reqItem.ItemID)
			}
			return err
		}
		trxItems = append(trxItems, models.TransactionItem{
			TransactionID: trx.ID,
			ItemID:        item.ID,
			Quantity:      reqItem.Quantity,
			SellPrice:     reqItem.SellPrice,
			OriginPrice:   item.Price,
		})
	}

	if err := tx.Create(&trxItems).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return common.Conflictf("commit failed: %v", err)
	}

	s.publishSaleEvent(ctx, SaleEvent{
		EventType:     EventSaleCompleted,
		TransactionID: trx.ID,
		CompanyID:     req.CompanyID,
		CashierID:     req.CashierID,
		ClientID:      req.ClientID,
		Price:         req.TotalPrice.StringFixed(2),
		PointsUsed:    req.PointsUsed,
		PointsEarned:  pointsEarned,
		Timestamp:     time.Now(),
	})
	return nil
}

func (s *SalesHandler) publishSaleEvent(ctx context.Context, event SaleEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = s.redis.Publish(ctx, saleEventChannel, payload).Err()
}

// --- Reporting ---

type DailyMoneyStat struct {
	Day               string          `json:"day"`
	TotalPointsEarned int64           `json:"total_points_earned"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

type HourlyMoneyStat struct {
	Hour              time.Time       `json:"hour"`
	TotalPointsEarned int64           `json:"total_points_earned"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

type CashierDailyStats struct {
	CashierName string           `json:"cashier_name"`
	Result      []DailyMoneyStat `json:"result"`
}

type ClientDailyStat struct {
	Date              string `json:"date"`
	TransactionsCount int64  `json:"transactions_count"`
	Loyal             int64  `json:"loyal"`
	NoLoyal           int64  `json:"no_loyal"`
}

type ClientStats struct {
	CompanyID            string            `json:"company_id"`
	AllTransactionsCount int64             `json:"all_transactions_count"`
	AllLoyal             int64             `json:"all_loyal"`
	AllNoLoyal           int64             `json:"all_no_loyal"`
	Result               []ClientDailyStat `json:"result"`
}

const dayFormat = "2006-01-02"

func (s *SalesHandler) transactionsInRange(ctx context.Context, companyID string, from, to time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND created_at >= ? AND created_at < ?",
			companyID, from, to.AddDate(0, 0, 1)).
		Find(&transactions).Error
	return transactions, err
}

// DailyMoneyStats sums price and earned points per day, newest day first.
func (s *SalesHandler) DailyMoneyStats(ctx context.Context, companyID string, from, to time.Time) ([]DailyMoneyStat, error) {
	transactions, err := s.transactionsInRange(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DailyMoneyStat{}
	for _, trx := range transactions {
		day := trx.CreatedAt.Format(dayFormat)
		stat, ok := byDay[day]
		if !ok {
			stat = &DailyMoneyStat{Day: day}
			byDay[day] = stat
		}
		stat.TotalPointsEarned += trx.PointsEarned
		stat.TotalPrice = stat.TotalPrice.Add(trx.Price)
	}

	stats := make([]DailyMoneyStat, 0, len(byDay))
	for _, stat := range byDay {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Day > stats[j].Day })
	return stats, nil
}

// HourlyMoneyStats returns all 24 buckets of the given day, zero-filled.
func (s *SalesHandler) HourlyMoneyStats(ctx context.Context, companyID string, date time.Time) ([]HourlyMoneyStat, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	transactions, err := s.transactionsInRange(ctx, companyID, day, day)
	if err != nil {
		return nil, err
	}

	stats := make([]HourlyMoneyStat, 24)
	for i := range stats {
		stats[i].Hour = day.Add(time.Duration(i) * time.Hour)
		stats[i].TotalPrice = decimal.Zero
	}
	for _, trx := range transactions {
		h := trx.CreatedAt.UTC().Hour()
		stats[h].TotalPointsEarned += trx.PointsEarned
		stats[h].TotalPrice = stats[h].TotalPrice.Add(trx.Price)
	}
	return stats, nil
}

// CashierDailyMoneyStats groups the daily sums per cashier username.
func (s *SalesHandler) CashierDailyMoneyStats(ctx context.Context, companyID string, from, to time.Time) ([]CashierDailyStats, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Cashier").
		Where("company_id = ? AND created_at >= ? AND created_at < ?",
			companyID, from, to.AddDate(0, 0, 1)).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	type bucket struct {
		name string
		days map[string]*DailyMoneyStat
	}
	byCashier := map[string]*bucket{}
	var order []string
	for _, trx := range transactions {
		b, ok := byCashier[trx.CashierID]
		if !ok {
			name := trx.CashierID
			if trx.Cashier != nil {
				name = trx.Cashier.Username
			}
			b = &bucket{name: name, days: map[string]*DailyMoneyStat{}}
			byCashier[trx.CashierID] = b
			order = append(order, trx.CashierID)
		}
		day := trx.CreatedAt.Format(dayFormat)
		stat, ok := b.days[day]
		if !ok {
			stat = &DailyMoneyStat{Day: day}
			b.days[day] = stat
		}
		stat.TotalPointsEarned += trx.PointsEarned
		stat.TotalPrice = stat.TotalPrice.Add(trx.Price)
	}

	result := make([]CashierDailyStats, 0, len(byCashier))
	for _, id := range order {
		b := byCashier[id]
		days := make([]DailyMoneyStat, 0, len(b.days))
		for _, stat := range b.days {
			days = append(days, *stat)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Day > days[j].Day })
		result = append(result, CashierDailyStats{CashierName: b.name, Result: days})
	}
	return result, nil
}

// ClientLoyalStats counts transactions with and without an attached client.
func (s *SalesHandler) ClientLoyalStats(ctx context.Context, companyID string, from, to time.Time) (*ClientStats, error) {
	transactions, err := s.transactionsInRange(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &ClientStats{CompanyID: companyID, Result: []ClientDailyStat{}}
	byDay := map[string]*ClientDailyStat{}
	for _, trx := range transactions {
		stats.AllTransactionsCount++
		day := trx.CreatedAt.Format(dayFormat)
		stat, ok := byDay[day]
		if !ok {
			stat = &ClientDailyStat{Date: day}
			byDay[day] = stat
		}
		stat.TransactionsCount++
		if trx.ClientID != nil {
			stats.AllLoyal++
			stat.Loyal++
		} else {
			stats.AllNoLoyal++
			stat.NoLoyal++
		}
	}

	for _, stat := range byDay {
		stats.Result = append(stats.Result, *stat)
	}
	sort.Slice(stats.Result, func(i, j int) bool { return stats.Result[i].Date > stats.Result[j].Date })
	return stats, nil
}
