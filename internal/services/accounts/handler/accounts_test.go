package handler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/accounts/handler"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/common"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/testutil"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

func setup(t *testing.T) (*handler.AccountsHandler, *gorm.DB, *utils.TokenManager) {
	t.Helper()
	db := testutil.NewDB(t)
	redisClient := testutil.NewRedis(t)
	tokens := utils.NewTokenManager("test-secret", time.Hour, redisClient)
	return handler.NewAccountsHandler(db, redisClient, tokens), db, tokens
}

func register(t *testing.T, h *handler.AccountsHandler, username string) *handler.RegisterCompanyResult {
	t.Helper()
	result, err := h.RegisterCompany(context.Background(), handler.RegisterCompanyRequest{
		Name:     "Coffee One",
		Username: username,
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("RegisterCompany: %v", err)
	}
	return result
}

// --- Companies ---

func TestRegisterCompanyDefaults(t *testing.T) {
	h, db, _ := setup(t)
	result := register(t, h, "acme")

	if result.CompanyID == "" || result.Token == "" {
		t.Fatalf("expected id and token, got %+v", result)
	}

	var company models.Company
	if err := db.First(&company, "id = ?", result.CompanyID).Error; err != nil {
		t.Fatalf("load company: %v", err)
	}
	if !company.MaxSale.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("expected default max_sale 0.50, got %s", company.MaxSale)
	}
	if !company.BonusPointsRatio.Equal(decimal.RequireFromString("0.20")) {
		t.Errorf("expected default bonus_points_ratio 0.20, got %s", company.BonusPointsRatio)
	}
	if company.Password == "secret-password" {
		t.Error("password stored in plain text")
	}
}

func TestRegisterCompanyDuplicateUsername(t *testing.T) {
	h, _, _ := setup(t)
	register(t, h, "acme")

	_, err := h.RegisterCompany(context.Background(), handler.RegisterCompanyRequest{
		Name:     "Another",
		Username: "acme",
		Password: "secret-password",
	})
	if !errors.Is(err, common.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestRegisterCompanyValidation(t *testing.T) {
	h, _, _ := setup(t)
	ctx := context.Background()

	if _, err := h.RegisterCompany(ctx, handler.RegisterCompanyRequest{
		Name: "X", Username: "x", Password: "short",
	}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected validation error for short password, got %v", err)
	}

	badRatio := decimal.RequireFromString("10.00")
	if _, err := h.RegisterCompany(ctx, handler.RegisterCompanyRequest{
		Name: "X", Username: "x", Password: "secret-password", MaxSale: &badRatio,
	}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected validation error for max_sale 10.00, got %v", err)
	}
}

func TestLoginCompany(t *testing.T) {
	h, _, tokens := setup(t)
	result := register(t, h, "acme")
	ctx := context.Background()

	login, err := h.LoginCompany(ctx, "acme", "secret-password")
	if err != nil {
		t.Fatalf("LoginCompany: %v", err)
	}
	if login.CompanyID != result.CompanyID {
		t.Errorf("expected company %s, got %s", result.CompanyID, login.CompanyID)
	}

	claims, err := tokens.ParseToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserType != utils.UserTypeCompany {
		t.Errorf("expected company token, got %q", claims.UserType)
	}

	if _, err := h.LoginCompany(ctx, "acme", "wrong-password"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected validation error for wrong password, got %v", err)
	}
}

func TestUpdateCompany(t *testing.T) {
	h, _, _ := setup(t)
	result := register(t, h, "acme")
	ctx := context.Background()

	newName := "Coffee Two"
	newRatio := decimal.RequireFromString("0.35")
	info, err := h.UpdateCompany(ctx, result.CompanyID, handler.UpdateCompanyRequest{
		Name:             &newName,
		BonusPointsRatio: &newRatio,
	})
	if err != nil {
		t.Fatalf("UpdateCompany: %v", err)
	}
	if info.Name != "Coffee Two" {
		t.Errorf("expected updated name, got %q", info.Name)
	}
	if !info.BonusPointsRatio.Equal(newRatio) {
		t.Errorf("expected ratio 0.35, got %s", info.BonusPointsRatio)
	}

	// The cache was invalidated, a fresh read sees the new values.
	fresh, err := h.GetCompany(ctx, result.CompanyID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if fresh.Name != "Coffee Two" {
		t.Errorf("expected cached read to see update, got %q", fresh.Name)
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	h, _, _ := setup(t)

	if _, err := h.GetCompany(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// --- Cashiers ---

func TestCreateAndLoginCashier(t *testing.T) {
	h, _, tokens := setup(t)
	company := register(t, h, "acme")
	ctx := context.Background()

	created, err := h.CreateCashier(ctx, handler.CreateCashierRequest{
		CompanyID: company.CompanyID,
		Username:  "till-1",
		Password:  "secret-password",
	})
	if err != nil {
		t.Fatalf("CreateCashier: %v", err)
	}
	if created.Token == "" {
		t.Error("expected a cashier token on creation")
	}

	login, err := h.LoginCashier(ctx, "till-1", "secret-password")
	if err != nil {
		t.Fatalf("LoginCashier: %v", err)
	}
	claims, err := tokens.ParseToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserType != utils.UserTypeCashier {
		t.Errorf("expected cashier token, got %q", claims.UserType)
	}
	if claims.CashierID != created.CashierID || claims.CompanyID != company.CompanyID {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestDeactivatedCashierCannotLogin(t *testing.T) {
	h, _, _ := setup(t)
	company := register(t, h, "acme")
	ctx := context.Background()

	created, err := h.CreateCashier(ctx, handler.CreateCashierRequest{
		CompanyID: company.CompanyID,
		Username:  "till-1",
		Password:  "secret-password",
	})
	if err != nil {
		t.Fatalf("CreateCashier: %v", err)
	}

	if err := h.DeactivateCashier(ctx, company.CompanyID, created.CashierID); err != nil {
		t.Fatalf("DeactivateCashier: %v", err)
	}

	info, err := h.GetCashier(ctx, company.CompanyID, created.CashierID)
	if err != nil {
		t.Fatalf("GetCashier after deactivate: %v", err)
	}
	if info.Status != models.StatusInactive {
		t.Errorf("expected INACTIVE, got %q", info.Status)
	}

	if _, err := h.LoginCashier(ctx, "till-1", "secret-password"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected login rejection, got %v", err)
	}
}

func TestListCashiersScopedToCompany(t *testing.T) {
	h, _, _ := setup(t)
	first := register(t, h, "acme")
	second := register(t, h, "globex")
	ctx := context.Background()

	if _, err := h.CreateCashier(ctx, handler.CreateCashierRequest{
		CompanyID: first.CompanyID, Username: "till-1", Password: "secret-password",
	}); err != nil {
		t.Fatalf("CreateCashier: %v", err)
	}

	mine, err := h.ListCashiers(ctx, first.CompanyID)
	if err != nil {
		t.Fatalf("ListCashiers: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 cashier, got %d", len(mine))
	}

	theirs, err := h.ListCashiers(ctx, second.CompanyID)
	if err != nil {
		t.Fatalf("ListCashiers: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("expected no cashiers for the other company, got %d", len(theirs))
	}
}
