package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database/models"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/handlers"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/middleware"
	accounts "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/accounts/handler"
	catalog "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/catalog/handler"
	loyalty "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/loyalty/handler"
	sales "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/sales/handler"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/testutil"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

func newServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	redisClient := testutil.NewRedis(t)
	tokens := utils.NewTokenManager("test-secret", time.Hour, redisClient)

	accountsHandler := accounts.NewAccountsHandler(db, redisClient, tokens)
	catalogHandler := catalog.NewCatalogHandler(db, redisClient)
	loyaltyHandler := loyalty.NewLoyaltyHandler(db, redisClient)
	salesHandler := sales.NewSalesHandler(db, redisClient)

	companyHandler := handlers.NewCompanyHTTPHandler(accountsHandler, salesHandler, tokens)
	cashierHandler := handlers.NewCashierHTTPHandler(accountsHandler, loyaltyHandler, salesHandler, tokens)
	clientHandler := handlers.NewClientHTTPHandler(loyaltyHandler, salesHandler)
	itemHandler := handlers.NewItemHTTPHandler(catalogHandler)

	r := gin.New()

	public := r.Group("/api")
	{
		public.POST("/company", companyHandler.Register)
		public.POST("/company/login", companyHandler.Login)
		public.POST("/cashier/login", cashierHandler.Login)
		public.POST("/client/register", clientHandler.Register)
		public.GET("/client/:client_id", clientHandler.ListLoyalty)
		public.POST("/client/:client_id/company/:company_id/subscribe", clientHandler.Subscribe)
		public.DELETE("/client/:client_id/company/:company_id/unsubscribe", clientHandler.Unsubscribe)
		public.GET("/company/:company_id/item", itemHandler.List)
	}

	company := r.Group("/api")
	company.Use(middleware.JWTAuth(tokens), middleware.CompanyOnly())
	{
		company.GET("/company/:company_id", companyHandler.GetCompany)
		company.POST("/company/:company_id/cashier", companyHandler.CreateCashier)
		company.POST("/company/:company_id/item", itemHandler.Create)
	}

	cashier := r.Group("/api/cashier")
	cashier.Use(middleware.JWTAuth(tokens), middleware.CashierOnly())
	{
		cashier.POST("/pre-sale", cashierHandler.PreSale)
		cashier.POST("/sell", cashierHandler.Sell)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, db
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerCompany(t *testing.T, srv *httptest.Server, username string) (companyID, token string) {
	t.Helper()
	resp, body := do(t, "POST", srv.URL+"/api/company", "", map[string]any{
		"name":     "Coffee One",
		"username": username,
		"password": "secret-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register company: status %d body %v", resp.StatusCode, body)
	}
	return body["company_id"].(string), body["token"].(string)
}

func registerCashier(t *testing.T, srv *httptest.Server, companyID, companyToken string) string {
	t.Helper()
	resp, body := do(t, "POST", srv.URL+"/api/company/"+companyID+"/cashier", companyToken, map[string]any{
		"username": "till-1",
		"password": "secret-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create cashier: status %d body %v", resp.StatusCode, body)
	}
	return body["token"].(string)
}

// --- Auth enforcement ---

func TestCompanyRoutesRequireToken(t *testing.T) {
	srv, _ := newServer(t)
	companyID, _ := registerCompany(t, srv, "acme")

	resp, _ := do(t, "GET", srv.URL+"/api/company/"+companyID, "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestCompanyCannotReadAnotherCompany(t *testing.T) {
	srv, _ := newServer(t)
	_, firstToken := registerCompany(t, srv, "acme")
	otherID, _ := registerCompany(t, srv, "globex")

	resp, _ := do(t, "GET", srv.URL+"/api/company/"+otherID, firstToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for foreign company, got %d", resp.StatusCode)
	}
}

func TestCompanyTokenCannotSell(t *testing.T) {
	srv, _ := newServer(t)
	_, token := registerCompany(t, srv, "acme")

	resp, _ := do(t, "POST", srv.URL+"/api/cashier/sell", token, map[string]any{})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for company token on cashier route, got %d", resp.StatusCode)
	}
}

// --- End to end flow ---

func TestPreSaleAndSellFlow(t *testing.T) {
	srv, _ := newServer(t)
	companyID, companyToken := registerCompany(t, srv, "acme")
	cashierToken := registerCashier(t, srv, companyID, companyToken)

	resp, item := do(t, "POST", srv.URL+"/api/company/"+companyID+"/item", companyToken, map[string]any{
		"name":  "Latte",
		"price": "5.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create item: status %d body %v", resp.StatusCode, item)
	}
	itemID := item["id"].(string)

	resp, _ = do(t, "POST", srv.URL+"/api/client/register", "", map[string]any{
		"id":         77,
		"first_name": "Ann",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register client: status %d", resp.StatusCode)
	}

	// Fresh client: no points, full price, preview of the earn.
	resp, preview := do(t, "POST", srv.URL+"/api/cashier/pre-sale", cashierToken, map[string]any{
		"client_id":   77,
		"total_price": "10.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pre-sale: status %d body %v", resp.StatusCode, preview)
	}
	if preview["client_balance"].(float64) != 0 {
		t.Errorf("expected zero balance, got %v", preview["client_balance"])
	}
	if preview["price_with_sale"].(string) != "10" {
		t.Errorf("expected full price, got %v", preview["price_with_sale"])
	}

	resp, body := do(t, "POST", srv.URL+"/api/cashier/sell", cashierToken, map[string]any{
		"client_id":             77,
		"total_price":           "10.00",
		"total_price_with_sale": "10.00",
		"points_used":           0,
		"items": []map[string]any{
			{"item_id": itemID, "quantity": 2, "sell_price": "5.00"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sell: status %d body %v", resp.StatusCode, body)
	}

	// 10.00 * 0.20 default ratio = 2 points credited.
	resp, preview = do(t, "POST", srv.URL+"/api/cashier/pre-sale", cashierToken, map[string]any{
		"client_id":   77,
		"total_price": "10.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second pre-sale: status %d", resp.StatusCode)
	}
	if preview["client_balance"].(float64) != 2 {
		t.Errorf("expected balance 2 after sale, got %v", preview["client_balance"])
	}
}

func TestSellPayloadValidation(t *testing.T) {
	srv, db := newServer(t)
	companyID, companyToken := registerCompany(t, srv, "acme")
	cashierToken := registerCashier(t, srv, companyID, companyToken)

	resp, item := do(t, "POST", srv.URL+"/api/company/"+companyID+"/item", companyToken, map[string]any{
		"name":  "Latte",
		"price": "5.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create item: status %d body %v", resp.StatusCode, item)
	}
	itemID := item["id"].(string)

	// Omitting total_price_with_sale is a 400, not a zero-priced sale.
	resp, body := do(t, "POST", srv.URL+"/api/cashier/sell", cashierToken, map[string]any{
		"total_price": "10.00",
		"points_used": 0,
		"items": []map[string]any{
			{"item_id": itemID, "quantity": 2, "sell_price": "5.00"},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without total_price_with_sale, got %d body %v", resp.StatusCode, body)
	}

	// An item entry without item_id must not reach the committer.
	resp, body = do(t, "POST", srv.URL+"/api/cashier/sell", cashierToken, map[string]any{
		"total_price":           "10.00",
		"total_price_with_sale": "10.00",
		"points_used":           0,
		"items": []map[string]any{
			{"quantity": 2, "sell_price": "5.00"},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for item without item_id, got %d body %v", resp.StatusCode, body)
	}

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no transactions persisted, got %d", count)
	}
}

func TestSellFullyDiscountedPriceAccepted(t *testing.T) {
	srv, db := newServer(t)
	companyID, companyToken := registerCompany(t, srv, "acme")
	cashierToken := registerCashier(t, srv, companyID, companyToken)

	resp, item := do(t, "POST", srv.URL+"/api/company/"+companyID+"/item", companyToken, map[string]any{
		"name":  "Latte",
		"price": "5.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create item: status %d body %v", resp.StatusCode, item)
	}

	resp, _ = do(t, "POST", srv.URL+"/api/client/register", "", map[string]any{"id": 9, "first_name": "Eve"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register client: status %d", resp.StatusCode)
	}
	loyalty := models.ClientLoyalty{ClientID: 9, CompanyID: companyID, Points: 10, Status: models.StatusActive}
	if err := db.Create(&loyalty).Error; err != nil {
		t.Fatalf("seed loyalty: %v", err)
	}

	// Points cover the whole price: an explicit zero must pass binding.
	resp, body := do(t, "POST", srv.URL+"/api/cashier/sell", cashierToken, map[string]any{
		"client_id":             9,
		"total_price":           "10.00",
		"total_price_with_sale": "0",
		"points_used":           10,
		"items": []map[string]any{
			{"item_id": item["id"].(string), "quantity": 2, "sell_price": "5.00"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sell: status %d body %v", resp.StatusCode, body)
	}

	if err := db.First(&loyalty, loyalty.ID).Error; err != nil {
		t.Fatalf("load loyalty: %v", err)
	}
	if loyalty.Points != 0 {
		t.Errorf("expected balance 0 after full redemption, got %d", loyalty.Points)
	}
}

func TestSubscribeStatusCodes(t *testing.T) {
	srv, _ := newServer(t)
	companyID, _ := registerCompany(t, srv, "acme")

	resp, _ := do(t, "POST", srv.URL+"/api/client/register", "", map[string]any{"id": 5, "first_name": "Bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register client: status %d", resp.StatusCode)
	}

	subscribeURL := srv.URL + "/api/client/5/company/" + companyID + "/subscribe"
	resp, _ = do(t, "POST", subscribeURL, "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201 on subscribe, got %d", resp.StatusCode)
	}

	resp, _ = do(t, "POST", subscribeURL, "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on double subscribe, got %d", resp.StatusCode)
	}

	unsubscribeURL := srv.URL + "/api/client/5/company/" + companyID + "/unsubscribe"
	resp, _ = do(t, "DELETE", unsubscribeURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on unsubscribe, got %d", resp.StatusCode)
	}

	resp, _ = do(t, "DELETE", unsubscribeURL, "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on repeated unsubscribe, got %d", resp.StatusCode)
	}
}
