package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/app"
	"fintrack/internal/config"
	"fintrack/internal/testutil"
)

// testApp holds the full application stack for flow tests.
type testApp struct {
	router *gin.Engine
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := &config.Config{
		DefaultCurrency:         "NOK",
		RenewalLookaheadDays:    7,
		ProjectionReturnRate:    0.07,
		ProjectionInflationRate: 0.025,
		ProjectionCompounding:   "monthly",
	}
	return &testApp{router: setupRouter(app.NewServices(db, cfg))}
}

func (a *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) mustRequest(t *testing.T, method, path, body string, want int) map[string]interface{} {
	t.Helper()
	rec := a.request(method, path, body)
	if rec.Code != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, rec.Code, rec.Body.String())
	}
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func (a *testApp) createCategory(t *testing.T, name string) string {
	t.Helper()
	result := a.mustRequest(t, http.MethodPost, "/api/v1/categories",
		fmt.Sprintf(`{"name":%q,"type":"expense"}`, name), http.StatusCreated)
	return result["category"].(map[string]interface{})["id"].(string)
}

func TestBudgetFlow_CreateAndCheckProgress(t *testing.T) {
	a := setupApp(t)
	categoryID := a.createCategory(t, "Groceries")

	// Step 1: a monthly budget of 200 starting this month
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	result := a.mustRequest(t, http.MethodPost, "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"name":"Grocery Budget","amount":200,"start_date":%q}`,
			categoryID, start.Format(time.RFC3339)), http.StatusCreated)
	budgetID := result["budget"].(map[string]interface{})["id"].(string)

	// Step 2: nothing spent yet
	progress := a.mustRequest(t, http.MethodGet, "/api/v1/budgets/"+budgetID+"/progress", "", http.StatusOK)["progress"].(map[string]interface{})
	if progress["current_spent"].(float64) != 0 {
		t.Errorf("expected 0 spent, got %v", progress["current_spent"])
	}

	// Step 3: spend 150 in the category
	a.mustRequest(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"date":%q,"description":"REMA 1000","amount":150,"type":"expense","category_id":%q}`,
			now.Format(time.RFC3339), categoryID), http.StatusCreated)

	progress = a.mustRequest(t, http.MethodGet, "/api/v1/budgets/"+budgetID+"/progress", "", http.StatusOK)["progress"].(map[string]interface{})
	if progress["current_spent"].(float64) != 150 {
		t.Errorf("expected 150 spent, got %v", progress["current_spent"])
	}
	if progress["remaining_amount"].(float64) != 50 {
		t.Errorf("expected 50 remaining, got %v", progress["remaining_amount"])
	}
	if progress["percentage_spent"].(float64) != 75 {
		t.Errorf("expected 75%%, got %v", progress["percentage_spent"])
	}

	// Step 4: crossing 50% raised a threshold alert
	alerts := a.mustRequest(t, http.MethodGet, "/api/v1/alerts?budget_id="+budgetID, "", http.StatusOK)["alerts"].([]interface{})
	if len(alerts) == 0 {
		t.Error("expected at least one alert after crossing 50%")
	}
}

func TestSubscriptionFlow_DetectConfirmReconcile(t *testing.T) {
	a := setupApp(t)
	categoryID := a.createCategory(t, "Streaming")

	// Step 1: four monthly charges, the latest a month ago
	now := time.Now()
	rows := make([]string, 0, 4)
	for i := 4; i >= 1; i-- {
		rows = append(rows, fmt.Sprintf(`{"date":%q,"description":"NETFLIX.COM","amount":-149,"type":"expense"}`,
			now.AddDate(0, -i, 0).Format(time.RFC3339)))
	}
	imported := a.mustRequest(t, http.MethodPost, "/api/v1/transactions/import",
		`{"transactions":[`+strings.Join(rows, ",")+`]}`, http.StatusCreated)
	if imported["imported"].(float64) != 4 {
		t.Fatalf("expected 4 imported, got %v", imported["imported"])
	}

	// Step 2: detection proposes one monthly candidate
	rec := a.request(http.MethodGet, "/api/v1/subscriptions/detect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var detected struct {
		Candidates []json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detected); err != nil {
		t.Fatalf("failed to parse candidates: %v", err)
	}
	if len(detected.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %s", len(detected.Candidates), rec.Body.String())
	}

	// Step 3: confirm it into the streaming category
	result := a.mustRequest(t, http.MethodPost, "/api/v1/subscriptions/confirm",
		fmt.Sprintf(`{"candidate":%s,"category_id":%q}`, detected.Candidates[0], categoryID), http.StatusCreated)
	sub := result["subscription"].(map[string]interface{})
	subID := sub["id"].(string)
	if sub["billing_frequency"] != "monthly" {
		t.Errorf("expected monthly, got %v", sub["billing_frequency"])
	}

	linked := a.mustRequest(t, http.MethodGet, "/api/v1/subscriptions/"+subID+"/transactions", "", http.StatusOK)["transactions"].([]interface{})
	if len(linked) != 4 {
		t.Errorf("expected 4 linked transactions, got %d", len(linked))
	}

	// Step 4: detection no longer reports the confirmed charges
	rec = a.request(http.MethodGet, "/api/v1/subscriptions/detect", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &detected); err != nil {
		t.Fatalf("failed to parse candidates: %v", err)
	}
	if len(detected.Candidates) != 0 {
		t.Errorf("expected no candidates after confirming, got %d", len(detected.Candidates))
	}

	// Step 5: reconcile processes the active subscription
	reconciled := a.mustRequest(t, http.MethodPost, "/api/v1/subscriptions/reconcile", "", http.StatusOK)["result"].(map[string]interface{})
	if reconciled["processed"].(float64) != 1 {
		t.Errorf("expected 1 processed, got %v", reconciled["processed"])
	}

	// Step 6: the monthly cost reflects the subscription
	cost := a.mustRequest(t, http.MethodGet, "/api/v1/subscriptions/monthly-cost", "", http.StatusOK)
	if cost["monthly_cost"].(float64) != 149 {
		t.Errorf("expected 149, got %v", cost["monthly_cost"])
	}
}
