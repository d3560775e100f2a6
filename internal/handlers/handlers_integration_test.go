package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop/internal/handlers"
	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
)

// setupApp boots a Fiber app over a fresh in-memory SQLite database.
// Each test gets its own named database so state never leaks between
// tests.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to connect to in-memory database")

	require.NoError(t, db.AutoMigrate(&models.Product{}), "failed to auto-migrate database")

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, nil)
	productHandler := handlers.NewProductHandler(productService)

	app := fiber.New()
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)
	return app
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output.
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeProduct(t *testing.T, resp *http.Response) models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

func decodeProducts(t *testing.T, resp *http.Response) []models.Product {
	t.Helper()
	var products []models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	return products
}

func candidateBody(name, description string, price float64) map[string]interface{} {
	body := map[string]interface{}{
		"name":  name,
		"price": price,
	}
	if description != "" {
		body["description"] = description
	}
	return body
}

func TestProductCRUDScenario(t *testing.T) {
	app := setupApp(t)

	// Create.
	resp := doJSON(t, app, http.MethodPost, "/api/products/", candidateBody("Widget", "A fine widget", 9.99))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeProduct(t, resp)
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.True(t, created.Price.Equal(models.NewMoney(9, 99).Decimal))
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Duplicate name is a 400, not a 409.
	resp = doJSON(t, app, http.MethodPost, "/api/products/", candidateBody("Widget", "", 5.00))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Read it back.
	resp = doJSON(t, app, http.MethodGet, "/api/products/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeProduct(t, resp)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Widget", fetched.Name)

	// Update the price only; name and description survive.
	resp = doJSON(t, app, http.MethodPut, "/api/products/1", candidateBody("Widget", "A fine widget", 12.50))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeProduct(t, resp)
	assert.Equal(t, "Widget", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "A fine widget", *updated.Description)
	assert.True(t, updated.Price.Equal(models.NewMoney(12, 50).Decimal))

	// Delete, then the record is gone.
	resp = doJSON(t, app, http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/products/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductPriceSerialization(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products/", candidateBody("Widget", "", 10.00))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// Price is a bare number with two fractional digits.
	assert.Contains(t, string(raw), `"price":10.00`)
}

func TestCreateProductValidation(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"price": 9.99}},
		{"blank name", candidateBody("   ", "", 9.99)},
		{"missing price", map[string]interface{}{"name": "Widget"}},
		{"zero price", candidateBody("Widget", "", 0)},
		{"negative price", candidateBody("Widget", "", -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/products/", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/api/products/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed ID.
	resp = doJSON(t, app, http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Update of an absent ID.
	resp = doJSON(t, app, http.MethodPut, "/api/products/42", candidateBody("Widget", "", 9.99))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func seedCatalog(t *testing.T, app *fiber.App) {
	t.Helper()
	seeds := []map[string]interface{}{
		candidateBody("Alpha", "first product", 10.00),
		candidateBody("Beta", "second product", 20.00),
		candidateBody("Gamma", "third product", 30.00),
	}
	for _, seed := range seeds {
		resp := doJSON(t, app, http.MethodPost, "/api/products/", seed)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
}

func TestProductSearchEndpoints(t *testing.T) {
	app := setupApp(t)
	seedCatalog(t, app)

	// Name substring.
	resp := doJSON(t, app, http.MethodGet, "/api/products/search/name?name=Alph", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeProducts(t, resp)
	assert.Len(t, products, 1)
	assert.Equal(t, "Alpha", products[0].Name)

	// Blank name fragment returns the full list.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/name?name=", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeProducts(t, resp), 3)

	// Description substring.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/description?description=second", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeProducts(t, resp)
	assert.Len(t, products, 1)
	assert.Equal(t, "Beta", products[0].Name)

	// Inclusive price range: a record priced exactly at both bounds is
	// included.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/price?minPrice=10&maxPrice=10", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeProducts(t, resp)
	assert.Len(t, products, 1)
	assert.Equal(t, "Alpha", products[0].Name)

	// Inverted range.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/price?minPrice=20&maxPrice=10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing range parameter.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/price?minPrice=10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Non-numeric price parameter.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search/price?minPrice=abc&maxPrice=10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Keyword search matches name or description.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search?keyword=Gam", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeProducts(t, resp)
	assert.Len(t, products, 1)
	assert.Equal(t, "Gamma", products[0].Name)

	// Empty keyword returns the same set as list-all.
	resp = doJSON(t, app, http.MethodGet, "/api/products/search?keyword=", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeProducts(t, resp), 3)
}

func TestProductCountAndExistenceEndpoints(t *testing.T) {
	app := setupApp(t)
	seedCatalog(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/products/count", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var count int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	assert.Equal(t, int64(3), count)

	resp = doJSON(t, app, http.MethodGet, "/api/products/count/price?price=20", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	assert.Equal(t, int64(2), count)

	resp = doJSON(t, app, http.MethodGet, "/api/products/count/price?price=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/products/above-average", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeProducts(t, resp)
	assert.Len(t, products, 1)
	assert.Equal(t, "Gamma", products[0].Name)

	var exists bool
	resp = doJSON(t, app, http.MethodGet, "/api/products/1/exists", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exists))
	assert.True(t, exists)

	resp = doJSON(t, app, http.MethodGet, "/api/products/99/exists", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exists))
	assert.False(t, exists)

	resp = doJSON(t, app, http.MethodGet, "/api/products/exists/name?name=Alpha", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exists))
	assert.True(t, exists)

	resp = doJSON(t, app, http.MethodGet, "/api/products/exists/name?name=Delta", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exists))
	assert.False(t, exists)
}
