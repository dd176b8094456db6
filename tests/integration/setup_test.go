package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lizsys/internal/handlers"
	"lizsys/internal/logger"
	"lizsys/internal/middleware"
	"lizsys/internal/models"
	"lizsys/internal/services"
	"lizsys/internal/storage"
	"lizsys/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Client{},
		&models.Asset{},
		&models.Contract{},
		&models.Payment{},
		&models.Document{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	fileStore, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	// Services
	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)
	assetService := services.NewAssetService(db)
	contractService := services.NewContractService(db)
	paymentService := services.NewPaymentService(db, contractService, fileStore)
	documentService := services.NewDocumentService(db, fileStore)
	reportService := services.NewReportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	clientHandler := handlers.NewClientHandler(clientService)
	assetHandler := handlers.NewAssetHandler(assetService, documentService)
	contractHandler := handlers.NewContractHandler(contractService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	clients := protected.Group("/clients")
	clients.POST("", clientHandler.CreateClient)
	clients.GET("", clientHandler.GetClients)
	clients.GET("/:id", clientHandler.GetClientByID)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)
	assets.POST("/:id/documents", assetHandler.UploadDocument)
	assets.GET("/:id/documents", assetHandler.GetDocuments)

	documents := protected.Group("/documents")
	documents.GET("/:id", assetHandler.DownloadDocument)
	documents.DELETE("/:id", assetHandler.DeleteDocument)

	contracts := protected.Group("/contracts")
	contracts.POST("", contractHandler.CreateContract)
	contracts.POST("/financing", contractHandler.CalculateFinancing)
	contracts.GET("", contractHandler.GetContracts)
	contracts.GET("/:id", contractHandler.GetContractByID)
	contracts.PUT("/:id", contractHandler.UpdateContract)
	contracts.POST("/:id/extend", contractHandler.ExtendContract)
	contracts.PUT("/:id/end-date", contractHandler.SetEndDate)
	contracts.PUT("/:id/due-date", contractHandler.SetDueDate)
	contracts.POST("/:id/transfer", contractHandler.TransferOwnership)
	contracts.GET("/:id/penalty", contractHandler.GetPenalty)
	contracts.DELETE("/:id", contractHandler.DeleteContract)

	payments := protected.Group("/payments")
	payments.POST("", paymentHandler.CreatePayment)
	payments.GET("/precheck", paymentHandler.PreCheckPayment)
	payments.GET("", paymentHandler.GetPayments)
	payments.GET("/:id", paymentHandler.GetPaymentByID)
	payments.PUT("/:id", paymentHandler.UpdatePayment)
	payments.DELETE("/:id", paymentHandler.DeletePayment)
	payments.GET("/:id/receipt", paymentHandler.DownloadReceipt)

	reports := protected.Group("/reports")
	reports.GET("/income", reportHandler.GetIncomeReport)
	reports.GET("/income/export", reportHandler.ExportIncomeExcel)
	reports.GET("/debt", reportHandler.GetDebtReport)
	reports.GET("/debt/export", reportHandler.ExportDebtPDF)
	reports.GET("/overdue", reportHandler.GetOverdueReport)
	reports.GET("/dashboard", reportHandler.GetDashboard)

	return &testApp{DB: db, Router: router}
}

// request makes a JSON HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// requestForm makes a multipart form request with optional file part.
func (app *testApp) requestForm(t *testing.T, method, path, token string, fields map[string]string, filePart, fileName, fileContentType, fileBody string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if filePart != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, filePart, fileName))
		header.Set("Content-Type", fileContentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte(fileBody)); err != nil {
			t.Fatalf("failed to write file body: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new operator and returns the token.
func (app *testApp) registerUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"full_name":"Test Operator"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}

// createClient creates a client and returns its ID.
func (app *testApp) createClient(t *testing.T, token, name string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":"%s@example.com","phone":"555-0100"}`, name, strings.ToLower(strings.ReplaceAll(name, " ", ".")))
	rec := app.request("POST", "/api/v1/clients", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	client := result["client"].(map[string]interface{})
	return client["id"].(float64)
}

// createContract creates a contract for the client and returns its ID.
func (app *testApp) createContract(t *testing.T, token string, clientID float64, number string, amount float64) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"number":%q,"title":"Lease %s","client_id":%d,"amount":%g,"down_payment":2000,"interest_rate":0.12,"term_months":36,"start_date":"2026-01-01"}`,
		number, number, int(clientID), amount)
	rec := app.request("POST", "/api/v1/contracts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contract failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	contract := result["contract"].(map[string]interface{})
	return contract["id"].(float64)
}
