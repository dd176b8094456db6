package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"lizsys/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		FullName: "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestClient creates a client with a unique name and email.
func CreateTestClient(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()

	n := nextID()
	client := &models.Client{
		Name:    fmt.Sprintf("Client %d", n),
		Email:   fmt.Sprintf("client%d@test.com", n),
		Phone:   "555-0100",
		Address: "1 Test Street",
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return client
}

// CreateTestAsset creates an available asset assigned to the given client.
func CreateTestAsset(t *testing.T, db *gorm.DB, clientID uint) *models.Asset {
	t.Helper()

	n := nextID()
	asset := &models.Asset{
		Name:     fmt.Sprintf("Asset %d", n),
		Type:     "trailer",
		VIN:      fmt.Sprintf("VIN%08d", n),
		Status:   models.AssetStatusAvailable,
		Location: "Yard A",
		ClientID: &clientID,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestContract creates an active contract for the given client with
// the given total amount. Start date is one year ago, term 36 months.
func CreateTestContract(t *testing.T, db *gorm.DB, clientID uint, amount float64) *models.Contract {
	t.Helper()

	n := nextID()
	start := time.Now().AddDate(-1, 0, 0)
	contract := &models.Contract{
		Title:          fmt.Sprintf("Lease %d", n),
		Number:         fmt.Sprintf("CN-%06d", n),
		Amount:         amount,
		InterestRate:   0.12,
		TermMonths:     36,
		MonthlyPayment: amount / 36,
		StartDate:      start,
		EndDate:        start.AddDate(3, 0, 0),
		ClientID:       clientID,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("failed to create test contract: %v", err)
	}
	return contract
}

// CreateTestPayment records a payment row directly, bypassing the payment
// service. The contract balance is not touched.
func CreateTestPayment(t *testing.T, db *gorm.DB, clientID, contractID uint, amount float64) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		ClientID:   clientID,
		ContractID: contractID,
		Amount:     amount,
		Date:       time.Now(),
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("failed to create test payment: %v", err)
	}
	return payment
}

// CreateTestDocument attaches a document row to the given asset.
func CreateTestDocument(t *testing.T, db *gorm.DB, assetID uint) *models.Document {
	t.Helper()

	n := nextID()
	doc := &models.Document{
		AssetID:  assetID,
		Kind:     models.DocumentKindOther,
		Filename: fmt.Sprintf("doc%d.pdf", n),
		Path:     fmt.Sprintf("documents/%d/doc%d.pdf", assetID, n),
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}
