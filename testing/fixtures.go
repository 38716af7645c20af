package testing

import (
	"fmt"
	"math/rand/v2"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser inserts a user with a random chat id
func (tf *TestFixtures) CreateTestUser(fullName string, blocked bool) (*models.User, error) {
	user := &models.User{
		TelegramID:   rand.Int64N(9_000_000_000) + 1_000_000_000,
		FullName:     fullName,
		RegisteredAt: utils.UTCNow(),
		IsBlocked:    blocked,
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestReceipt inserts a receipt for the user with a unique fiscal triple
func (tf *TestFixtures) CreateTestReceipt(userID uint, status models.ReceiptStatus) (*models.Receipt, error) {
	receipt := &models.Receipt{
		UserID:         userID,
		FiscalDrive:    fmt.Sprintf("%016d", rand.Int64N(1e15)),
		FiscalDocument: fmt.Sprintf("%d", rand.IntN(1e6)),
		FiscalSign:     fmt.Sprintf("%010d", rand.Int64N(1e9)),
		Status:         status,
		Tickets:        1,
	}
	if err := tf.DB.DB.Create(receipt).Error; err != nil {
		return nil, fmt.Errorf("failed to create test receipt: %w", err)
	}
	return receipt, nil
}

// CreateTestParticipant inserts a non-blocked user holding one valid receipt
func (tf *TestFixtures) CreateTestParticipant(fullName string) (*models.User, error) {
	user, err := tf.CreateTestUser(fullName, false)
	if err != nil {
		return nil, err
	}
	if _, err := tf.CreateTestReceipt(user.ID, models.ReceiptStatusValid); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTestCampaign inserts a campaign with the given typed content
func (tf *TestFixtures) CreateTestCampaign(typ models.CampaignType, content any) (*models.Campaign, error) {
	raw, err := models.MarshalContent(content)
	if err != nil {
		return nil, err
	}
	campaign := &models.Campaign{Type: typ, Content: raw}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}
