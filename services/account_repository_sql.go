package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driveuploader/models"
	"driveuploader/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLAccountRepository struct {
	db *gorm.DB
}

// OpenSQLAccountRepository opens (or creates) a SQLite database at dsn.
func OpenSQLAccountRepository(dsn string) (*SQLAccountRepository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return NewSQLAccountRepository(db)
}

func NewSQLAccountRepository(db *gorm.DB) (*SQLAccountRepository, error) {
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		return nil, fmt.Errorf("migrating accounts: %w", err)
	}
	return &SQLAccountRepository{db: db}, nil
}

func (r *SQLAccountRepository) UpsertGoogleAccount(ctx context.Context, profile models.GoogleProfile, tokens models.OAuthTokens) (*models.Account, error) {
	var account models.Account

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", profile.Email).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			account = newGoogleAccount(profile, tokens)
			return tx.Create(&account).Error
		}
		if err != nil {
			return err
		}

		updates := accountTokenUpdates(profile, tokens)
		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&account, account.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upserting account %s: %w", profile.Email, err)
	}

	utils.LogInfo(fmt.Sprintf("[AccountRepository] Upserted account %d (%s)", account.ID, account.Email))
	return &account, nil
}

func (r *SQLAccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

func (r *SQLAccountRepository) UpdateTokens(ctx context.Context, id int64, tokens models.OAuthTokens) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(accountTokenUpdates(models.GoogleProfile{}, tokens))
	if result.Error != nil {
		return fmt.Errorf("updating tokens for account %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *SQLAccountRepository) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGoogleAccount(profile models.GoogleProfile, tokens models.OAuthTokens) models.Account {
	now := time.Now().UTC()
	account := models.Account{
		Username:     profile.DisplayName(),
		Email:        profile.Email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if profile.Subject != "" {
		subject := profile.Subject
		account.GoogleID = &subject
	}
	if !tokens.Expiry.IsZero() {
		expiry := tokens.Expiry.UTC()
		account.TokenExpiry = &expiry
	}
	return account
}

// accountTokenUpdates lists the columns refreshed on a repeat login.
func accountTokenUpdates(profile models.GoogleProfile, tokens models.OAuthTokens) map[string]any {
	updates := map[string]any{
		"access_token": tokens.AccessToken,
		"updated_at":   time.Now().UTC(),
	}
	if tokens.RefreshToken != "" {
		updates["refresh_token"] = tokens.RefreshToken
	}
	if profile.Subject != "" {
		updates["google_id"] = profile.Subject
	}
	if !tokens.Expiry.IsZero() {
		updates["token_expiry"] = tokens.Expiry.UTC()
	}
	return updates
}
