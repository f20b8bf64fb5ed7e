package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

// ProfileService manages an account's own profile, password, notification
// preferences and saved addresses.
type ProfileService struct {
	db       *gorm.DB
	hashCost int
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, hashCost: bcrypt.DefaultCost}
}

// ProfileUpdate carries optional profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
}

// PasswordChange is the payload of a password change.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// AddressInput is the payload for creating an address.
type AddressInput struct {
	Label      string   `json:"label" validate:"max=64"`
	Street     string   `json:"street" validate:"required,max=255"`
	Apartment  string   `json:"apartment" validate:"max=255"`
	City       string   `json:"city" validate:"required,max=128"`
	State      string   `json:"state" validate:"max=128"`
	PostalCode string   `json:"postalCode" validate:"max=16"`
	Landmark   string   `json:"landmark" validate:"max=255"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsDefault  bool     `json:"isDefault"`
}

// AddressUpdate carries optional address fields. Nil fields are left unchanged.
type AddressUpdate struct {
	Label      *string  `json:"label" validate:"omitempty,max=64"`
	Street     *string  `json:"street" validate:"omitnil,min=1,max=255"`
	Apartment  *string  `json:"apartment" validate:"omitempty,max=255"`
	City       *string  `json:"city" validate:"omitnil,min=1,max=128"`
	State      *string  `json:"state" validate:"omitempty,max=128"`
	PostalCode *string  `json:"postalCode" validate:"omitempty,max=16"`
	Landmark   *string  `json:"landmark" validate:"omitempty,max=255"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsDefault  *bool    `json:"isDefault"`
}

// GetProfile returns the account with its saved addresses.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("is_default desc").Order("created_at asc") }).
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "account not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes names and avatar.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	updates := map[string]any{}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if len(updates) == 0 {
		return nil, newError(ErrValidation, "", "no fields to update")
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword replaces the password after checking the current one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, in PasswordChange) error {
	if err := utils.ValidateStruct(in); err != nil {
		return validationError(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "", "account not found")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, in.CurrentPassword) {
		return newError(ErrValidation, "currentPassword", "current password is incorrect")
	}
	if in.CurrentPassword == in.NewPassword {
		return newError(ErrValidation, "newPassword", "new password must differ from the current password")
	}

	hash, err := utils.HashPasswordCost(in.NewPassword, s.hashCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error
}

// UpdateNotifications replaces the account's notification preferences.
func (s *ProfileService) UpdateNotifications(ctx context.Context, userID uuid.UUID, prefs models.NotificationPreferences) (*models.NotificationPreferences, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "account not found")
		}
		return nil, err
	}

	err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"notify_email":      prefs.Email,
		"notify_sms":        prefs.SMS,
		"notify_push":       prefs.Push,
		"notify_promotions": prefs.Promotions,
	}).Error
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// ListAddresses returns the saved addresses, default first.
func (s *ProfileService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default desc").Order("created_at asc").
		Find(&addresses).Error
	return addresses, err
}

// AddAddress saves an address. The first address, or one flagged as
// default, becomes the only default address.
func (s *ProfileService) AddAddress(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.UserAddress, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	address := models.UserAddress{
		UserID:     userID,
		Label:      strings.TrimSpace(in.Label),
		Street:     strings.TrimSpace(in.Street),
		Apartment:  strings.TrimSpace(in.Apartment),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Landmark:   strings.TrimSpace(in.Landmark),
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		IsDefault:  in.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAddress{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress changes an owned address. Setting isDefault makes it the
// only default; unsetting the current default is rejected.
func (s *ProfileService) UpdateAddress(ctx context.Context, userID uuid.UUID, addressID string, in AddressUpdate) (*models.UserAddress, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	var address *models.UserAddress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		address, err = ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}

		setString(&address.Label, in.Label)
		setString(&address.Street, in.Street)
		setString(&address.Apartment, in.Apartment)
		setString(&address.City, in.City)
		setString(&address.State, in.State)
		setString(&address.PostalCode, in.PostalCode)
		setString(&address.Landmark, in.Landmark)
		if in.Latitude != nil {
			address.Latitude = in.Latitude
		}
		if in.Longitude != nil {
			address.Longitude = in.Longitude
		}

		if in.IsDefault != nil {
			switch {
			case *in.IsDefault && !address.IsDefault:
				if err := clearDefault(tx, userID); err != nil {
					return err
				}
				address.IsDefault = true
			case !*in.IsDefault && address.IsDefault:
				return newError(ErrValidation, "isDefault", "choose another default address instead of unsetting this one")
			}
		}
		return tx.Save(address).Error
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an owned address. When the default is removed the
// oldest remaining address becomes the default.
func (s *ProfileService) DeleteAddress(ctx context.Context, userID uuid.UUID, addressID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}

		var next models.UserAddress
		err = tx.Where("user_id = ?", userID).Order("created_at asc").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

// defaultAddress returns the account's default address, if any.
func defaultAddress(tx *gorm.DB, userID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	err := tx.Where("user_id = ? AND is_default = ?", userID, true).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "no default address saved")
		}
		return nil, err
	}
	return &address, nil
}

func ownedAddress(tx *gorm.DB, userID uuid.UUID, addressID string) (*models.UserAddress, error) {
	id, err := parseID(addressID, "address")
	if err != nil {
		return nil, err
	}
	var address models.UserAddress
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "address not found")
		}
		return nil, err
	}
	return &address, nil
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
