package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

// UserSummary is an account row of the admin user list with its order totals.
type UserSummary struct {
	models.User
	OrderCount int64   `json:"orderCount"`
	TotalSpent float64 `json:"totalSpent"`
}

// ListUsers pages through accounts for the admin console. search matches
// username, email or mobile.
func (s *AccountService) ListUsers(ctx context.Context, search string, pg utils.Pagination) ([]UserSummary, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR mobile LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("created_at desc").Limit(pg.Limit).Offset(pg.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	if len(users) == 0 {
		return []UserSummary{}, total, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	type userStats struct {
		UserID     string
		OrderCount int64
		TotalSpent float64
	}
	var stats []userStats
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("user_id, count(*) as order_count, COALESCE(SUM(total), 0) as total_spent").
		Where("user_id IN ? AND status <> ?", ids, models.OrderCancelled).
		Group("user_id").
		Scan(&stats).Error
	if err != nil {
		return nil, 0, err
	}

	byUser := make(map[string]userStats, len(stats))
	for _, st := range stats {
		byUser[st.UserID] = st
	}

	result := make([]UserSummary, len(users))
	for i, u := range users {
		result[i] = UserSummary{User: u}
		if st, ok := byUser[u.ID.String()]; ok {
			result[i].OrderCount = st.OrderCount
			result[i].TotalSpent = st.TotalSpent
		}
	}
	return result, total, nil
}

// UpdateRole changes another account's role. Accounts cannot change their own role.
func (s *AccountService) UpdateRole(ctx context.Context, actorID uuid.UUID, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, newError(ErrValidation, "role", "role must be one of: user, admin, super_admin")
	}

	id, err := parseID(userID, "account")
	if err != nil {
		return nil, err
	}
	if id == actorID {
		return nil, newError(ErrForbidden, "", "you cannot change your own role")
	}

	user, err := s.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// DeleteUser removes another account and its saved addresses. Accounts
// with orders are kept so order history stays intact.
func (s *AccountService) DeleteUser(ctx context.Context, actorID uuid.UUID, userID string) error {
	id, err := parseID(userID, "account")
	if err != nil {
		return err
	}
	if id == actorID {
		return newError(ErrForbidden, "", "you cannot delete your own account")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "", "account not found")
			}
			return err
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("user_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return newError(ErrConflict, "", "account has %d orders and cannot be deleted", orders)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserAddress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
