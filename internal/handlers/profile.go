package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetProfile returns the authenticated account with its addresses.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	profile, err := h.profiles.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return sendData(c, profile)
}

// UpdateProfile updates names and avatar.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.ProfileUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.profiles.UpdateProfile(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}
	return sendMessage(c, "profile updated", profile)
}

// ChangePassword replaces the account password.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.PasswordChange
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.profiles.ChangePassword(c.UserContext(), user.ID, req); err != nil {
		return err
	}
	return sendMessage(c, "password updated", nil)
}

// UpdateNotifications replaces notification preferences.
func (h *ProfileHandler) UpdateNotifications(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req models.NotificationPreferences
	if err := parseBody(c, &req); err != nil {
		return err
	}

	prefs, err := h.profiles.UpdateNotifications(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}
	return sendMessage(c, "notification preferences updated", prefs)
}

// Address endpoints

// ListAddresses returns saved addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	addresses, err := h.profiles.ListAddresses(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return sendData(c, addresses)
}

// CreateAddress saves a new address.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.profiles.AddAddress(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}
	return sendCreated(c, "address saved", address)
}

// UpdateAddress changes a saved address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.AddressUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.profiles.UpdateAddress(c.UserContext(), user.ID, c.Params("id"), req)
	if err != nil {
		return err
	}
	return sendMessage(c, "address updated", address)
}

// DeleteAddress removes a saved address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	if err := h.profiles.DeleteAddress(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return err
	}
	return sendMessage(c, "address deleted", nil)
}
