package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/services"
)

// AuthHandler bundles signup, verification and login endpoints.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup stores a pending signup and sends the verification code.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req services.SignupInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pending, err := h.accounts.SubmitSignup(c.UserContext(), req)
	if err != nil {
		return err
	}

	return sendMessage(c, "verification code sent to your email", fiber.Map{
		"email":     pending.Email,
		"expiresAt": pending.OTPExpiresAt,
	})
}

// VerifyOTP confirms the code and returns the new account with a token.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.OTP == "" {
		return &services.Error{Kind: services.ErrValidation, Field: "otp", Message: "email and otp are required"}
	}

	res, err := h.accounts.VerifyOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return sendMessage(c, "account verified", res)
}

// ResendOTP issues a fresh verification code.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pending, err := h.accounts.ResendOTP(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return sendMessage(c, "verification code resent", fiber.Map{
		"email":     pending.Email,
		"expiresAt": pending.OTPExpiresAt,
	})
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return &services.Error{Kind: services.ErrValidation, Message: "email and password are required"}
	}

	res, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return sendMessage(c, "login successful", res)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}
	return sendData(c, user)
}
