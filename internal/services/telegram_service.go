package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/foodexpress/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService posts operational alerts to the admin Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether both the bot token and admin chat are configured.
func (s *TelegramService) Enabled() bool {
	return s != nil && s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// FormatPrice renders an amount in rupees with two decimals and
// thousands separators.
func FormatPrice(amount float64) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return sign + "₹" + b.String() + "." + frac
}

// NewOrderMessage renders the admin alert for a freshly placed order.
func NewOrderMessage(order *models.Order, customer *models.User) string {
	var items strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.UnitPrice),
			FormatPrice(item.LineTotal),
		)
	}

	restaurant := ""
	if order.Restaurant != nil {
		restaurant = order.Restaurant.Name
	}
	name, phone := "", ""
	if customer != nil {
		name = customer.Username
		phone = customer.Mobile
	}
	addr := order.DeliveryAddress

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>📋 Order:</b> %s
<b>🍽 Restaurant:</b> %s
<b>👤 Customer:</b> %s
<b>📞 Phone:</b> %s
<b>📍 Address:</b> %s, %s
<b>📦 Items:</b>
%s
<b>Subtotal:</b> %s
<b>Delivery:</b> %s
<b>Tax:</b> %s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s
<b>⏱ ETA:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		html.EscapeString(restaurant),
		html.EscapeString(name),
		html.EscapeString(phone),
		html.EscapeString(addr.Street),
		html.EscapeString(addr.City),
		items.String(),
		FormatPrice(order.Subtotal),
		FormatPrice(order.DeliveryFee),
		FormatPrice(order.Tax),
		FormatPrice(order.Total),
		strings.ReplaceAll(order.PaymentMethod, "_", " "),
		order.EstimatedDeliveryAt.Format("15:04"),
	)
	return strings.TrimSpace(message)
}

// NotifyNewOrder sends the new-order alert to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order *models.Order, customer *models.User) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendToAdmin(ctx, NewOrderMessage(order, customer))
}

// NotifyStatusChange tells the admin chat that an order moved to a new status.
func (s *TelegramService) NotifyStatusChange(ctx context.Context, order *models.Order) error {
	if !s.Enabled() {
		return nil
	}
	message := fmt.Sprintf("<b>📋 %s</b> is now <b>%s</b>", order.OrderNumber, strings.ReplaceAll(string(order.Status), "_", " "))
	if order.Status == models.OrderCancelled {
		message = "❌ " + message
	}
	return s.SendToAdmin(ctx, message)
}
