// Package bot posts order cards to an admin Telegram chat and lets the
// admin change an order's status from the card's buttons.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"fast-food-fast/logger"
	"fast-food-fast/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the notifier uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// StatusUpdater applies a status payload to an order.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, publicID string, body []byte) (models.Order, error)
}

type Notifier struct {
	api    API
	chatID int64
	log    *logger.Logger

	// card message id per order, so a status change edits the card
	// instead of posting a new one
	mu    sync.Mutex
	cards map[string]int
}

func New(token string, adminChatID int64, log *logger.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewWithAPI(api, adminChatID, log), nil
}

func NewWithAPI(api API, adminChatID int64, log *logger.Logger) *Notifier {
	return &Notifier{api: api, chatID: adminChatID, log: log, cards: make(map[string]int)}
}

func (n *Notifier) OrderPlaced(ctx context.Context, o models.Order) error {
	return n.sendCard(o)
}

func (n *Notifier) StatusChanged(ctx context.Context, o models.Order) error {
	return n.upsertCard(o)
}

func (n *Notifier) sendCard(o models.Order) error {
	content := BuildAdminCard(o)
	msg := tgbotapi.NewMessage(n.chatID, content.Text)
	if kb := cardMarkup(content); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send order card %s: %w", o.PublicID, err)
	}
	n.rememberCard(o, sent.MessageID)
	return nil
}

// rememberCard keeps the card's message id for later edits. Cards of
// finished orders are dropped.
func (n *Notifier) rememberCard(o models.Order, messageID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if o.Status.Final() {
		delete(n.cards, o.PublicID)
		return
	}
	n.cards[o.PublicID] = messageID
}

// upsertCard edits the existing card if one was sent; otherwise, or if
// the message is gone, it sends a new one. "not modified" is ignored.
func (n *Notifier) upsertCard(o models.Order) error {
	n.mu.Lock()
	messageID, ok := n.cards[o.PublicID]
	n.mu.Unlock()
	if !ok {
		return n.sendCard(o)
	}

	content := BuildAdminCard(o)
	edit := tgbotapi.NewEditMessageText(n.chatID, messageID, content.Text)
	if kb := cardMarkup(content); kb != nil {
		edit.ReplyMarkup = kb
	} else {
		emptyKb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		edit.ReplyMarkup = &emptyKb
	}
	_, err := n.api.Send(edit)
	if err == nil {
		n.rememberCard(o, messageID)
		return nil
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "not modified"):
		n.rememberCard(o, messageID)
		return nil
	case strings.Contains(errStr, "not found"):
		return n.sendCard(o)
	default:
		return fmt.Errorf("edit order card %s: %w", o.PublicID, err)
	}
}

// Listen handles button presses on order cards until ctx is done. Only
// callbacks coming from the admin chat are acted on.
func (n *Notifier) Listen(ctx context.Context, orders StatusUpdater) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := n.api.GetUpdatesChan(u)
	defer n.api.StopReceivingUpdates()

	n.log.Info("bot_listening", "startup", "Telegram admin bot listening", slog.Int64("chat_id", n.chatID))
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				n.handleCallback(ctx, orders, update.CallbackQuery)
			}
		}
	}
}

func (n *Notifier) handleCallback(ctx context.Context, orders StatusUpdater, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.Message.Chat.ID != n.chatID {
		n.answer(cq.ID, "Not allowed")
		return
	}
	publicID, status, ok := parseStatusCallback(cq.Data)
	if !ok {
		n.answer(cq.ID, "Unknown action")
		return
	}

	n.mu.Lock()
	n.cards[publicID] = cq.Message.MessageID
	n.mu.Unlock()

	body, _ := json.Marshal(map[string]string{"status": string(status)})
	requestID := "tg-" + cq.ID
	if _, err := orders.UpdateStatus(logger.WithRequestID(ctx, requestID), publicID, body); err != nil {
		n.log.Error("bot_status_update_failed", requestID, "status update from admin chat failed", err,
			slog.String("order_id", publicID))
		n.answer(cq.ID, "Failed: "+err.Error())
		return
	}
	n.answer(cq.ID, "Status: "+string(status))
}

// answer sends a short toast for the callback (no new message).
func (n *Notifier) answer(callbackID, text string) {
	if _, err := n.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		n.log.Warn("bot_callback_answer_failed", "", err.Error())
	}
}
