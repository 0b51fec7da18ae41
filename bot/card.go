package bot

import (
	"fmt"
	"strconv"
	"strings"

	"fast-food-fast/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const statusCallbackPrefix = "order_status:"

// CardButton is one inline button of an order card.
type CardButton struct {
	Text         string
	CallbackData string
}

// CardContent is the text and inline keyboard of an admin order card.
type CardContent struct {
	Text    string
	Buttons [][]CardButton
}

func statusLabel(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusNew:
		return "🆕 New"
	case models.OrderStatusProcessing:
		return "👨‍🍳 Processing"
	case models.OrderStatusCancelled:
		return "❌ Cancelled"
	case models.OrderStatusComplete:
		return "✅ Complete"
	default:
		return string(s)
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildAdminCard renders an order for the admin chat with one button per
// status the order can be moved to.
func BuildAdminCard(o models.Order) CardContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s\n", o.PublicID)
	fmt.Fprintf(&b, "Customer: %s\n\n", o.Customer)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "• %s × %s = %s\n", it.Item, formatAmount(it.Quantity), formatAmount(it.Cost))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatAmount(o.TotalCost))
	fmt.Fprintf(&b, "Status: %s", statusLabel(o.Status))

	var row []CardButton
	for _, s := range models.OrderStatuses {
		if s == o.Status {
			continue
		}
		row = append(row, CardButton{
			Text:         statusLabel(s),
			CallbackData: statusCallbackPrefix + o.PublicID + ":" + string(s),
		})
	}
	var buttons [][]CardButton
	if len(row) > 0 {
		buttons = [][]CardButton{row}
	}
	return CardContent{Text: b.String(), Buttons: buttons}
}

// parseStatusCallback splits "order_status:<order-id>:<status>".
func parseStatusCallback(data string) (publicID string, status models.OrderStatus, ok bool) {
	rest, found := strings.CutPrefix(data, statusCallbackPrefix)
	if !found {
		return "", "", false
	}
	id, raw, found := strings.Cut(rest, ":")
	if !found || id == "" {
		return "", "", false
	}
	status, ok = models.ParseOrderStatus(raw)
	if !ok {
		return "", "", false
	}
	return id, status, true
}

// cardMarkup converts CardContent.Buttons to a Telegram inline keyboard.
func cardMarkup(c CardContent) *tgbotapi.InlineKeyboardMarkup {
	if len(c.Buttons) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range c.Buttons {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData))
		}
		rows = append(rows, btns)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
