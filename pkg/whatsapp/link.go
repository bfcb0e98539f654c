package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned when a phone number cannot be normalized into
// the international digits-only form wa.me expects.
var ErrInvalidNumber = errors.New("invalid whatsapp number")

// NormalizeNumber strips formatting characters from a phone number, keeping
// digits only. The result must be 8-15 digits (E.164 without the plus sign).
func NormalizeNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}

	return digits, nil
}

// Link builds a wa.me click-to-chat URL with the message pre-filled.
func Link(number, message string) (string, error) {
	digits, err := NormalizeNumber(number)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "https",
		Host:   "wa.me",
		Path:   "/" + digits,
	}
	if message != "" {
		q := url.Values{}
		q.Set("text", message)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// OrderConfirmation formats the message sent to a customer after an order is
// placed. The currency symbol is the storefront owner's concern; we only
// format the amount with two decimal places.
func OrderConfirmation(storeName string, orderNumber int64, total decimal.Decimal) string {
	return fmt.Sprintf(
		"Order #%d confirmed at %s!\n\nTotal: %s\n\nThank you for your purchase. "+
			"You will receive updates about your order shortly.",
		orderNumber, storeName, total.StringFixed(2),
	)
}

// StatusUpdate formats an order status change notification.
func StatusUpdate(orderNumber int64, status string) string {
	return fmt.Sprintf(
		"Update for order #%d\n\nCurrent status: %s",
		orderNumber, status,
	)
}
