package businessflow

import (
	"strings"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
)

// NormalizePhone canonicalizes a raw phone value. Non-digits are stripped; a
// 10 or 11 digit national number gets the default country code prefixed.
// Fewer than 10 digits is not a usable number and yields nil. The result
// always carries a leading "+". Area-code plausibility is not checked.
func NormalizePhone(raw string) *string {
	digits := utils.DigitsOnly(raw)
	if len(digits) < 10 {
		return nil
	}
	if len(digits) == 10 || len(digits) == 11 {
		digits = utils.DefaultCountryCode + digits
	}
	return utils.ToPtr("+" + digits)
}

// ExtractCustomer pulls the customer name, email and phone out of a provider
// payload. Providers nest the customer under "customer", "buyer" or inline it
// at the root; the first populated source wins. The phone goes through
// NormalizePhone, so a present-but-garbage phone still comes back nil.
func ExtractCustomer(payload map[string]any) (name, email, phone *string) {
	sources := []map[string]any{
		asObject(payload["customer"]),
		asObject(payload["buyer"]),
		payload,
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if name == nil {
			name = extractName(src)
		}
		if email == nil {
			email = nonEmptyString(src["email"])
		}
		if phone == nil {
			phone = extractRawPhone(src)
		}
	}
	if phone != nil {
		phone = NormalizePhone(*phone)
	}
	return name, email, phone
}

func extractName(src map[string]any) *string {
	if v := nonEmptyString(src["name"]); v != nil {
		return v
	}
	if v := nonEmptyString(src["full_name"]); v != nil {
		return v
	}
	first := nonEmptyString(src["first_name"])
	last := nonEmptyString(src["last_name"])
	if first != nil && last != nil {
		return utils.ToPtr(*first + " " + *last)
	}
	if first != nil {
		return first
	}
	return nil
}

func extractRawPhone(src map[string]any) *string {
	for _, key := range []string{"phone", "cellphone", "mobile", "whatsapp"} {
		if v := nonEmptyString(src[key]); v != nil {
			return v
		}
	}
	if nested := asObject(src["phone_number"]); nested != nil {
		if v := nonEmptyString(nested["number"]); v != nil {
			return v
		}
	}
	return nil
}

// ExtractProductOffer pulls product/offer identity and the order value from
// optional sub-objects. The first non-zero of order.total, order.amount and
// order.value decides the value; currency defaults when absent.
func ExtractProductOffer(payload map[string]any) (p models.NormalizedPayload) {
	if product := asObject(payload["product"]); product != nil {
		p.ProductID = nonEmptyString(product["id"])
		p.ProductName = nonEmptyString(product["name"])
	}
	if offer := asObject(payload["offer"]); offer != nil {
		p.OfferID = nonEmptyString(offer["id"])
		p.OfferName = nonEmptyString(offer["name"])
	}
	if order := asObject(payload["order"]); order != nil {
		for _, key := range []string{"total", "amount", "value"} {
			if v, ok := asFloat(order[key]); ok && v != 0 {
				p.OrderValue = utils.ToPtr(v)
				break
			}
		}
		if c := nonEmptyString(order["currency"]); c != nil {
			p.Currency = *c
		}
	}
	if p.Currency == "" {
		p.Currency = utils.DefaultCurrency
	}
	return p
}

// ExtractExternalID finds the provider's id for this delivery, trying the
// known id fields in order. Payloads with no id at all get a synthesized
// random id, so they are never deduplicated against each other.
func ExtractExternalID(payload map[string]any) string {
	for _, key := range []string{"id", "transaction_id", "order_id", "checkout_id"} {
		if v := nonEmptyString(payload[key]); v != nil {
			return *v
		}
	}
	return uuid.NewString()
}

// ExtractEventType reads the event type field and validates it against the
// known enumeration. The second return is false for absent or unknown types.
func ExtractEventType(payload map[string]any) (models.WebhookEventType, bool) {
	for _, key := range []string{"event", "event_type", "type"} {
		if v := nonEmptyString(payload[key]); v != nil {
			et := models.WebhookEventType(strings.ToLower(strings.TrimSpace(*v)))
			return et, et.Valid()
		}
	}
	return "", false
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func nonEmptyString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
