package athmovil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// WebhookEventType is the family of a webhook delivery.
type WebhookEventType string

const (
	EventSimulated WebhookEventType = "simulated"
	EventPayment   WebhookEventType = "payment"
	EventDonation  WebhookEventType = "donation"
	EventRefund    WebhookEventType = "refund"
	EventEcommerce WebhookEventType = "ecommerce"
)

// UnmarshalJSON accepts any letter case ("ECOMMERCE" and "ecommerce" are the same).
func (t *WebhookEventType) UnmarshalJSON(data []byte) error {
	s, err := decodeVocabulary(data)
	if err != nil {
		return err
	}
	switch v := WebhookEventType(s); v {
	case EventSimulated, EventPayment, EventDonation, EventRefund, EventEcommerce:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown transaction type %q", s)
	}
}

// WebhookStatus is the outcome reported by a webhook delivery.
type WebhookStatus string

const (
	WebhookCompleted WebhookStatus = "completed"
	WebhookCancelled WebhookStatus = "cancelled"
	WebhookExpired   WebhookStatus = "expired"
)

// UnmarshalJSON accepts any letter case. Ecommerce cancellations arrive as "CANCEL".
func (s *WebhookStatus) UnmarshalJSON(data []byte) error {
	str, err := decodeVocabulary(data)
	if err != nil {
		return err
	}
	if str == "cancel" {
		str = string(WebhookCancelled)
	}
	switch v := WebhookStatus(str); v {
	case WebhookCompleted, WebhookCancelled, WebhookExpired:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown status %q", str)
	}
}

func decodeVocabulary(data []byte) (string, error) {
	var v FlexString
	if err := json.Unmarshal(data, &v); err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(string(v))), nil
}

// WebhookItem is a line item of a webhook delivery.
type WebhookItem struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Tax            Money           `json:"tax"`
	Metadata       string          `json:"metadata,omitempty"`
	SKU            string          `json:"sku,omitempty"`
	FormattedPrice string          `json:"formattedPrice,omitempty"`
}

func (it *WebhookItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name           string          `json:"name"`
		Description    string          `json:"description"`
		Quantity       Quantity        `json:"quantity"`
		Price          Money           `json:"price"`
		Tax            Money           `json:"tax"`
		Metadata       string          `json:"metadata"`
		SKU            string          `json:"sku"`
		FormattedPrice string          `json:"formattedPrice"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Price.Valid {
		return errors.New("price is required")
	}

	*it = WebhookItem{
		Name:           raw.Name,
		Description:    raw.Description,
		Quantity:       int(raw.Quantity),
		Price:          raw.Price.Decimal(),
		Tax:            raw.Tax,
		Metadata:       raw.Metadata,
		SKU:            raw.SKU,
		FormattedPrice: raw.FormattedPrice,
	}
	return nil
}

// WebhookPayload is the canonical form of every webhook event family. Optional
// amounts are absent (not zero) when the upstream sent null or "".
type WebhookPayload struct {
	TransactionType    WebhookEventType `json:"transactionType"`
	Status             WebhookStatus    `json:"status"`
	ReferenceNumber    string           `json:"referenceNumber,omitempty"`
	DailyTransactionID string           `json:"dailyTransactionId,omitempty"`

	Date            time.Time  `json:"date"`
	TransactionDate *time.Time `json:"transactionDate,omitempty"`

	Name        string  `json:"name,omitempty"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       string  `json:"email,omitempty"`
	Message     string  `json:"message,omitempty"`

	Total               decimal.Decimal `json:"total"`
	Tax                 Money           `json:"tax"`
	Subtotal            Money           `json:"subtotal"`
	Fee                 Money           `json:"fee"`
	NetAmount           Money           `json:"netAmount"`
	TotalRefundedAmount Money           `json:"totalRefundedAmount"`

	Metadata1 string        `json:"metadata1,omitempty"`
	Metadata2 string        `json:"metadata2,omitempty"`
	Items     []WebhookItem `json:"items"`

	EcommerceID            string `json:"ecommerceId,omitempty"`
	BusinessName           string `json:"businessName,omitempty"`
	IsNonProfit            *bool  `json:"isNonProfit,omitempty"`
	ReferenceTransactionID string `json:"referenceTransactionId,omitempty"`
}

// ParseWebhook validates and normalizes a raw webhook body. It never returns a
// partially decoded payload: every problem is reported in one validation error.
func ParseWebhook(raw []byte) (*WebhookPayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, newError(KindValidation, "invalid webhook payload: body is not a JSON object", err)
	}
	if fields == nil {
		return nil, newError(KindValidation, "invalid webhook payload: body is not a JSON object", nil)
	}

	canonicalizeWebhookFields(fields)

	payload, err := decodeWebhookFields(fields)
	if err != nil {
		return nil, newError(KindValidation, "invalid webhook payload: "+err.Error(), err)
	}
	return payload, nil
}

// canonicalizeWebhookFields renames the alternate spellings used by the different
// event families in place.
func canonicalizeWebhookFields(fields map[string]json.RawMessage) {
	if v, ok := fields["dailyTransactionID"]; ok {
		fields["daily_transaction_id"] = v
	} else if v, ok := fields["dailyTransactionId"]; ok {
		fields["daily_transaction_id"] = v
	}
	delete(fields, "dailyTransactionID")
	delete(fields, "dailyTransactionId")

	if v, ok := fields["subTotal"]; ok {
		if _, exists := fields["subtotal"]; !exists {
			fields["subtotal"] = v
			delete(fields, "subTotal")
		}
	}

	renameField(fields, "totalRefundedAmount", "total_refunded_amount")
	renameField(fields, "transactionDate", "transaction_date")
}

func renameField(fields map[string]json.RawMessage, from, to string) {
	if v, ok := fields[from]; ok {
		fields[to] = v
		delete(fields, from)
	}
}

type webhookField struct {
	key      string
	required bool
	decode   func(json.RawMessage, *WebhookPayload) error
}

func into[T any](dst func(*WebhookPayload) *T) func(json.RawMessage, *WebhookPayload) error {
	return func(raw json.RawMessage, p *WebhookPayload) error {
		return json.Unmarshal(raw, dst(p))
	}
}

func flexInto(dst func(*WebhookPayload) *string) func(json.RawMessage, *WebhookPayload) error {
	return func(raw json.RawMessage, p *WebhookPayload) error {
		var s FlexString
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*dst(p) = string(s)
		return nil
	}
}

// webhookFields is the canonical schema. Keys not listed are ignored.
var webhookFields = []webhookField{
	{key: "transactionType", required: true, decode: into(func(p *WebhookPayload) *WebhookEventType { return &p.TransactionType })},
	{key: "status", required: true, decode: into(func(p *WebhookPayload) *WebhookStatus { return &p.Status })},
	{key: "referenceNumber", decode: flexInto(func(p *WebhookPayload) *string { return &p.ReferenceNumber })},
	{key: "daily_transaction_id", decode: flexInto(func(p *WebhookPayload) *string { return &p.DailyTransactionID })},
	{key: "date", required: true, decode: decodeWebhookDate},
	{key: "transaction_date", decode: decodeWebhookTransactionDate},
	{key: "name", decode: into(func(p *WebhookPayload) *string { return &p.Name })},
	{key: "phoneNumber", decode: decodeWebhookPhone},
	{key: "email", decode: into(func(p *WebhookPayload) *string { return &p.Email })},
	{key: "message", decode: into(func(p *WebhookPayload) *string { return &p.Message })},
	{key: "total", required: true, decode: decodeWebhookTotal},
	{key: "tax", decode: into(func(p *WebhookPayload) *Money { return &p.Tax })},
	{key: "subtotal", decode: into(func(p *WebhookPayload) *Money { return &p.Subtotal })},
	{key: "fee", decode: into(func(p *WebhookPayload) *Money { return &p.Fee })},
	{key: "netAmount", decode: into(func(p *WebhookPayload) *Money { return &p.NetAmount })},
	{key: "total_refunded_amount", decode: into(func(p *WebhookPayload) *Money { return &p.TotalRefundedAmount })},
	{key: "metadata1", decode: into(func(p *WebhookPayload) *string { return &p.Metadata1 })},
	{key: "metadata2", decode: into(func(p *WebhookPayload) *string { return &p.Metadata2 })},
	{key: "items", decode: into(func(p *WebhookPayload) *[]WebhookItem { return &p.Items })},
	{key: "ecommerceId", decode: into(func(p *WebhookPayload) *string { return &p.EcommerceID })},
	{key: "businessName", decode: into(func(p *WebhookPayload) *string { return &p.BusinessName })},
	{key: "isNonProfit", decode: into(func(p *WebhookPayload) **bool { return &p.IsNonProfit })},
	{key: "referenceTransactionId", decode: flexInto(func(p *WebhookPayload) *string { return &p.ReferenceTransactionID })},
}

var errFieldRequired = errors.New("field required")

// decodeWebhookFields decodes the canonical field map into a WebhookPayload,
// collecting every failure.
func decodeWebhookFields(fields map[string]json.RawMessage) (*WebhookPayload, error) {
	payload := &WebhookPayload{Items: []WebhookItem{}}
	var result *multierror.Error

	for _, f := range webhookFields {
		raw, ok := fields[f.key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
			if f.required {
				result = multierror.Append(result, fmt.Errorf("%s: %w", f.key, errFieldRequired))
			}
			continue
		}
		if err := f.decode(raw, payload); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", f.key, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		result.ErrorFormat = joinWebhookErrors
		return nil, result
	}
	if payload.Items == nil {
		payload.Items = []WebhookItem{}
	}
	return payload, nil
}

func joinWebhookErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func webhookTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("expected date string, got %s", raw)
	}
	return parseAPITime(s)
}

func decodeWebhookDate(raw json.RawMessage, p *WebhookPayload) error {
	t, err := webhookTime(raw)
	if err != nil {
		return err
	}
	if t.IsZero() {
		return errFieldRequired
	}
	p.Date = t
	return nil
}

func decodeWebhookTransactionDate(raw json.RawMessage, p *WebhookPayload) error {
	t, err := webhookTime(raw)
	if err != nil || t.IsZero() {
		return err
	}
	p.TransactionDate = &t
	return nil
}

// decodeWebhookPhone only runs for a present, non-null value; a null phone number
// stays nil.
func decodeWebhookPhone(raw json.RawMessage, p *WebhookPayload) error {
	var s FlexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	phone := string(s)
	p.PhoneNumber = &phone
	return nil
}

func decodeWebhookTotal(raw json.RawMessage, p *WebhookPayload) error {
	var m Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if !m.Valid {
		return errFieldRequired
	}
	p.Total = m.Decimal()
	return nil
}
