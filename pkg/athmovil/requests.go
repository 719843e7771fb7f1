package athmovil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentItem is a line item of a payment. Amounts are decimals such as "5", 5.0 or
// "5.00", given as strings or JSON numbers; they are normalized to two fractional
// digits.
type PaymentItem struct {
	Name           string     `json:"name" validate:"max=255"`
	Description    string     `json:"description" validate:"max=255"`
	Quantity       Quantity   `json:"quantity" validate:"gt=0"`
	Price          FlexString `json:"price"`
	Tax            FlexString `json:"tax,omitempty"`
	Metadata       string     `json:"metadata,omitempty" validate:"max=255"`
	SKU            string     `json:"sku,omitempty" validate:"max=100"`
	FormattedPrice string     `json:"formattedPrice,omitempty"`
}

// PaymentRequest describes a payment to create. A zero Timeout uses the default of
// 600 seconds. Tax and Subtotal are optional; when both are set they must add up to
// Total exactly.
type PaymentRequest struct {
	Timeout     int           `json:"timeout,omitempty" validate:"omitempty,min=120"`
	Total       FlexString    `json:"total"`
	Tax         FlexString    `json:"tax,omitempty"`
	Subtotal    FlexString    `json:"subtotal,omitempty"`
	Metadata1   string        `json:"metadata1,omitempty" validate:"max=40"`
	Metadata2   string        `json:"metadata2,omitempty" validate:"max=40"`
	PhoneNumber string        `json:"phoneNumber"`
	Items       []PaymentItem `json:"items" validate:"dive"`
}

// RefundRequest describes a refund of a completed transaction.
type RefundRequest struct {
	ReferenceNumber string     `json:"referenceNumber" validate:"required"`
	Amount          FlexString `json:"amount"`
	Message         string     `json:"message,omitempty" validate:"max=50"`
}

// ItemPayload is the wire form of a PaymentItem.
type ItemPayload struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Price          string `json:"price"`
	Tax            string `json:"tax,omitempty"`
	Metadata       string `json:"metadata,omitempty"`
	SKU            string `json:"sku,omitempty"`
	FormattedPrice string `json:"formattedPrice,omitempty"`
}

// PaymentPayload is a validated, normalized payment ready to be sent.
type PaymentPayload struct {
	PublicToken string        `json:"publicToken"`
	Timeout     string        `json:"timeout"`
	Total       string        `json:"total"`
	Tax         string        `json:"tax,omitempty"`
	Subtotal    string        `json:"subtotal,omitempty"`
	Metadata1   string        `json:"metadata1,omitempty"`
	Metadata2   string        `json:"metadata2,omitempty"`
	Items       []ItemPayload `json:"items"`
	PhoneNumber string        `json:"phoneNumber"`
}

type FindPaymentPayload struct {
	EcommerceID string `json:"ecommerceId"`
	PublicToken string `json:"publicToken"`
}

type CancelPaymentPayload struct {
	EcommerceID string `json:"ecommerceId"`
	PublicToken string `json:"publicToken"`
}

type UpdatePhonePayload struct {
	EcommerceID string `json:"ecommerceId"`
	PhoneNumber string `json:"phoneNumber"`
}

type RefundPayload struct {
	PublicToken     string `json:"publicToken"`
	PrivateToken    string `json:"privateToken"`
	ReferenceNumber string `json:"referenceNumber"`
	Amount          string `json:"amount"`
	Message         string `json:"message,omitempty"`
}

// NewPaymentPayload validates req and builds its wire payload. All field problems are
// reported together; the subtotal + tax = total check only runs once every field is
// valid.
func NewPaymentPayload(publicToken string, req PaymentRequest, requireMetadata bool) (*PaymentPayload, error) {
	fe := &fieldErrors{}
	fe.addStruct(req)

	payload := &PaymentPayload{
		PublicToken: publicToken,
		Timeout:     strconv.Itoa(DefaultTimeoutSeconds),
		Metadata1:   req.Metadata1,
		Metadata2:   req.Metadata2,
		Items:       make([]ItemPayload, 0, len(req.Items)),
	}
	if req.Timeout != 0 {
		payload.Timeout = strconv.Itoa(req.Timeout)
	}

	normalize := func(field string, value FlexString, rule AmountRule, optional bool) string {
		if optional && value == "" {
			return ""
		}
		out, err := NormalizeAmount(string(value), rule)
		if err != nil {
			fe.add(field, string(value), err)
		}
		return out
	}

	payload.Total = normalize("total", req.Total, totalRule, false)
	payload.Tax = normalize("tax", req.Tax, subtotalRule, true)
	payload.Subtotal = normalize("subtotal", req.Subtotal, subtotalRule, true)

	if requireMetadata {
		if req.Metadata1 == "" {
			fe.add("metadata1", req.Metadata1, errors.New("is required"))
		}
		if req.Metadata2 == "" {
			fe.add("metadata2", req.Metadata2, errors.New("is required"))
		}
	}

	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		fe.add("phoneNumber", req.PhoneNumber, err)
	}
	payload.PhoneNumber = phone

	for i, item := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		payload.Items = append(payload.Items, ItemPayload{
			Name:           item.Name,
			Description:    item.Description,
			Quantity:       strconv.Itoa(int(item.Quantity)),
			Price:          normalize(prefix+"price", item.Price, priceRule, false),
			Tax:            normalize(prefix+"tax", item.Tax, priceRule, true),
			Metadata:       item.Metadata,
			SKU:            item.SKU,
			FormattedPrice: item.FormattedPrice,
		})
	}

	if !fe.empty() {
		return nil, fe.err("payment request")
	}

	if err := checkTotal(payload.Total, payload.Subtotal, payload.Tax); err != nil {
		return nil, err
	}
	return payload, nil
}

// checkTotal enforces subtotal + tax == total with exact decimal equality.
func checkTotal(total, subtotal, tax string) error {
	if subtotal == "" || tax == "" {
		return nil
	}

	t := decimal.RequireFromString(total)
	s := decimal.RequireFromString(subtotal)
	x := decimal.RequireFromString(tax)
	if s.Add(x).Equal(t) {
		return nil
	}

	msg := fmt.Sprintf("total (%s) must equal subtotal (%s) + tax (%s)", total, subtotal, tax)
	return &Error{
		Kind:    KindValidation,
		Message: "invalid payment request: " + msg,
		Fields:  []FieldError{{Field: "total", Message: msg, Value: total}},
		Err:     ErrTotalMismatch,
	}
}

// NewRefundPayload validates req and builds its wire payload.
func NewRefundPayload(publicToken, privateToken string, req RefundRequest) (*RefundPayload, error) {
	fe := &fieldErrors{}
	fe.addStruct(req)

	amount, err := NormalizeAmount(string(req.Amount), refundRule)
	if err != nil {
		fe.add("amount", string(req.Amount), err)
	}
	if !fe.empty() {
		return nil, fe.err("refund request")
	}

	return &RefundPayload{
		PublicToken:     publicToken,
		PrivateToken:    privateToken,
		ReferenceNumber: req.ReferenceNumber,
		Amount:          amount,
		Message:         req.Message,
	}, nil
}

// NewUpdatePhonePayload validates the new phone number for a payment.
func NewUpdatePhonePayload(ecommerceID, phoneNumber string) (*UpdatePhonePayload, error) {
	if err := requireEcommerceID(ecommerceID); err != nil {
		return nil, err
	}
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		fe := &fieldErrors{}
		fe.add("phoneNumber", phoneNumber, err)
		return nil, fe.err("phone number update")
	}
	return &UpdatePhonePayload{EcommerceID: ecommerceID, PhoneNumber: phone}, nil
}

func requireEcommerceID(ecommerceID string) error {
	if strings.TrimSpace(ecommerceID) != "" {
		return nil
	}
	fe := &fieldErrors{}
	fe.add("ecommerceId", ecommerceID, errors.New("is required"))
	return fe.err("request")
}
