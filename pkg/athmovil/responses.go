package athmovil

import "encoding/json"

// PaymentResponse is returned by CreatePayment.
type PaymentResponse struct {
	Status string      `json:"status"`
	Data   PaymentData `json:"data"`
}

type PaymentData struct {
	EcommerceID string `json:"ecommerceId"`
	AuthToken   string `json:"auth_token"`
}

// ResponseItem is a line item as reported back by the API.
type ResponseItem struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Quantity       FlexString `json:"quantity"`
	Price          Money      `json:"price"`
	Tax            Money      `json:"tax"`
	Metadata       string     `json:"metadata,omitempty"`
	SKU            string     `json:"sku,omitempty"`
	FormattedPrice string     `json:"formattedPrice,omitempty"`
}

// TransactionData is a snapshot of an ecommerce payment.
type TransactionData struct {
	EcommerceStatus     TransactionStatus `json:"ecommerceStatus"`
	EcommerceID         string            `json:"ecommerceId"`
	ReferenceNumber     string            `json:"referenceNumber,omitempty"`
	BusinessCustomerID  string            `json:"businessCustomerId,omitempty"`
	TransactionDate     Timestamp         `json:"transactionDate"`
	DailyTransactionID  FlexString        `json:"dailyTransactionId,omitempty"`
	BusinessName        string            `json:"businessName,omitempty"`
	BusinessPath        string            `json:"businessPath,omitempty"`
	Industry            string            `json:"industry,omitempty"`
	Subtotal            Money             `json:"subTotal"`
	Tax                 Money             `json:"tax"`
	Total               Money             `json:"total"`
	Fee                 Money             `json:"fee"`
	NetAmount           Money             `json:"netAmount"`
	TotalRefundedAmount Money             `json:"totalRefundedAmount"`
	Metadata1           string            `json:"metadata1,omitempty"`
	Metadata2           string            `json:"metadata2,omitempty"`
	Items               []ResponseItem    `json:"items,omitempty"`
	IsNonProfit         *bool             `json:"isNonProfit,omitempty"`
}

// TransactionResponse is returned by FindPayment and AuthorizePayment.
type TransactionResponse struct {
	Status string           `json:"status"`
	Data   *TransactionData `json:"data,omitempty"`
}

// RefundTransaction describes the refund leg of a RefundResponse.
type RefundTransaction struct {
	TransactionType    string     `json:"transactionType,omitempty"`
	Status             string     `json:"status,omitempty"`
	RefundedAmount     Money      `json:"refundedAmount"`
	Date               FlexString `json:"date,omitempty"`
	ReferenceNumber    string     `json:"referenceNumber,omitempty"`
	DailyTransactionID FlexString `json:"dailyTransactionId,omitempty"`
	Name               string     `json:"name,omitempty"`
	PhoneNumber        FlexString `json:"phoneNumber,omitempty"`
	Email              string     `json:"email,omitempty"`
}

// OriginalTransaction describes the refunded payment.
type OriginalTransaction struct {
	TransactionType     string         `json:"transactionType,omitempty"`
	Status              string         `json:"status,omitempty"`
	Date                FlexString     `json:"date,omitempty"`
	ReferenceNumber     string         `json:"referenceNumber,omitempty"`
	DailyTransactionID  FlexString     `json:"dailyTransactionId,omitempty"`
	Name                string         `json:"name,omitempty"`
	PhoneNumber         FlexString     `json:"phoneNumber,omitempty"`
	Email               string         `json:"email,omitempty"`
	Message             string         `json:"message,omitempty"`
	Total               Money          `json:"total"`
	Tax                 Money          `json:"tax"`
	Subtotal            Money          `json:"subtotal"`
	Fee                 Money          `json:"fee"`
	NetAmount           Money          `json:"netAmount"`
	TotalRefundedAmount Money          `json:"totalRefundedAmount"`
	Metadata1           string         `json:"metadata1,omitempty"`
	Metadata2           string         `json:"metadata2,omitempty"`
	Items               []ResponseItem `json:"items,omitempty"`
}

type RefundData struct {
	Refund              RefundTransaction   `json:"refund"`
	OriginalTransaction OriginalTransaction `json:"originalTransaction"`
}

// RefundResponse is returned by RefundPayment.
type RefundResponse struct {
	Status string     `json:"status"`
	Data   RefundData `json:"data"`
}

// SuccessResponse is returned by operations whose data the API leaves unspecified.
type SuccessResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}
