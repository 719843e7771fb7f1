package athmovil

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL        = "https://payments.athmovil.com"
	DefaultWebhookBaseURL = "https://webhooks.athmovil.com"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = time.Second
	DefaultPollInterval   = 2 * time.Second
)

// Upstream endpoints.
const (
	PaymentPath          = "/api/business-transaction/ecommerce/payment"
	FindPaymentPath      = "/api/business-transaction/ecommerce/business/findPayment"
	AuthorizationPath    = "/api/business-transaction/ecommerce/authorization"
	UpdatePhonePath      = "/api/business-transaction/ecommerce/business/updatePhoneNumber"
	RefundPath           = "/api/business-transaction/ecommerce/refund"
	CancelPath           = "/api/business-transaction/ecommerce/business/cancel"
	WebhookSubscribePath = "/api/business/webhook/subscribe"
)

const (
	MinTimeoutSeconds     = 120
	DefaultTimeoutSeconds = 600
	MaxMetadataLength     = 40
	MaxMessageLength      = 50
)

var (
	MinTotal = decimal.RequireFromString("1.00")
	MaxTotal = decimal.RequireFromString("1500.00")
)

// Error codes returned in the "errorcode" field of an error body.
const (
	CodeTokenInvalidHeader = "token.invalid.header"
	CodeTokenExpired       = "token.expired"
	CodeBTRA0401           = "BTRA_0401"
	CodeBTRA0402           = "BTRA_0402"
	CodeBTRA0403           = "BTRA_0403"
	CodeBTRA0017           = "BTRA_0017"
	CodeBTRA0001           = "BTRA_0001"
	CodeBTRA0003           = "BTRA_0003"
	CodeBTRA0004           = "BTRA_0004"
	CodeBTRA0006           = "BTRA_0006"
	CodeBTRA0007           = "BTRA_0007"
	CodeBTRA0009           = "BTRA_0009"
	CodeBTRA0010           = "BTRA_0010"
	CodeBTRA0013           = "BTRA_0013"
	CodeBTRA0031           = "BTRA_0031"
	CodeBTRA0032           = "BTRA_0032"
	CodeBTRA0037           = "BTRA_0037"
	CodeBTRA0038           = "BTRA_0038"
	CodeBTRA0039           = "BTRA_0039"
	CodeBTRA0040           = "BTRA_0040"
	CodeBTRA9998           = "BTRA_9998"
	CodeBTRA9999           = "BTRA_9999"
)

// errorCodeKinds maps upstream error codes to the kind of error they represent.
var errorCodeKinds = map[string]ErrorKind{
	CodeTokenInvalidHeader: KindAuthentication,
	CodeTokenExpired:       KindAuthentication,
	CodeBTRA0401:           KindAuthentication,
	CodeBTRA0402:           KindAuthentication,
	CodeBTRA0403:           KindAuthentication,
	CodeBTRA0017:           KindAuthentication,

	CodeBTRA0001: KindValidation,
	CodeBTRA0004: KindValidation,
	CodeBTRA0006: KindValidation,
	CodeBTRA0013: KindValidation,
	CodeBTRA0038: KindValidation,
	CodeBTRA0040: KindValidation,

	CodeBTRA0007: KindTransaction,
	CodeBTRA0031: KindTransaction,
	CodeBTRA0032: KindTransaction,
	CodeBTRA0037: KindTransaction,
	CodeBTRA0039: KindTransaction,

	CodeBTRA0003: KindInvalidRequest,
	CodeBTRA0009: KindInvalidRequest,
	CodeBTRA0010: KindInvalidRequest,

	CodeBTRA9998: KindNetwork,
	CodeBTRA9999: KindInternal,
}

var errorCodeDescriptions = map[string]string{
	CodeTokenInvalidHeader: "No authorization header provided",
	CodeTokenExpired:       "Authorization token has expired",
	CodeBTRA0401:           "Authorization token issue",
	CodeBTRA0402:           "Authorization token issue",
	CodeBTRA0403:           "Authorization token issue",
	CodeBTRA0017:           "Invalid authorization token",
	CodeBTRA0001:           "Amount is below minimum ($1.00)",
	CodeBTRA0003:           "Customer card cannot be the same as business card",
	CodeBTRA0004:           "Amount exceeds maximum limit ($1,500.00)",
	CodeBTRA0006:           "Invalid format or required body missing",
	CodeBTRA0007:           "Transaction ID does not exist",
	CodeBTRA0009:           "Business is not active",
	CodeBTRA0010:           "Business is not active",
	CodeBTRA0013:           "Amount cannot be zero",
	CodeBTRA0031:           "Ecommerce ID does not exist",
	CodeBTRA0032:           "E-commerce transaction status is not confirmed",
	CodeBTRA0037:           "Cannot confirm cancelled or failed transaction",
	CodeBTRA0038:           "Metadata exceeds 40 characters",
	CodeBTRA0039:           "Transaction timeout has expired",
	CodeBTRA0040:           "Message exceeds 50 characters",
	CodeBTRA9998:           "Communication error with ATH Móvil services",
	CodeBTRA9999:           "Internal server error",
}

// ErrorCodeDescription returns the documented meaning of an upstream error code.
func ErrorCodeDescription(code string) (string, bool) {
	desc, ok := errorCodeDescriptions[code]
	return desc, ok
}
