package athmovil

import "net/http"

const unknownErrorMessage = "Unknown error"

// Classify converts an error body and its HTTP status into an *Error. The upstream
// error code wins when it is known; otherwise the status code decides.
func Classify(body map[string]any, statusCode int) *Error {
	message := unknownErrorMessage
	if m, ok := body["message"].(string); ok {
		message = m
	}
	code, _ := body["errorcode"].(string)

	kind, ok := errorCodeKinds[code]
	if !ok {
		kind = kindForStatus(statusCode)
	}

	return &Error{
		Kind:       kind,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Body:       body,
	}
}

func kindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusUnauthorized:
		return KindAuthentication
	case statusCode == http.StatusBadRequest:
		return KindValidation
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= http.StatusInternalServerError:
		return KindInternal
	default:
		return KindUnknown
	}
}
