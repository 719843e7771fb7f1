package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

// WebhookHandler accepts ATH Móvil webhook deliveries through API Gateway, normalizes
// them and forwards the canonical payload downstream.
type WebhookHandler struct {
	forward CallbackSender
	logger  *zap.Logger
}

// NewWebhookHandler builds a WebhookHandler. A nil logger discards output.
func NewWebhookHandler(forward CallbackSender, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{forward: forward, logger: logger}
}

// Handle implements the AWS Lambda handler entry point. Invalid payloads are answered
// with 400 so the sender does not retry them; forwarding failures with 500 so it does.
func (h *WebhookHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			h.logger.Warn("webhook body is not valid base64", zap.Error(err))
			return jsonResponse(http.StatusBadRequest, map[string]string{"error": "invalid body encoding"}), nil
		}
		body = decoded
	}

	payload, err := athmovil.ParseWebhook(body)
	if err != nil {
		if errors.Is(err, athmovil.ErrValidation) {
			h.logger.Warn("rejected webhook payload", zap.String("request_id", req.RequestContext.RequestID), zap.Error(err))
			return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
		}
		return events.APIGatewayProxyResponse{}, err
	}

	log := h.logger.With(
		zap.String("transaction_type", string(payload.TransactionType)),
		zap.String("status", string(payload.Status)),
		zap.String("reference_number", payload.ReferenceNumber),
		zap.String("ecommerce_id", payload.EcommerceID),
	)
	log.Info("webhook received", zap.String("total", payload.Total.StringFixed(2)))

	if h.forward != nil {
		if err := h.forward.Send(ctx, EventWebhookReceived, payload); err != nil {
			log.Error("webhook forwarding failed", zap.Error(err))
			return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "forwarding failed"}), nil
		}
	}

	return jsonResponse(http.StatusOK, map[string]bool{"received": true}), nil
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	data, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
