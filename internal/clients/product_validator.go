package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
	"github.com/GerardoICS-Microservices/orders-microservice/pkg/rabbitmq"
)

// validateProductsQueue is the request queue served by the products service.
const validateProductsQueue = "products.validate"

// ProductValidator resolves product ids against the service of record for
// product existence, price and name.
type ProductValidator interface {
	Validate(ctx context.Context, productIDs []string) ([]models.ValidatedProduct, error)
}

// AMQPProductValidator calls the products service over RabbitMQ request/reply.
type AMQPProductValidator struct {
	mq      *rabbitmq.Client
	timeout time.Duration
}

// NewAMQPProductValidator creates a validator client with a bounded per-call
// timeout.
func NewAMQPProductValidator(mq *rabbitmq.Client, timeout time.Duration) *AMQPProductValidator {
	return &AMQPProductValidator{
		mq:      mq,
		timeout: timeout,
	}
}

// Validate sends the product ids as-is (duplicates included) and returns the
// validated records. Any transport or remote-side failure is reported as a
// single client-classified validation error carrying the upstream message.
func (v *AMQPProductValidator) Validate(ctx context.Context, productIDs []string) ([]models.ValidatedProduct, error) {
	body, err := json.Marshal(productIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to encode product ids")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	reply, err := v.mq.Request(ctx, validateProductsQueue, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "product validation request failed")
	}

	if msg := remoteErrorMessage(reply); msg != "" {
		return nil, apperrors.New(apperrors.KindValidation, "product validation failed: %s", msg)
	}

	var products []models.ValidatedProduct
	if err := json.Unmarshal(reply, &products); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to decode validated products")
	}
	return products, nil
}

// remoteErrorMessage extracts the error message from an RPC error envelope,
// or returns "" when the reply is a normal payload.
func remoteErrorMessage(reply []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(reply, &env); err != nil {
		return "" // not an envelope; arrays and scalars land here
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}
