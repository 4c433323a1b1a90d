package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
	"github.com/GerardoICS-Microservices/orders-microservice/pkg/rabbitmq"
)

// createPaymentSessionQueue is the request queue served by the payments
// service.
const createPaymentSessionQueue = "payments.create_session"

// PaymentSessionRequester asks the payment service for a checkout session
// covering one order. The session's lifecycle beyond creation is owned by the
// payment service.
type PaymentSessionRequester interface {
	CreateSession(ctx context.Context, req models.PaymentSessionRequest) (*models.PaymentSession, error)
}

// AMQPPaymentSessionRequester calls the payments service over RabbitMQ
// request/reply.
type AMQPPaymentSessionRequester struct {
	mq      *rabbitmq.Client
	timeout time.Duration
}

// NewAMQPPaymentSessionRequester creates a payment client with a bounded
// per-call timeout.
func NewAMQPPaymentSessionRequester(mq *rabbitmq.Client, timeout time.Duration) *AMQPPaymentSessionRequester {
	return &AMQPPaymentSessionRequester{
		mq:      mq,
		timeout: timeout,
	}
}

// CreateSession performs a single remote call with no retry; failures are
// client-classified payment-request errors for the orchestrator's caller.
func (p *AMQPPaymentSessionRequester) CreateSession(ctx context.Context, req models.PaymentSessionRequest) (*models.PaymentSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPaymentRequest, err, "failed to encode payment session request")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.mq.Request(ctx, createPaymentSessionQueue, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPaymentRequest, err, "payment session request failed")
	}

	var session models.PaymentSession
	if err := json.Unmarshal(reply, &session); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPaymentRequest, err, "failed to decode payment session")
	}
	if session.ID == "" {
		if msg := remoteErrorMessage(reply); msg != "" {
			return nil, apperrors.New(apperrors.KindPaymentRequest, "payment session creation failed: %s", msg)
		}
		return nil, apperrors.New(apperrors.KindPaymentRequest, "payment service returned an empty session")
	}
	return &session, nil
}
