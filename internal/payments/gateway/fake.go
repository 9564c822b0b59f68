package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-process Gateway for tests and local runs. Intents start in
// requires_payment_method and succeed when Succeed is called.
type Fake struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	refunded map[string]int64
	byKey    map[string]Refund
	Secret   string
	Refunds  []Refund
	Calls    map[string]int
	FailNext map[string]error
	AutoPaid bool
}

func NewFake() *Fake {
	return &Fake{
		intents:  make(map[string]*Intent),
		refunded: make(map[string]int64),
		byKey:    make(map[string]Refund),
		Secret:   "whsec_test",
		Calls:    make(map[string]int),
		FailNext: make(map[string]error),
	}
}

func (f *Fake) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls["create_intent"]++
	if err := f.takeFailure("create_intent"); err != nil {
		return nil, err
	}

	id := "pi_" + uuid.NewString()
	status := IntentStatusRequiresMethod
	if f.AutoPaid {
		status = IntentStatusSucceeded
	}
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       status,
		Amount:       amount,
		Currency:     currency,
		Metadata:     meta,
	}
	f.intents[id] = intent
	cp := *intent
	return &cp, nil
}

func (f *Fake) RetrieveIntent(_ context.Context, id string) (*Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls["retrieve_intent"]++
	if err := f.takeFailure("retrieve_intent"); err != nil {
		return nil, err
	}

	intent, ok := f.intents[id]
	if !ok {
		return nil, &Error{Op: "retrieve_intent", StatusCode: 404, Err: ErrIntentNotFound}
	}
	cp := *intent
	return &cp, nil
}

func (f *Fake) CreateRefund(ctx context.Context, intentID string, amount *int64, _ RefundReason) (*Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls["create_refund"]++
	if err := f.takeFailure("create_refund"); err != nil {
		return nil, err
	}

	key, hasKey := IdempotencyKey(ctx)
	if prior, ok := f.byKey[key]; hasKey && ok {
		return &prior, nil
	}

	intent, ok := f.intents[intentID]
	if !ok || intent.Status != IntentStatusSucceeded {
		return nil, &Error{Op: "create_refund", StatusCode: 400, Err: fmt.Errorf("intent %s is not refundable", intentID)}
	}

	value := intent.Amount - f.refunded[intentID]
	if amount != nil {
		value = *amount
	}
	if value <= 0 || f.refunded[intentID]+value > intent.Amount {
		return nil, &Error{Op: "create_refund", StatusCode: 400, Err: fmt.Errorf("refund exceeds captured amount")}
	}
	f.refunded[intentID] += value

	r := Refund{ID: "re_" + uuid.NewString(), Status: "succeeded", Amount: value}
	f.Refunds = append(f.Refunds, r)
	if hasKey {
		f.byKey[key] = r
	}
	return &r, nil
}

func (f *Fake) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == f.Secret
}

type fakeWebhookPayload struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	IntentID      string `json:"intent_id"`
	FailureReason string `json:"failure_reason"`
}

// DecodeWebhookEvent reads {"id","type","intent_id","failure_reason"} where
// type is one of the WebhookEventType values.
func (f *Fake) DecodeWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var p fakeWebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &WebhookEvent{
		ID:            p.ID,
		Type:          WebhookEventType(p.Type),
		IntentID:      p.IntentID,
		FailureReason: p.FailureReason,
	}, nil
}

// Succeed marks the intent as paid.
func (f *Fake) Succeed(id string) {
	f.setStatus(id, IntentStatusSucceeded)
}

func (f *Fake) SetStatus(id, status string) {
	f.setStatus(id, status)
}

func (f *Fake) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if intent, ok := f.intents[id]; ok {
		intent.Status = status
	}
}

// PutIntent registers an intent created outside the fake, e.g. with
// hand-written metadata.
func (f *Fake) PutIntent(intent Intent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[intent.ID] = &intent
}

// FailOn makes the next call of op return err.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailNext[op] = err
}

func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *Fake) takeFailure(op string) error {
	err, ok := f.FailNext[op]
	if ok {
		delete(f.FailNext, op)
	}
	return err
}
