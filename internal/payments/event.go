package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

var ErrBadPayload = errors.New("payments: malformed event")

// MetadataProjectID is the metadata key the checkout session is created with.
const MetadataProjectID = "project_id"

type WebhookEventObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object WebhookEventObject `json:"object"`
	} `json:"data"`
}

// ProjectID returns the portal project the payment belongs to, if any.
func (e WebhookEvent) ProjectID() string {
	return strings.TrimSpace(e.Data.Object.Metadata[MetadataProjectID])
}

// ParseEvent decodes a webhook body. The event id is required.
func ParseEvent(payload []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return WebhookEvent{}, fmt.Errorf("%w: id and type are required", ErrBadPayload)
	}
	return ev, nil
}
