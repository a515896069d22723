package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	// ErrInvalidSignature means the payload was not signed with the shared secret.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedEvent means an authentic payload could not be decoded.
	ErrMalformedEvent = errors.New("malformed event")
)

// SignatureHeader is the request header carrying the Stripe signature.
const SignatureHeader = "Stripe-Signature"

// Verifier authenticates raw webhook payloads against the endpoint secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:    secret,
		tolerance: webhook.DefaultTolerance,
	}
}

// WithTolerance overrides the accepted signature age.
func (v *Verifier) WithTolerance(d time.Duration) *Verifier {
	v.tolerance = d
	return v
}

// Verify checks the signature over the exact payload bytes and then parses
// the event envelope. The payload is never re-serialized before the check.
func (v *Verifier) Verify(payload []byte, signature string) (stripe.Event, error) {
	var event stripe.Event
	if v.secret == "" {
		return event, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, v.secret, v.tolerance); err != nil {
		return event, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Type == "" {
		return event, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return event, nil
}
