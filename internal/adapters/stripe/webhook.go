package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook payloads are trusted only after their signature checks out; the
// browser redirect back from checkout is never a state-changing signal.

var (
	ErrBadSignature = errors.New("stripe: webhook signature verification failed")
	ErrStaleEvent   = errors.New("stripe: webhook timestamp outside tolerance")
)

const EventCheckoutCompleted = "checkout.session.completed"

// Event is the subset of a webhook event we act on.
type Event struct {
	Type    string
	Session EventSession
}

type EventSession struct {
	ID            string
	PaymentIntent string
	PaymentStatus string
	BookingID     int64
	UserID        int64
}

// WebhookVerifier checks the Stripe-Signature header scheme:
// "t=<unix>,v1=<hex hmac-sha256 of '<t>.<body>'>".
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret), tolerance: 5 * time.Minute, now: time.Now}
}

// ConstructEvent verifies the signature and decodes the event. It fails
// closed: an empty secret verifies nothing.
func (v *WebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	if len(v.secret) == 0 {
		return Event{}, ErrBadSignature
	}
	ts, sigs, err := parseSigHeader(sigHeader)
	if err != nil {
		return Event{}, err
	}
	if d := v.now().Sub(time.Unix(ts, 0)); d > v.tolerance || d < -v.tolerance {
		return Event{}, ErrStaleEvent
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	ok := false
	for _, s := range sigs {
		raw, err := hex.DecodeString(s)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, ErrBadSignature
	}
	return decodeEvent(payload)
}

func parseSigHeader(h string) (ts int64, v1s []string, err error) {
	for _, part := range strings.Split(h, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, ErrBadSignature
			}
		case "v1":
			v1s = append(v1s, val)
		}
	}
	if ts == 0 || len(v1s) == 0 {
		return 0, nil, ErrBadSignature
	}
	return ts, v1s, nil
}

func decodeEvent(payload []byte) (Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentIntent string `json:"payment_intent"`
				PaymentStatus string `json:"payment_status"`
				Metadata      struct {
					BookingID string `json:"booking_id"`
					UserID    string `json:"user_id"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	bid, _ := strconv.ParseInt(raw.Data.Object.Metadata.BookingID, 10, 64)
	uid, _ := strconv.ParseInt(raw.Data.Object.Metadata.UserID, 10, 64)
	return Event{
		Type: raw.Type,
		Session: EventSession{
			ID:            raw.Data.Object.ID,
			PaymentIntent: raw.Data.Object.PaymentIntent,
			PaymentStatus: raw.Data.Object.PaymentStatus,
			BookingID:     bid,
			UserID:        uid,
		},
	}, nil
}
