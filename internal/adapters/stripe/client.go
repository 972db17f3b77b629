package stripe

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"unistay/internal/adapters/observability"
	"unistay/internal/domain"
)

// Client talks to the Stripe REST API (form-encoded requests, JSON
// responses). Only the Checkout Session surface is implemented.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrUnauthorized = errors.New("stripe: unauthorized")
	ErrNotFound     = errors.New("stripe: not found")
)

// session is the subset of Stripe's checkout session payload we read.
type session struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	PaymentStatus string `json:"payment_status"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, in domain.CheckoutInput) (domain.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", in.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.Name)
	form.Set("line_items[0][price_data][product_data][description]", in.Description)
	form.Set("metadata[booking_id]", strconv.FormatInt(in.BookingID, 10))
	form.Set("metadata[user_id]", strconv.FormatInt(in.UserID, 10))
	form.Set("customer_email", in.CustomerEmail)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)

	var out session
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", form, &out); err != nil {
		return domain.CheckoutSession{}, err
	}
	return toDomain(out), nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (domain.CheckoutSession, error) {
	var out session
	if err := c.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return domain.CheckoutSession{}, err
	}
	return toDomain(out), nil
}

func toDomain(s session) domain.CheckoutSession {
	return domain.CheckoutSession{
		ID:              s.ID,
		PaymentIntentID: s.PaymentIntent,
		URL:             s.URL,
		PaymentStatus:   s.PaymentStatus,
	}
}

// do performs one API call with client-side rate limiting and retries on
// 429 and transient 5xx, honoring Retry-After when provided. POSTs carry
// an idempotency key so a retried create cannot double-charge.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	idemKey := ""
	if method == http.MethodPost {
		idemKey = uuid.NewString()
	}

	endpoint := endpointLabel(path)
	var lastErr error
	for i := 0; i < 4; i++ {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if idemKey != "" {
			req.Header.Set("Idempotency-Key", idemKey)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("stripe", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("stripe %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// Stripe error bodies carry {"error":{"message":...}}; keep a slice
			// of it for diagnostics.
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("stripe status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func endpointLabel(path string) string {
	// keep label cardinality bounded: strip ids from the path
	if strings.HasPrefix(path, "/checkout/sessions/") {
		return "/checkout/sessions/{id}"
	}
	return path
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// Base doubles each attempt (200ms, 400ms, 800ms...), with up to +50%
// random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
