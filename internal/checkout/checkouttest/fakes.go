package checkouttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/payment"
	"github.com/segmentio/kafka-go"
)

// Payments is a scripted payment.Provider. Intents start unpaid; Succeed
// flips one to succeeded.
type Payments struct {
	mu      sync.Mutex
	intents map[string]*payment.Intent
	seq     int

	FailCreate error
	FailGet    error
}

func NewPayments() *Payments { return &Payments{intents: map[string]*payment.Intent{}} }

func (p *Payments) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCreate != nil {
		return nil, p.FailCreate
	}
	p.seq++
	id := fmt.Sprintf("pi_test_%d", p.seq)
	in := &payment.Intent{ID: id, ClientSecret: id + "_secret", AmountCents: req.AmountCents, Currency: req.Currency}
	p.intents[id] = in
	cp := *in
	return &cp, nil
}

func (p *Payments) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailGet != nil {
		return nil, p.FailGet
	}
	in, ok := p.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent: " + id)
	}
	cp := *in
	return &cp, nil
}

func (p *Payments) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "valid" {
		return nil, payment.ErrBadSignature
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := &payment.Event{ID: "evt_" + string(payload), Type: payment.EventPaymentSucceeded, PaymentRef: string(payload)}
	if in, ok := p.intents[ev.PaymentRef]; ok {
		ev.AmountCents = in.AmountCents
	}
	return ev, nil
}

// Succeed registers id as a succeeded intent for amount.
func (p *Payments) Succeed(id string, amountCents int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id] = &payment.Intent{ID: id, AmountCents: amountCents, Succeeded: true}
}

// Notifier records PackReady calls.
type Notifier struct {
	mu   sync.Mutex
	sent []orders.PackReadyPayload
	Err  error
}

func (n *Notifier) PackReady(_ context.Context, p orders.PackReadyPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, p)
	return n.Err
}

func (n *Notifier) Sent() []orders.PackReadyPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]orders.PackReadyPayload(nil), n.sent...)
}

// Publisher captures kafka messages instead of writing them. Err makes
// PublishSync fail the way an unreachable broker does.
type Publisher struct {
	mu       sync.Mutex
	Messages []kafka.Message
	Err      error
}

func (p *Publisher) PublishSync(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	if p.Err != nil {
		return p.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Publish(key, value, headers...)
	return nil
}

func (p *Publisher) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, kafka.Message{Key: key, Value: value, Headers: headers})
}

// SyncDispatcher runs the build on the caller goroutine.
type SyncDispatcher struct {
	Build func(ctx context.Context, orderID, packID string) error
	Err   error
	Calls int
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, orderID, packID string) error {
	d.Calls++
	if d.Err != nil {
		return d.Err
	}
	if d.Build == nil {
		return nil
	}
	return d.Build(ctx, orderID, packID)
}

// Dedup is an in-memory first-writer-wins set.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *Dedup) Seen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[id] {
		return true, nil
	}
	d.seen[id] = true
	return false, nil
}

func (d *Dedup) Forget(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}
