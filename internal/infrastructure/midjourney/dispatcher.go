package midjourney

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"jan-server/services/midjourney-api/internal/domain/generation"
)

type outcome struct {
	job *generation.Job
	err error
}

// waiter waits for the finished message of one interaction.
type waiter struct {
	nonce string
	// key is the normalized prompt the result must carry.
	key string
	// reference is the message a custom action was applied to.
	reference string
	// linked holds the ids of messages created for this nonce.
	linked map[string]struct{}
	done   chan outcome
}

func newWaiter(nonce, key, reference string) *waiter {
	return &waiter{
		nonce:     nonce,
		key:       key,
		reference: reference,
		linked:    make(map[string]struct{}),
		done:      make(chan outcome, 1),
	}
}

func (w *waiter) resolve(o outcome) {
	select {
	case w.done <- o:
	default:
	}
}

func (w *waiter) wait(ctx context.Context) (*generation.Job, error) {
	select {
	case o := <-w.done:
		return o.job, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *waiter) matches(msg gatewayMessage) bool {
	if _, ok := w.linked[msg.ID]; ok {
		return true
	}
	if w.reference != "" {
		if msg.ID == w.reference {
			return false
		}
		if msg.ReferenceID == w.reference {
			return true
		}
	}
	return w.key != "" && promptKey(msg.Content) == w.key
}

// observe returns true once the waiter is resolved.
func (w *waiter) observe(msg gatewayMessage) bool {
	if msg.Nonce != "" && msg.Nonce == w.nonce {
		w.linked[msg.ID] = struct{}{}
	}
	if !w.matches(msg) {
		return false
	}
	if msg.ErrorText != "" {
		w.resolve(outcome{err: errors.New(msg.ErrorText)})
		return true
	}
	if !msg.finished() {
		return false
	}
	w.resolve(outcome{job: msg.job()})
	return true
}

// dispatcher routes raw gateway events to the waiters of in-flight interactions.
type dispatcher struct {
	channelID string
	authorID  string
	log       zerolog.Logger

	mu      sync.Mutex
	waiters map[*waiter]struct{}
}

func newDispatcher(channelID, authorID string, log zerolog.Logger) *dispatcher {
	return &dispatcher{
		channelID: channelID,
		authorID:  authorID,
		log:       log,
		waiters:   make(map[*waiter]struct{}),
	}
}

func (d *dispatcher) register(w *waiter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waiters[w] = struct{}{}
}

func (d *dispatcher) unregister(w *waiter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.waiters, w)
}

func (d *dispatcher) handle(eventType string, raw []byte) {
	switch eventType {
	case eventInteractionFailure:
		nonce := gjson.GetBytes(raw, "nonce").String()
		d.each(func(w *waiter) bool {
			if nonce == "" || w.nonce != nonce {
				return false
			}
			w.resolve(outcome{err: errors.New("midjourney rejected the interaction")})
			return true
		})
	case eventMessageCreate, eventMessageUpdate:
		msg := parseMessage(raw)
		if msg.ChannelID != d.channelID {
			return
		}
		// Updates may omit the author.
		if msg.AuthorID != "" && d.authorID != "" && msg.AuthorID != d.authorID {
			return
		}
		if p := msg.progress(); p != "done" {
			d.log.Debug().Str("message_id", msg.ID).Str("progress", p).Msg("job progress")
		}
		d.each(func(w *waiter) bool { return w.observe(msg) })
	}
}

// each calls fn for every waiter and drops those for which it returns true.
func (d *dispatcher) each(fn func(*waiter) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for w := range d.waiters {
		if fn(w) {
			delete(d.waiters, w)
		}
	}
}
