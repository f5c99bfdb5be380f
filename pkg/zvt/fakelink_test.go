package zvt

import (
	"context"
	"sync"
)

// fakeLink is a minimal in-memory LinkChannel test double. sendOutcome
// (and sendErr) control what Send returns; every sent package is
// recorded for assertion. Inbound packages are delivered by calling
// deliver, which invokes whatever callback the client last registered
// via OnPackage — mirroring a real LinkChannel's reader task.
type fakeLink struct {
	mu sync.Mutex

	sendOutcome SendOutcome
	sendErr     error
	sent        [][]byte

	onPackage func(pkg []byte)
	closed    bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{sendOutcome: AcknowledgeReceived}
}

func (f *fakeLink) Send(ctx context.Context, pkg []byte) (SendOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), pkg...)
	f.sent = append(f.sent, cp)
	return f.sendOutcome, f.sendErr
}

func (f *fakeLink) OnPackage(fn func(pkg []byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPackage = fn
}

func (f *fakeLink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// deliver simulates one inbound application package arriving from the PT.
func (f *fakeLink) deliver(raw []byte) {
	f.mu.Lock()
	fn := f.onPackage
	f.mu.Unlock()
	if fn != nil {
		fn(raw)
	}
}

func (f *fakeLink) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeLink) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
