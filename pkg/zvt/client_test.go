package zvt

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, link LinkChannel) *ZvtClient {
	t.Helper()
	c, err := New(Config{Password: 0, CommandCompletionTimeout: time.Second}, link)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// TestClient_Payment_Scenario1 matches spec scenario 1: amount 1.23 EUR
// encodes to 06 01 07 04 00 00 00 00 01 23.
func TestClient_Payment_Scenario1(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.Payment(context.Background(), decimal.NewFromFloat(1.23))
		if err != nil {
			t.Errorf("Payment() error = %v", err)
		}
		if resp.State != StateSuccessful {
			t.Errorf("State = %v, want Successful", resp.State)
		}
	}()

	waitForSend(t, link, 1)
	link.deliver(Build(CFCompletion, nil))
	wg.Wait()

	want := []byte{0x06, 0x01, 0x07, 0x04, 0x00, 0x00, 0x00, 0x00, 0x01, 0x23}
	if got := link.lastSent(); !bytes.Equal(got, want) {
		t.Errorf("sent = % X, want % X", got, want)
	}
}

// TestClient_Reversal_Scenario3 matches spec scenario 3: password 000000,
// receipt 42. spec.md literally shows LEN 07 (06 30 07 00 00 00 87 00
// 42), but that's inconsistent with its own 6-byte payload; the correct
// encoding, and what the encoder actually emits, is LEN 06.
func TestClient_Reversal_Scenario3(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	done := make(chan CommandResponse, 1)
	go func() {
		resp, _ := c.Reversal(context.Background(), 42)
		done <- resp
	}()

	waitForSend(t, link, 1)
	link.deliver(Build(CFCompletion, nil))
	resp := <-done

	if resp.State != StateSuccessful {
		t.Fatalf("State = %v, want Successful", resp.State)
	}

	// spec.md scenario 3 literally shows LEN 07 here, which is internally
	// inconsistent with its own 6-byte payload (pwd ‖ 87 ‖ receipt) and
	// with §3's LEN == len(payload) invariant; LEN 06 is what a
	// spec-compliant encoder emits for this payload.
	want := []byte{0x06, 0x30, 0x06, 0x00, 0x00, 0x00, 0x87, 0x00, 0x42}
	if got := link.lastSent(); !bytes.Equal(got, want) {
		t.Errorf("sent = % X, want % X", got, want)
	}
}

// TestClient_Completion_NoStatusEvent matches spec scenario 4: an empty
// Completion resolves Successful and fires no StatusInformation event.
func TestClient_Completion_NoStatusEvent(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	var statusFired bool
	h := c.StatusInformationReceived.Subscribe(func(StatusInformation) { statusFired = true })
	defer c.StatusInformationReceived.Unsubscribe(h)

	done := make(chan CommandResponse, 1)
	go func() {
		resp, _ := c.Payment(context.Background(), decimal.NewFromInt(1))
		done <- resp
	}()

	waitForSend(t, link, 1)
	link.deliver(Build(CFCompletion, nil))
	resp := <-done

	if resp.State != StateSuccessful {
		t.Fatalf("State = %v, want Successful", resp.State)
	}
	if statusFired {
		t.Error("StatusInformationReceived fired on an empty Completion payload")
	}
}

// TestClient_Abort_CardNotReadable matches spec scenario 5: inbound Abort
// with code 0x6C resolves Abort("Card not readable").
func TestClient_Abort_CardNotReadable(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	done := make(chan CommandResponse, 1)
	go func() {
		resp, _ := c.Payment(context.Background(), decimal.NewFromInt(1))
		done <- resp
	}()

	waitForSend(t, link, 1)
	link.deliver(Build(CFAbort, []byte{0x6C}))
	resp := <-done

	if resp.State != StateAbort {
		t.Fatalf("State = %v, want Abort", resp.State)
	}
	if resp.ErrorMessage != "Card not readable" {
		t.Errorf("ErrorMessage = %q, want %q", resp.ErrorMessage, "Card not readable")
	}
}

// TestClient_UnsolicitedPrintLineAfterLogOff matches spec scenario 6:
// after LogOff resolves on ACK, an unsolicited PrintLine still fires
// LineReceived even though no command is in flight.
func TestClient_UnsolicitedPrintLineAfterLogOff(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	lines := make(chan PrintLine, 1)
	c.LineReceived.Subscribe(func(l PrintLine) { lines <- l })

	resp, err := c.LogOff(context.Background())
	if err != nil {
		t.Fatalf("LogOff() error = %v", err)
	}
	if resp.State != StateSuccessful {
		t.Fatalf("State = %v, want Successful", resp.State)
	}

	link.deliver(Build(CFPrintLine, []byte{0x81, 0x48, 0x65, 0x6C, 0x6C}))

	select {
	case l := <-lines:
		if !l.Last {
			t.Error("Last = false, want true (attribute 0x81)")
		}
		if l.Text != "Hell" {
			t.Errorf("Text = %q, want %q", l.Text, "Hell")
		}
	case <-time.After(time.Second):
		t.Fatal("LineReceived never fired")
	}
}

// TestClient_Busy rejects a second concurrent command while one is
// already in flight.
func TestClient_Busy(t *testing.T) {
	link := newFakeLink()
	c := newTestClient(t, link)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Payment(context.Background(), decimal.NewFromInt(1))
	}()

	waitForSend(t, link, 1)

	_, err := c.Payment(context.Background(), decimal.NewFromInt(1))
	if err != ErrBusy {
		t.Errorf("second Payment err = %v, want ErrBusy", err)
	}

	link.deliver(Build(CFCompletion, nil))
	wg.Wait()
}

func waitForSend(t *testing.T, link *fakeLink, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if link.sentCount() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sent package(s)", n)
}
