package zvt

import (
	"context"
	"testing"
	"time"
)

func newTestDecoder(t *testing.T) *ReplyDecoder {
	t.Helper()
	d, err := NewReplyDecoder(EncodingUTF8, NewErrorCatalog(), NewStatusCatalog(LanguageEnglish), nil)
	if err != nil {
		t.Fatalf("NewReplyDecoder() error = %v", err)
	}
	return d
}

func TestCommandSession_Completion(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	go d.Decode(Package{ControlField: CFCompletion, Payload: nil})

	resp := s.wait(context.Background(), time.Second)
	if resp.State != StateSuccessful {
		t.Errorf("State = %v, want Successful", resp.State)
	}
	assertNoSubscriptions(t, d)
}

func TestCommandSession_Abort(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	go d.Decode(Package{ControlField: CFAbort, Payload: []byte{0x6C}})

	resp := s.wait(context.Background(), time.Second)
	if resp.State != StateAbort {
		t.Errorf("State = %v, want Abort", resp.State)
	}
	if resp.ErrorMessage != "Card not readable" {
		t.Errorf("ErrorMessage = %q, want %q", resp.ErrorMessage, "Card not readable")
	}
	assertNoSubscriptions(t, d)
}

func TestCommandSession_NotSupported(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	go d.NotSupported()

	resp := s.wait(context.Background(), time.Second)
	if resp.State != StateNotSupported {
		t.Errorf("State = %v, want NotSupported", resp.State)
	}
	assertNoSubscriptions(t, d)
}

func TestCommandSession_Timeout(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	resp := s.wait(context.Background(), 10*time.Millisecond)
	if resp.State != StateTimeout {
		t.Errorf("State = %v, want Timeout", resp.State)
	}
	assertNoSubscriptions(t, d)
}

func TestCommandSession_Cancelled(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := s.wait(ctx, time.Second)
	if resp.State != StateError || resp.ErrorMessage != "Cancelled" {
		t.Errorf("resp = %+v, want Error(Cancelled)", resp)
	}
	assertNoSubscriptions(t, d)
}

func TestCommandSession_TimerResetsOnActivity(t *testing.T) {
	d := newTestDecoder(t)
	s := newCommandSession(d)

	done := make(chan struct{})
	go func() {
		time.Sleep(15 * time.Millisecond)
		d.Decode(Package{ControlField: CFIntermediateStatus, Payload: []byte{0x01}})
		time.Sleep(15 * time.Millisecond)
		d.Decode(Package{ControlField: CFCompletion})
		close(done)
	}()

	resp := s.wait(context.Background(), 20*time.Millisecond)
	<-done
	if resp.State != StateSuccessful {
		t.Errorf("State = %v, want Successful (timeout should have been reset by activity)", resp.State)
	}
}

func assertNoSubscriptions(t *testing.T, d *ReplyDecoder) {
	t.Helper()
	if n := d.completionReceived.Len(); n != 0 {
		t.Errorf("completionReceived has %d leftover subscribers", n)
	}
	if n := d.abortReceived.Len(); n != 0 {
		t.Errorf("abortReceived has %d leftover subscribers", n)
	}
	if n := d.notSupportedReceived.Len(); n != 0 {
		t.Errorf("notSupportedReceived has %d leftover subscribers", n)
	}
	if n := d.StatusInformationReceived.Len(); n != 0 {
		t.Errorf("StatusInformationReceived has %d leftover subscribers", n)
	}
	if n := d.IntermediateStatusReceived.Len(); n != 0 {
		t.Errorf("IntermediateStatusReceived has %d leftover subscribers", n)
	}
}
