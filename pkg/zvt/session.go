package zvt

import (
	"context"
	"time"
)

// CommandSession is the per-command state machine described in §4.7: it
// wires one in-flight command to whichever decoder event eventually
// terminates it, and guarantees every subscription it creates is removed
// on every exit path.
//
// A session's lifetime spans exactly one sendCommand call. It is never
// reused.
type CommandSession struct {
	decoder *ReplyDecoder

	resultCh chan CommandResponse
	activity chan struct{}

	completionHandle   Handle
	abortHandle        Handle
	notSupportedHandle Handle

	statusHandle Handle
	interimHandle Handle
	lineHandle    Handle
	receiptHandle Handle
}

// newCommandSession subscribes to the decoder's termination events and to
// its public notification events, the latter solely to reset the
// command-completion timer on inbound activity — a recommended, not
// mandated, deviation (§9) for PTs with long interactive flows (e.g. card
// insertion) that would otherwise exceed the default timeout.
func newCommandSession(decoder *ReplyDecoder) *CommandSession {
	s := &CommandSession{
		decoder:  decoder,
		resultCh: make(chan CommandResponse, 1),
		activity: make(chan struct{}, 1),
	}

	s.completionHandle = decoder.completionReceived.Subscribe(func(StatusInformation) {
		s.deliver(successResponse())
	})
	s.abortHandle = decoder.abortReceived.Subscribe(func(resp CommandResponse) {
		s.deliver(resp)
	})
	s.notSupportedHandle = decoder.notSupportedReceived.Subscribe(func(struct{}) {
		s.deliver(notSupportedResponse())
	})

	s.statusHandle = decoder.StatusInformationReceived.Subscribe(func(StatusInformation) { s.markActivity() })
	s.interimHandle = decoder.IntermediateStatusReceived.Subscribe(func(IntermediateStatus) { s.markActivity() })
	s.lineHandle = decoder.LineReceived.Subscribe(func(PrintLine) { s.markActivity() })
	s.receiptHandle = decoder.ReceiptReceived.Subscribe(func(PrintTextBlock) { s.markActivity() })

	return s
}

func (s *CommandSession) deliver(resp CommandResponse) {
	select {
	case s.resultCh <- resp:
	default:
		// A terminal event already arrived (e.g. Completion racing a late
		// Abort) — the first one delivered wins, as intended by resultCh
		// being buffered exactly once.
	}
}

func (s *CommandSession) markActivity() {
	select {
	case s.activity <- struct{}{}:
	default:
	}
}

// unsubscribe removes every handler this session registered. It is safe
// to call more than once.
func (s *CommandSession) unsubscribe() {
	s.decoder.completionReceived.Unsubscribe(s.completionHandle)
	s.decoder.abortReceived.Unsubscribe(s.abortHandle)
	s.decoder.notSupportedReceived.Unsubscribe(s.notSupportedHandle)
	s.decoder.StatusInformationReceived.Unsubscribe(s.statusHandle)
	s.decoder.IntermediateStatusReceived.Unsubscribe(s.interimHandle)
	s.decoder.LineReceived.Unsubscribe(s.lineHandle)
	s.decoder.ReceiptReceived.Unsubscribe(s.receiptHandle)
}

// wait blocks until completion, abort, not-supported, ctx cancellation,
// or timeout — whichever comes first — always unsubscribing before it
// returns (§4.7 step 5, §8 invariant: every CommandSession subscription is
// released before sendCommand returns).
func (s *CommandSession) wait(ctx context.Context, timeout time.Duration) CommandResponse {
	defer s.unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case resp := <-s.resultCh:
			return resp
		case <-ctx.Done():
			return errorResponse("Cancelled")
		case <-s.activity:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
		case <-timer.C:
			return timeoutResponse()
		}
	}
}
