package zvt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zvtgo/zvtclient/pkg/bcd"
)

// DefaultCommandCompletionTimeout bounds how long SendCommand waits for a
// terminal reply after the link layer acknowledges a command. The legacy
// default of 90s is also commonly seen in the field; 5 minutes is the
// value this spec prescribes.
const DefaultCommandCompletionTimeout = 5 * time.Minute

// Config is the caller-supplied configuration for a ZvtClient. It is
// validated once, at New, rather than being loaded from disk — persisted
// configuration is explicitly out of this module's scope.
type Config struct {
	// Password authenticates Registration and most administrative
	// commands (0-999999).
	Password Password
	// CommandCompletionTimeout bounds stage (b) of §4.7's algorithm.
	// Zero means DefaultCommandCompletionTimeout.
	CommandCompletionTimeout time.Duration
	// Encoding selects the text decoder for PrintLine/PrintTextBlock
	// payloads. Zero value is EncodingCP437, the PT default.
	Encoding TextEncoding
	// Language selects the StatusCatalog's preferred language; the
	// ErrorCatalog is English-only regardless (§9 Design Note).
	Language Language
	// ActivateTLVSupport, if true, includes the permitted-commands TLV
	// in Registration so the PT may send PrintTextBlock replies.
	ActivateTLVSupport bool
	// Logger receives decode-error and lifecycle log records. Nil falls
	// back to slog.Default().
	Logger *slog.Logger
}

func (c Config) timeout() time.Duration {
	if c.CommandCompletionTimeout <= 0 {
		return DefaultCommandCompletionTimeout
	}
	return c.CommandCompletionTimeout
}

// ZvtClient is the public façade: typed command methods over one
// LinkChannel, an event surface fed by the ReplyDecoder, and the
// single-in-flight-command lifecycle described in §5.
type ZvtClient struct {
	link     LinkChannel
	decoder  *ReplyDecoder
	password Password
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	active *CommandSession

	// StatusInformationReceived, IntermediateStatusReceived, LineReceived
	// and ReceiptReceived fire from decoder callbacks independently of
	// whether a command is in flight — unsolicited PT-initiated messages
	// are still dispatched (§4.8).
	StatusInformationReceived  *Bus[StatusInformation]
	IntermediateStatusReceived *Bus[IntermediateStatus]
	LineReceived               *Bus[PrintLine]
	ReceiptReceived            *Bus[PrintTextBlock]
}

// New validates cfg, wires decoder <-> link, and returns a ready client.
// No partial client is returned on invalid configuration.
func New(cfg Config, link LinkChannel) (*ZvtClient, error) {
	if cfg.Password > MaxPassword {
		return nil, errInvalidPassword(uint32(cfg.Password))
	}
	if link == nil {
		return nil, fmt.Errorf("zvt: link must not be nil")
	}

	decoder, err := NewReplyDecoder(cfg.Encoding, NewErrorCatalog(), NewStatusCatalog(cfg.Language), cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("zvt: invalid client configuration: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ZvtClient{
		link:                       link,
		decoder:                   decoder,
		password:                  cfg.Password,
		timeout:                   cfg.timeout(),
		logger:                    logger.With(slog.String("component", "zvt.client")),
		StatusInformationReceived:  decoder.StatusInformationReceived,
		IntermediateStatusReceived: decoder.IntermediateStatusReceived,
		LineReceived:               decoder.LineReceived,
		ReceiptReceived:            decoder.ReceiptReceived,
	}

	link.OnPackage(func(raw []byte) {
		pkg, err := Parse(raw)
		if err != nil {
			c.logger.Error("malformed inbound package", "error", err)
			return
		}
		decoder.Decode(pkg)
	})

	return c, nil
}

// Close releases the underlying link channel.
func (c *ZvtClient) Close() error {
	return c.link.Close()
}

// Registration logs the ECR in with the client's configured password and
// the given behavior flags.
func (c *ZvtClient) Registration(ctx context.Context, cfg RegistrationConfig) (CommandResponse, error) {
	payload, err := cfg.payload(c.password)
	if err != nil {
		return CommandResponse{}, err
	}
	return c.sendCommand(ctx, CFRegistration, payload, false)
}

// Payment starts a card payment for amount (major units, e.g. 1.23 EUR).
func (c *ZvtClient) Payment(ctx context.Context, amount decimal.Decimal) (CommandResponse, error) {
	enc, err := bcd.DecimalToBCD(amount)
	if err != nil {
		return CommandResponse{}, err
	}
	payload := append([]byte{0x04}, enc[:]...)
	return c.sendCommand(ctx, CFPayment, payload, false)
}

// Reversal reverses the transaction identified by receipt.
func (c *ZvtClient) Reversal(ctx context.Context, receipt uint16) (CommandResponse, error) {
	pwd, err := c.password.bcd()
	if err != nil {
		return CommandResponse{}, err
	}
	rcpt, err := bcd.IntToBCD(uint64(receipt), 2)
	if err != nil {
		return CommandResponse{}, err
	}

	payload := make([]byte, 0, 6)
	payload = append(payload, pwd[:]...)
	payload = append(payload, 0x87)
	payload = append(payload, rcpt...)
	return c.sendCommand(ctx, CFReversal, payload, false)
}

// Refund starts a refund for amount. trace is optional (§9 Design Note
// "RefundAsync2" collapses the source's two refund variants into one
// method); pass nil to omit the 0B trace prefix entirely.
func (c *ZvtClient) Refund(ctx context.Context, amount decimal.Decimal, trace *uint32) (CommandResponse, error) {
	pwd, err := c.password.bcd()
	if err != nil {
		return CommandResponse{}, err
	}
	enc, err := bcd.DecimalToBCD(amount)
	if err != nil {
		return CommandResponse{}, err
	}

	payload := make([]byte, 0, 13)
	payload = append(payload, pwd[:]...)
	payload = append(payload, 0x04)
	payload = append(payload, enc[:]...)
	if trace != nil {
		tr, err := bcd.IntToBCD(uint64(*trace), 3)
		if err != nil {
			return CommandResponse{}, err
		}
		payload = append(payload, 0x0B)
		payload = append(payload, tr...)
	}
	return c.sendCommand(ctx, CFRefund, payload, false)
}

// EndOfDay triggers the PT's end-of-day settlement.
func (c *ZvtClient) EndOfDay(ctx context.Context) (CommandResponse, error) {
	return c.passwordOnlyCommand(ctx, CFEndOfDay)
}

// SendTurnoverTotals requests the PT's accumulated turnover totals.
func (c *ZvtClient) SendTurnoverTotals(ctx context.Context) (CommandResponse, error) {
	return c.passwordOnlyCommand(ctx, CFSendTurnoverTotals)
}

// RepeatLastReceipt asks the PT to reprint the last receipt.
func (c *ZvtClient) RepeatLastReceipt(ctx context.Context) (CommandResponse, error) {
	return c.passwordOnlyCommand(ctx, CFRepeatLastReceipt)
}

// LogOff logs the ECR off. It is fire-and-forget: it resolves Successful
// as soon as the link layer acknowledges, without waiting on any
// terminal reply (§4.7 step 3).
func (c *ZvtClient) LogOff(ctx context.Context) (CommandResponse, error) {
	return c.sendCommand(ctx, CFLogOff, nil, true)
}

// Abort requests the PT cancel the current operation. Fire-and-forget,
// like LogOff.
func (c *ZvtClient) Abort(ctx context.Context) (CommandResponse, error) {
	return c.sendCommand(ctx, CFAbortCommand, nil, true)
}

// Diagnosis runs the PT's built-in self-test.
func (c *ZvtClient) Diagnosis(ctx context.Context) (CommandResponse, error) {
	return c.sendCommand(ctx, CFDiagnosis, nil, false)
}

// SoftwareUpdate triggers a PT software update check.
func (c *ZvtClient) SoftwareUpdate(ctx context.Context) (CommandResponse, error) {
	return c.sendCommand(ctx, CFSoftwareUpdate, nil, false)
}

// Custom sends an arbitrary control field and payload, for commands this
// client has no typed method for — the escape hatch named in §4.8's
// command table and §1's Non-goals ("do not implement every optional ZVT
// command").
func (c *ZvtClient) Custom(ctx context.Context, cf ControlField, payload []byte) (CommandResponse, error) {
	return c.sendCommand(ctx, cf, payload, false)
}

func (c *ZvtClient) passwordOnlyCommand(ctx context.Context, cf ControlField) (CommandResponse, error) {
	pwd, err := c.password.bcd()
	if err != nil {
		return CommandResponse{}, err
	}
	return c.sendCommand(ctx, cf, pwd[:], false)
}

// sendCommand implements §4.7's algorithm: encode and send, require ACK,
// short-circuit fire-and-forget commands, otherwise wait for the
// decoder's termination events, ctx cancellation, or timeout — enforcing
// at most one in-flight command at a time (§5).
func (c *ZvtClient) sendCommand(ctx context.Context, cf ControlField, payload []byte, endAfterAck bool) (CommandResponse, error) {
	session, err := c.acquireSession()
	if err != nil {
		return errorResponse("Busy"), err
	}
	defer c.release(session)

	pkg := Build(cf, payload)
	outcome, err := c.link.Send(ctx, pkg)
	if err != nil {
		session.unsubscribe()
		return errorResponse(err.Error()), nil
	}
	if outcome != AcknowledgeReceived {
		session.unsubscribe()
		return errorResponse(outcome.String()), nil
	}
	if endAfterAck {
		session.unsubscribe()
		return successResponse(), nil
	}

	return session.wait(ctx, c.timeout), nil
}

// acquireSession installs a new CommandSession as the active one, or
// fails with ErrBusy if another command is already in flight. Installing
// the session and checking for busy is one atomic critical section.
func (c *ZvtClient) acquireSession() (*CommandSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrBusy
	}
	s := newCommandSession(c.decoder)
	c.active = s
	return s, nil
}

func (c *ZvtClient) release(s *CommandSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}
