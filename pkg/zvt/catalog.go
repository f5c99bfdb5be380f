package zvt

import "fmt"

// Language selects the StatusCatalog's localization. ErrorCatalog is
// English-only in this revision: the parameter is preserved on the client
// for forward compatibility, but any non-English selection falls back to
// the English error text, matching the upstream PA00P015/016 catalogs
// this client was distilled from.
type Language int

const (
	LanguageEnglish Language = iota
	LanguageGerman
)

// ErrorCatalog maps the single-byte Abort error code (06 1E payload) to a
// human-readable description. It is immutable after construction and safe
// for concurrent use.
type ErrorCatalog struct{}

// NewErrorCatalog returns the (English-only) error catalog.
func NewErrorCatalog() ErrorCatalog { return ErrorCatalog{} }

// Lookup returns the description for code, or a generic fallback
// embedding the hex code if it is not recognized.
func (ErrorCatalog) Lookup(code byte) string {
	if msg, ok := errorCatalogEN[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error (0x%02X)", code)
}

// errorCatalogEN is a representative subset of the ZVT error codes used
// in Abort (06 1E) and StatusInformation result-code (tag 27) fields.
// Codes absent here still resolve through Lookup's generic fallback.
var errorCatalogEN = map[byte]string{
	0x00: "No error",
	0x64: "ZVT protocol error",
	0x65: "No transaction possible",
	0x66: "Error reading card",
	0x67: "Card not readable (LRC error)",
	0x6A: "Conditions of use not satisfied",
	0x6B: "Card expired",
	0x6C: "Card not readable",
	0x6D: "Processing error / card or function not permitted",
	0x6E: "Terminal not configured for card-issuer",
	0x6F: "PAN entry incorrect",
	0x71: "Function not permitted for card-issuer",
	0x72: "Function not permitted for terminal",
	0x73: "Tracing error / diagnosis required",
	0x74: "PAN out of permitted range",
	0x75: "Repeat transaction not possible",
	0x76: "Terminal not present",
	0x77: "Function deactivated",
	0x7B: "Base amount/currency not permitted",
	0x9A: "Receipt printer not ready",
	0x9C: "Declined by host",
	0xA0: "Transmission error / malformed package",
	0xA1: "Turnover file full",
	0xB1: "Key missing",
	0xB2: "Key checksum error",
	0xB3: "Card data wrong",
	0xB4: "Terminal busy / command not possible at this time",
	0xB5: "Card and password do not match",
	0xBD: "System error",
	0xDC: "Merchant journal full",
	0xE9: "No terminal manufacturer-specific data",
	0xF1: "Timeout, target device not responding",
	0xF6: "Already registered",
	0xFF: "Action aborted by operator",
}

// StatusCatalog maps the one-byte IntermediateStatus code (04 FF payload)
// to a localized display string, e.g. "Please insert card". Construction
// selects a Language; an unsupported language falls back to English.
type StatusCatalog struct {
	language Language
}

// NewStatusCatalog returns a catalog localized for lang.
func NewStatusCatalog(lang Language) StatusCatalog {
	return StatusCatalog{language: lang}
}

// Lookup returns the display string for code.
func (c StatusCatalog) Lookup(code byte) string {
	table := statusCatalogEN
	if c.language == LanguageGerman {
		if msg, ok := statusCatalogDE[code]; ok {
			return msg
		}
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown status (0x%02X)", code)
}

var statusCatalogEN = map[byte]string{
	0x00: "Not possible",
	0x01: "Please wait...",
	0x02: "Please insert/swipe card",
	0x03: "Processing error",
	0x04: "Please remove card",
	0x05: "Please swipe card again",
	0x06: "Please insert card again",
	0x0D: "Card recognized",
	0x11: "Please insert card",
	0x13: "Please wait for system message",
	0x19: "Please enter PIN",
	0x1A: "Please confirm amount",
	0x6D: "Processing, please wait",
	0x7D: "Please note enclosed receipt",
	0x8B: "Select application",
}

// statusCatalogDE supplements a handful of entries to demonstrate the
// localization seam; it is not a complete translation of
// statusCatalogEN, matching the spec's note that only English is fully
// populated upstream.
var statusCatalogDE = map[byte]string{
	0x01: "Bitte warten...",
	0x02: "Bitte Karte einstecken/durchziehen",
	0x04: "Bitte Karte entnehmen",
	0x19: "Bitte PIN eingeben",
}
