package solarman

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one member of the closed error taxonomy from spec §7.
// Kind values carry a stable short label (see String) that observability
// hooks receive verbatim — never a full formatted message.
type Kind uint8

const (
	KindNotConnected Kind = iota
	KindAlreadyConnected
	KindConnectionFailed
	KindTimeout
	KindV5FrameError
	KindSequenceMismatch
	KindModbusException
	KindRtuError
	KindIoError
	KindInvalidParameter
	KindChannelClosed
)

// retryableKinds lists the error kinds the request engine's retry loop
// treats as transient (spec §7 "Retryable" column). Retryable scans this
// slice for membership so the set reads as data, not control flow.
var retryableKinds = []Kind{
	KindConnectionFailed,
	KindTimeout,
	KindIoError,
	KindChannelClosed,
}

func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not_connected"
	case KindAlreadyConnected:
		return "already_connected"
	case KindConnectionFailed:
		return "connection_failed"
	case KindTimeout:
		return "timeout"
	case KindV5FrameError:
		return "v5_frame_error"
	case KindSequenceMismatch:
		return "sequence_mismatch"
	case KindModbusException:
		return "modbus_exception"
	case KindRtuError:
		return "rtu_error"
	case KindIoError:
		return "io_error"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindChannelClosed:
		return "channel_closed"
	default:
		return "unknown"
	}
}

// FrameErrorKind enumerates the structural failures the V5 stream decoder
// (spec §4.E) and frame parser (spec §4.C) can report. It is carried inside
// an *Error of Kind KindV5FrameError.
type FrameErrorKind uint8

const (
	FrameTooShort FrameErrorKind = iota
	InvalidStartByte
	InvalidEndByte
	InvalidLength
	FrameTooLarge
	LengthMismatch
	InvalidChecksum
	InvalidControlCode
	ModbusTooShort
	IncompleteFrameAtEOF
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameTooShort:
		return "frame_too_short"
	case InvalidStartByte:
		return "invalid_start_byte"
	case InvalidEndByte:
		return "invalid_end_byte"
	case InvalidLength:
		return "invalid_length"
	case FrameTooLarge:
		return "frame_too_large"
	case LengthMismatch:
		return "length_mismatch"
	case InvalidChecksum:
		return "invalid_checksum"
	case InvalidControlCode:
		return "invalid_control_code"
	case ModbusTooShort:
		return "modbus_too_short"
	case IncompleteFrameAtEOF:
		return "incomplete_frame_at_eof"
	default:
		return "unknown"
	}
}

// Error is the single concrete error type this package returns to callers.
// Its Kind is always one of the constants above; Cause, when present, is
// the underlying transport or context error (a dial, write or read
// failure, or ctx.Err()) reachable via errors.Unwrap/errors.Is/errors.As.
// Errors mapped from the Modbus codec carry only a Message, no Cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// FrameKind is set when Kind == KindV5FrameError.
	FrameKind FrameErrorKind
	// ExpectedSeq/GotSeq are set when Kind == KindSequenceMismatch.
	ExpectedSeq, GotSeq uint16
	// ExceptionCode is set when Kind == KindModbusException.
	ExceptionCode byte
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("solarman: %s", e.Kind)
	}
	return fmt.Sprintf("solarman: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the request engine's retry loop (spec §4.H)
// should treat this error as transient.
func (e *Error) Retryable() bool {
	for _, k := range retryableKinds {
		if k == e.Kind {
			return true
		}
	}
	return false
}

func errNotConnected() *Error {
	return &Error{Kind: KindNotConnected, Message: "client is not connected and the reconnect policy forbids reconnecting"}
}

func errAlreadyConnected() *Error {
	return &Error{Kind: KindAlreadyConnected, Message: "connect called while already connected"}
}

func errConnectionFailed(msg string, cause error) *Error {
	if cause != nil {
		cause = errors.WithMessage(cause, "connect")
	}
	return &Error{Kind: KindConnectionFailed, Message: msg, Cause: cause}
}

func errTimeout() *Error {
	return &Error{Kind: KindTimeout, Message: "operation exceeded the configured timeout"}
}

// errCancelled reports that the caller's context was done while a request
// was awaiting its response. It carries the same Kind as errTimeout — spec
// §7 names no separate cancellation kind, and a cancellation is retryable
// exactly like a timeout — but keeps ctx.Err() as its Cause so callers can
// still tell the two apart with errors.Is/errors.As.
func errCancelled(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "context done while awaiting response", Cause: cause}
}

func errV5Frame(kind FrameErrorKind) *Error {
	return &Error{Kind: KindV5FrameError, Message: kind.String(), FrameKind: kind}
}

func errSequenceMismatch(expected, got uint16) *Error {
	return &Error{
		Kind:        KindSequenceMismatch,
		Message:     fmt.Sprintf("expected low byte 0x%02X, got 0x%02X", expected&0xFF, got&0xFF),
		ExpectedSeq: expected,
		GotSeq:      got,
	}
}

func errModbusException(code byte) *Error {
	return &Error{Kind: KindModbusException, Message: fmt.Sprintf("device returned exception code 0x%02X", code), ExceptionCode: code}
}

func errRtuError(msg string) *Error {
	return &Error{Kind: KindRtuError, Message: msg}
}

func errIoError(msg string, cause error) *Error {
	if cause != nil {
		cause = errors.WithMessage(cause, "io")
	}
	return &Error{Kind: KindIoError, Message: msg, Cause: cause}
}

func errInvalidParameter(msg string) *Error {
	return &Error{Kind: KindInvalidParameter, Message: msg}
}

func errChannelClosed() *Error {
	return &Error{Kind: KindChannelClosed, Message: "transport became inactive while a request was outstanding"}
}
