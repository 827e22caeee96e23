package email

import (
	"errors"
	"io"
	"net"
	"strings"
)

// TemporaryError marks a retriable failure (connection refused, timeout, dropped connection).
type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }

// PermanentError marks a non-retriable failure (bad address, auth rejected, 5xx).
type PermanentError struct{ msg string }

func (e PermanentError) Error() string   { return e.msg }
func (e PermanentError) Permanent() bool { return true }

func IsTemporary(err error) bool {
	var te TemporaryError
	return errors.As(err, &te)
}

// classify sorts a raw transport error into temporary or permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var te TemporaryError
	var pe PermanentError
	if errors.As(err, &te) || errors.As(err, &pe) {
		return err
	}

	msg := err.Error()
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		containsAny(strings.ToLower(msg), "connection refused", "connection reset", "broken pipe", "i/o timeout", "eof", "dial tcp") {
		return TemporaryError{msg: msg}
	}
	return PermanentError{msg: msg}
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
