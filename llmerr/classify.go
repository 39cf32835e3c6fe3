package llmerr

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Classify maps a raw transport error onto a category. Rules are checked in
// priority order: DNS, connection refused, connection reset, TLS handshake,
// timeout. Anything unrecognized becomes Unknown with the original error
// preserved in the chain, so callers can still unwrap and log it faithfully.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Category: DNSFailure, Detail: dnsErr.Error(), Cause: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Category: ConnectionRefused, Detail: err.Error(), Cause: err}
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return &Error{Category: ConnectionReset, Detail: err.Error(), Cause: err}
	}
	if isTLSFailure(err) {
		return &Error{Category: TLSHandshake, Detail: err.Error(), Cause: err}
	}
	if isTimeout(err) {
		return &Error{Category: Timeout, Detail: err.Error(), Cause: err}
	}
	return &Error{Category: Unknown, Detail: err.Error(), Cause: err}
}

func isTLSFailure(err error) bool {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		authErr     x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		insecureErr x509.InsecureAlgorithmError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) || errors.As(err, &insecureErr) {
		return true
	}
	// The handshake layer reports some failures only as text, e.g.
	// "remote error: tls: handshake failure".
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "handshake failure")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// FromStatus maps a non-2xx HTTP response onto a category. The first bytes
// of the body are kept as detail for diagnosis.
func FromStatus(code int, body []byte) *Error {
	detail := fmt.Sprintf("HTTP %d", code)
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		const maxDetail = 300
		if len(trimmed) > maxDetail {
			trimmed = trimmed[:maxDetail] + "..."
		}
		detail += ": " + trimmed
	}

	switch {
	case code == 401:
		return &Error{Category: Auth, Detail: detail, Status: code}
	case code == 429:
		return &Error{Category: RateLimit, Detail: detail, Status: code}
	case code >= 500 && code <= 599:
		return &Error{Category: ServerError, Detail: detail, Status: code}
	default:
		return &Error{Category: Unknown, Detail: detail, Status: code}
	}
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
