// Package llmerr defines the closed error taxonomy for chat-completion
// requests. Every transport or protocol failure is mapped onto one of the
// categories below; the category decides retryability and carries the only
// text ever shown to the end user.
package llmerr

import "fmt"

// Category identifies one failure class.
type Category int

const (
	Unknown Category = iota
	Auth
	RateLimit
	ServerError
	DNSFailure
	ConnectionRefused
	ConnectionReset
	TLSHandshake
	Timeout
	MalformedResponse
)

func (c Category) String() string {
	switch c {
	case Auth:
		return "auth"
	case RateLimit:
		return "rate_limit"
	case ServerError:
		return "server_error"
	case DNSFailure:
		return "dns_failure"
	case ConnectionRefused:
		return "connection_refused"
	case ConnectionReset:
		return "connection_reset"
	case TLSHandshake:
		return "tls_handshake"
	case Timeout:
		return "timeout"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Retryable reports whether waiting and trying again can change the outcome.
// Rate limiting is deliberately not retried here: re-sending against a
// provider-side throttle amplifies load, so callers that want 429 retries
// must schedule them at a higher layer.
func (c Category) Retryable() bool {
	switch c {
	case ServerError, DNSFailure, ConnectionRefused, ConnectionReset, TLSHandshake, Timeout:
		return true
	default:
		return false
	}
}

// Advice returns the fixed user-facing diagnostic for the category: what
// happened and at least one way to remedy it.
func (c Category) Advice() string {
	switch c {
	case Auth:
		return "The API rejected the request as unauthorized. Check that the API key is valid and has not expired, then update it in your configuration."
	case RateLimit:
		return "The API is rate limiting this key. Wait a moment before trying again or reduce how often requests are sent; throttled requests are not retried automatically."
	case ServerError:
		return "The API reported an internal server error. This is usually temporary; if it keeps failing after the automatic retries, check the provider status page."
	case DNSFailure:
		return "The API host could not be resolved. Check the endpoint hostname and your network's DNS settings."
	case ConnectionRefused:
		return "The connection was refused by the remote host. Check that the endpoint URL and port are correct and that no firewall is blocking the connection."
	case ConnectionReset:
		return "The connection was reset while talking to the API. This is usually a transient network fault; check your network stability if it keeps happening."
	case TLSHandshake:
		return "A secure connection to the API could not be established. Check for an intercepting proxy or firewall on your network, or verify the endpoint's certificate."
	case Timeout:
		return "The request timed out before a response arrived. Increase the timeout or check your network connection."
	case MalformedResponse:
		return "The API returned a response that could not be parsed. The endpoint may not be an OpenAI-compatible chat completions API; check the base URL."
	default:
		return "The request failed with an unexpected error. The underlying cause is included for diagnosis."
	}
}

// Error is a classified failure. Detail carries the raw underlying message
// for diagnosis; it never changes the category or the advice text.
type Error struct {
	Category Category
	Detail   string
	Status   int // HTTP status when the failure came from a response, else 0
	Cause    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Category.Advice(), e.Detail)
	}
	return e.Category.Advice()
}

func (e *Error) Unwrap() error { return e.Cause }

// CategoryOf extracts the category from a classified error chain, or
// Unknown if the chain carries no classification.
func CategoryOf(err error) Category {
	if e := asError(err); e != nil {
		return e.Category
	}
	return Unknown
}

// IsRetryable reports whether err's category permits another attempt.
func IsRetryable(err error) bool {
	return CategoryOf(err).Retryable()
}

// Malformed builds the classification for a response body that does not
// match the expected protocol shape. Retrying cannot help here.
func Malformed(detail string, cause error) *Error {
	return &Error{Category: MalformedResponse, Detail: detail, Cause: cause}
}
