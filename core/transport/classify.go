package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"bitsight-connector/core/status"

	"github.com/cockroachdb/errors"
)

// classifyTransport maps a failure that happened before any HTTP response
// was received. Order matters: a proxy dial that times out is a proxy
// failure, a TLS failure wrapped in an OpError is a TLS failure.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return status.Wrap(err, status.ExecutionInterrupted, "request cancelled")
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return status.Wrap(err, status.TransportProxyError, "proxy connection failed")
	}
	if isTLSError(err) {
		return status.Wrap(err, status.TransportSSLError, "TLS handshake failed")
	}
	if isTimeout(err) {
		return status.Wrap(err, status.TransportTimeout, "request timed out")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return status.Wrap(err, status.TransportDNSFailure, "DNS resolution failed")
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return status.Wrap(err, status.TransportConnectionRefused, "connection refused")
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return status.Wrap(err, status.TransportConnectionReset, "connection reset")
	}
	if opErr != nil {
		return status.Wrap(err, status.TransportConnectionFailed, "connection failed")
	}
	return status.Wrap(err, status.TransportUnknown, "transport failure")
}

func isTLSError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		headerErr    tls.RecordHeaderError
		alertErr     tls.AlertError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &headerErr) ||
		errors.As(err, &alertErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyStatus maps a received HTTP status. 200 is the only success.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized:
		return status.NewHTTP(status.APIUnauthorized, code, "unauthorized")
	case code == http.StatusForbidden:
		return status.NewHTTP(status.APIForbidden, code, "forbidden")
	case code == http.StatusNotFound:
		return status.NewHTTP(status.APINotFound, code, "not found")
	case code == http.StatusTooManyRequests:
		return status.NewHTTP(status.APIRateLimited, code, "rate limited")
	case code >= 500 && code <= 599:
		return status.NewHTTP(status.APIServerError, code, "server error")
	default:
		return status.NewHTTP(status.APIUnexpectedResponse, code, fmt.Sprintf("unexpected HTTP status %d", code))
	}
}
