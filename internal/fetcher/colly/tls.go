package collyfetcher

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
)

// isTLSError reports whether err came from TLS negotiation or certificate checks.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		alertErr     tls.AlertError
	)
	switch {
	case errors.As(err, &recordErr),
		errors.As(err, &verifyErr),
		errors.As(err, &authorityErr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr),
		errors.As(err, &alertErr):
		return true
	}
	// Handshake failures are not always typed.
	return strings.Contains(err.Error(), "tls:")
}
