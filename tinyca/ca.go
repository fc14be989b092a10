// Package tinyca mints a self-signed Certificate Authority and the server
// certificates it signs, for bootstrapping TLS between services that have no
// other PKI.
package tinyca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/RealImage/cognitoauthz"
	"github.com/VictoriaMetrics/metrics"
)

// Key sizes, in bits.
const (
	DefaultKeyBits = 2048
	MinKeyBits     = 2048
)

// Validity periods of minted certificates.
// Server certificates expire a year before the CA that signed them.
const (
	CAValidity     = 10 * 365 * 24 * time.Hour
	ServerValidity = 9 * 365 * 24 * time.Hour
)

// ErrKeyTooSmall is returned when a key size below MinKeyBits is requested.
var ErrKeyTooSmall = errors.New("tinyca: key too small")

// CA is a self-signed Certificate Authority.
type CA struct {
	Certificate *x509.Certificate
	Key         *rsa.PrivateKey

	issued *metrics.Counter
}

// Certificate is a certificate with its private key.
type Certificate struct {
	*x509.Certificate
	Key *rsa.PrivateKey
}

// New creates a CA with a new RSA key of keyBits bits.
// The CA certificate is valid from notBefore to notAfter.
// If keyBits is zero, DefaultKeyBits is used.
func New(subject Subject, keyBits int, notBefore, notAfter time.Time) (*CA, error) {
	key, err := newKey(keyBits)
	if err != nil {
		return nil, err
	}

	template, err := CACertTemplate(subject, &key.PublicKey)
	if err != nil {
		return nil, err
	}
	template.NotBefore = notBefore
	template.NotAfter = notAfter

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("tinyca: error creating ca certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("tinyca: error parsing ca certificate: %w", err)
	}

	caCerts.Inc()
	return &CA{
		Certificate: cert,
		Key:         key,
		issued:      serverCerts,
	}, nil
}

// IssueServerCertificate creates a new RSA key of keyBits bits and a server
// certificate for it, signed by the CA.
// If keyBits is zero, DefaultKeyBits is used.
func (ca *CA) IssueServerCertificate(
	subject Subject,
	keyBits int,
	notBefore, notAfter time.Time,
) (*Certificate, error) {
	if notAfter.After(ca.Certificate.NotAfter) {
		return nil, fmt.Errorf("tinyca: certificate would outlive ca, not after %s", ca.Certificate.NotAfter)
	}

	key, err := newKey(keyBits)
	if err != nil {
		return nil, err
	}

	template, err := ServerCertTemplate(subject, &key.PublicKey)
	if err != nil {
		return nil, err
	}
	template.NotBefore = notBefore
	template.NotAfter = notAfter

	der, err := x509.CreateCertificate(rand.Reader, template, ca.Certificate, &key.PublicKey, ca.Key)
	if err != nil {
		return nil, fmt.Errorf("tinyca: error creating server certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("tinyca: error parsing server certificate: %w", err)
	}

	if ca.issued != nil {
		ca.issued.Inc()
	}
	return &Certificate{Certificate: cert, Key: key}, nil
}

// CertificatePEM returns the CA certificate, PEM encoded.
func (ca *CA) CertificatePEM() []byte {
	return certificatePEM(ca.Certificate)
}

// PrivateKeyPEM returns the CA private key, PEM encoded in PKCS #1 form.
func (ca *CA) PrivateKeyPEM() []byte {
	return privateKeyPEM(ca.Key)
}

// String returns the CA's subject.
func (ca *CA) String() string {
	return ca.Certificate.Subject.String()
}

// CertificatePEM returns the certificate, PEM encoded.
func (c *Certificate) CertificatePEM() []byte {
	return certificatePEM(c.Certificate)
}

// PrivateKeyPEM returns the private key, PEM encoded in PKCS #1 form.
func (c *Certificate) PrivateKeyPEM() []byte {
	return privateKeyPEM(c.Key)
}

func newKey(bits int) (*rsa.PrivateKey, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	if bits < MinKeyBits {
		return nil, fmt.Errorf("%w, %d bits requested, minimum is %d", ErrKeyTooSmall, bits, MinKeyBits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("tinyca: error generating key: %w", err)
	}
	return key, nil
}

func certificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

func privateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

var (
	caCerts     = cognitoauthz.StatsForNerds.NewCounter(`cognitoauthz_certificates_issued_total{kind="ca"}`)
	serverCerts = cognitoauthz.StatsForNerds.NewCounter(`cognitoauthz_certificates_issued_total{kind="server"}`)
)
