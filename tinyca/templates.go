package tinyca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math"
	"math/big"
)

// Subject describes who a CA and its server certificates are issued to.
// CommonName names server certificates and CACommonName names the CA;
// all other fields are shared.
type Subject struct {
	Country            string
	Province           string
	Locality           string
	Organization       string
	OrganizationalUnit string
	CommonName         string
	CACommonName       string

	// DNSNames are the subject alternative names of server certificates.
	DNSNames []string
}

// DefaultSubject returns the placeholder subject used when none is configured.
func DefaultSubject() Subject {
	return Subject{
		Country:            "US",
		Province:           "State",
		Locality:           "City",
		Organization:       "Organization",
		OrganizationalUnit: "OrganizationalUnit",
		CommonName:         "CommonName",
		CACommonName:       "Self CA",
		DNSNames:           []string{"*.example.com"},
	}
}

func (s Subject) name(cn string) pkix.Name {
	n := pkix.Name{CommonName: cn}
	if s.Country != "" {
		n.Country = []string{s.Country}
	}
	if s.Province != "" {
		n.Province = []string{s.Province}
	}
	if s.Locality != "" {
		n.Locality = []string{s.Locality}
	}
	if s.Organization != "" {
		n.Organization = []string{s.Organization}
	}
	if s.OrganizationalUnit != "" {
		n.OrganizationalUnit = []string{s.OrganizationalUnit}
	}
	return n
}

// CACertTemplate returns a new x509.Certificate template for a CA certificate.
// The caller sets NotBefore and NotAfter.
func CACertTemplate(subject Subject, pub *rsa.PublicKey) (*x509.Certificate, error) {
	serialNumber, err := serial()
	if err != nil {
		return nil, err
	}
	return &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               subject.name(subject.CACommonName),
		SignatureAlgorithm:    x509.SHA256WithRSA,
		SubjectKeyId:          keyID(pub),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}, nil
}

// ServerCertTemplate returns a new x509.Certificate template for a TLS server certificate.
// The caller sets NotBefore and NotAfter.
func ServerCertTemplate(subject Subject, pub *rsa.PublicKey) (*x509.Certificate, error) {
	serialNumber, err := serial()
	if err != nil {
		return nil, err
	}
	return &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               subject.name(subject.CommonName),
		SignatureAlgorithm:    x509.SHA256WithRSA,
		SubjectKeyId:          keyID(pub),
		DNSNames:              subject.DNSNames,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}, nil
}

func serial() (*big.Int, error) {
	serialNumber, err := rand.Int(rand.Reader, big.NewInt(int64(math.MaxInt64)))
	if err != nil {
		return nil, fmt.Errorf("tinyca: unexpected error generating certificate serial: %w", err)
	}
	return serialNumber, nil
}

// keyID is the SHA-1 hash of the public key, as described in RFC 5280 section 4.2.1.2.
func keyID(pub *rsa.PublicKey) []byte {
	sum := sha1.Sum(x509.MarshalPKCS1PublicKey(pub))
	return sum[:]
}
