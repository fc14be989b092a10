package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RealImage/cognitoauthz"
	"github.com/RealImage/cognitoauthz/tinyca"
	"github.com/aws/aws-lambda-go/cfn"
	"github.com/google/uuid"
)

// Resource properties read by Certificate.
const (
	propCAKeySize          = "CertificateAuthorityKeySize"
	propKeySize            = "CertificateKeySize"
	propCountry            = "SubjectCountryName"
	propCommonName         = "SubjectCommonName"
	propCACommonName       = "SubjectCommonNameCA"
	propLocality           = "SubjectLocality"
	propOrganization       = "SubjectOrganization"
	propOrganizationalUnit = "SubjectOrganizationalUnit"
	propState              = "SubjectState"
	propAlternativeNames   = "SubjectAlternativeNames"
)

// Certificate returns a CloudFormation custom resource handler that mints a
// self-signed CA and a server certificate signed by it.
//
// Create and Update return the certificate as CertificateBody, its key as
// PrivateKey and the CA certificate as CertificateAuthorityBody.
// Delete does nothing; the minted material is not stored anywhere.
func Certificate(now func() time.Time) cfn.CustomResourceFunction {
	return func(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
		logger := cognitoauthz.Logger().With(
			"request_type", event.RequestType,
			"logical_resource_id", event.LogicalResourceID,
		)

		physicalID := event.PhysicalResourceID
		switch event.RequestType {
		case cfn.RequestDelete:
			logger.InfoContext(ctx, "nothing to delete")
			return physicalID, nil, nil
		case cfn.RequestCreate:
			physicalID = uuid.NewString()
		case cfn.RequestUpdate:
		default:
			return physicalID, nil, fmt.Errorf("unknown request type %q", event.RequestType)
		}

		props := event.ResourceProperties
		caBits, err := intProperty(props, propCAKeySize, tinyca.DefaultKeyBits)
		if err != nil {
			return physicalID, nil, err
		}
		certBits, err := intProperty(props, propKeySize, tinyca.DefaultKeyBits)
		if err != nil {
			return physicalID, nil, err
		}
		subject := subjectFromProperties(props)

		t := now()
		ca, err := tinyca.New(subject, caBits, t, t.Add(tinyca.CAValidity))
		if err != nil {
			return physicalID, nil, err
		}
		cert, err := ca.IssueServerCertificate(subject, certBits, t, t.Add(tinyca.ServerValidity))
		if err != nil {
			return physicalID, nil, err
		}

		logger.InfoContext(ctx, "minted certificate",
			"physical_resource_id", physicalID,
			"ca", ca.Certificate.Subject.String(),
			"certificate", cert.Subject.String(),
			"not_after", cert.NotAfter,
		)
		return physicalID, map[string]interface{}{
			"CertificateBody":          string(cert.CertificatePEM()),
			"PrivateKey":               string(cert.PrivateKeyPEM()),
			"CertificateAuthorityBody": string(ca.CertificatePEM()),
		}, nil
	}
}

func subjectFromProperties(props map[string]interface{}) tinyca.Subject {
	s := tinyca.DefaultSubject()
	for prop, field := range map[string]*string{
		propCountry:            &s.Country,
		propCommonName:         &s.CommonName,
		propCACommonName:       &s.CACommonName,
		propLocality:           &s.Locality,
		propOrganization:       &s.Organization,
		propOrganizationalUnit: &s.OrganizationalUnit,
		propState:              &s.Province,
	} {
		if v := stringProperty(props, prop); v != "" {
			*field = v
		}
	}
	if v := stringProperty(props, propAlternativeNames); v != "" {
		var names []string
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		s.DNSNames = names
	}
	return s
}

func stringProperty(props map[string]interface{}, name string) string {
	switch v := props[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intProperty parses an integer property. CloudFormation passes every
// property as a string, but numbers are accepted too.
func intProperty(props map[string]interface{}, name string, def int) (int, error) {
	switch v := props[name].(type) {
	case nil:
		return def, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("property %s: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("property %s: unexpected type %T", name, v)
	}
}
