package ipay

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
)

// Verifier checks gateway callback signatures. Verification always runs
// against the raw, unmodified request bytes: a re-serialized body is not
// guaranteed byte-identical to what the gateway signed.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses the gateway's PEM-encoded RSA public key.
func NewVerifier(pemData string) (*Verifier, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(pemData)))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	var key *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		rsaKey, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is %T, expected RSA", parsed)
		}
		key = rsaKey
	case "RSA PUBLIC KEY":
		parsed, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		key = parsed
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}

	return &Verifier{publicKey: key}, nil
}

// Verify reports whether the base64 signature matches the raw body bytes.
// Malformed input is invalid, never an error.
func (v *Verifier) Verify(rawBody []byte, signatureB64 string) bool {
	if v == nil || v.publicKey == nil {
		return false
	}
	signatureB64 = strings.TrimSpace(signatureB64)
	if signatureB64 == "" {
		return false
	}

	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(rawBody)
	return rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, digest[:], signature) == nil
}
