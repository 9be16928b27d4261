package audit

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
)

// Signer produces and verifies the asymmetric/keyed signature spec.md
// §4.7 requires over an entry's canonical form. Two implementations are
// provided: HMACSigner (symmetric, grounded on mateoblack-sentinel's
// logging/signature.go) and Ed25519Signer (asymmetric, per spec.md's
// "e.g., RSA-SHA256 or Ed25519" suggestion).
type Signer interface {
	Sign(e *Entry) (string, error)
	Verify(e *Entry, signature string) (bool, error)
}

// MinHMACKeyLength mirrors sentinel's 32-byte minimum for HMAC-SHA256 keys.
const MinHMACKeyLength = 32

// HMACSigner signs entries with HMAC-SHA256 over their canonical form.
type HMACSigner struct {
	SecretKey []byte
}

// NewHMACSigner validates key length before returning a usable signer.
func NewHMACSigner(secretKey []byte) (*HMACSigner, error) {
	if len(secretKey) < MinHMACKeyLength {
		return nil, trusterrors.New(trusterrors.KindSignatureFailure, "secret key must be at least 32 bytes")
	}
	return &HMACSigner{SecretKey: secretKey}, nil
}

// Sign returns the hex-encoded HMAC-SHA256 of e's canonical form.
func (s *HMACSigner) Sign(e *Entry) (string, error) {
	mac := hmac.New(sha256.New, s.SecretKey)
	mac.Write([]byte(canonicalize(e)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares it in constant time.
func (s *HMACSigner) Verify(e *Entry, signature string) (bool, error) {
	expected, err := s.Sign(e)
	if err != nil {
		return false, err
	}
	providedBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	expectedBytes, _ := hex.DecodeString(expected)
	return subtle.ConstantTimeCompare(providedBytes, expectedBytes) == 1, nil
}

// Ed25519Signer signs entries with an Ed25519 private key, for deployments
// that want asymmetric verification (e.g. a read-only verifier holding only
// the public key).
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// NewEd25519Signer derives the public key from priv.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}
}

// Sign returns the hex-encoded Ed25519 signature of e's canonical form.
func (s *Ed25519Signer) Sign(e *Entry) (string, error) {
	sig := ed25519.Sign(s.PrivateKey, []byte(canonicalize(e)))
	return hex.EncodeToString(sig), nil
}

// Verify checks signature against e's canonical form using the public key.
func (s *Ed25519Signer) Verify(e *Entry, signature string) (bool, error) {
	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	return ed25519.Verify(s.PublicKey, []byte(canonicalize(e)), sigBytes), nil
}

// Checksum computes SHA-256 over e's canonical form with only Checksum
// blanked — the real Signature value is covered too (spec.md §4.7) —
// independent of which Signer is used.
func Checksum(e *Entry) string {
	sum := sha256.Sum256([]byte(canonicalizeForChecksum(e)))
	return hex.EncodeToString(sum[:])
}

// Seal computes and sets both Signature and Checksum on e. Call this after
// every field but those two is finalized.
func Seal(e *Entry, signer Signer) error {
	sig, err := signer.Sign(e)
	if err != nil {
		return trusterrors.Wrap(trusterrors.KindSignatureFailure, "failed to sign audit entry", err)
	}
	e.Signature = sig
	e.Checksum = Checksum(e)
	return nil
}

// Verify checks both the signature and checksum of e, per spec.md §4.7:
// "both checks must pass to call the entry intact." Checksum covers the
// real Signature value, so verifying checksum first also catches a
// signature edited without recomputing its checksum.
func Verify(e *Entry, signer Signer) error {
	if Checksum(e) != e.Checksum {
		return trusterrors.New(trusterrors.KindChecksumMismatch, "audit entry checksum mismatch")
	}
	ok, err := signer.Verify(e, e.Signature)
	if err != nil {
		return trusterrors.Wrap(trusterrors.KindSignatureFailure, "failed to verify audit entry signature", err)
	}
	if !ok {
		return trusterrors.New(trusterrors.KindSignatureFailure, "audit entry signature invalid")
	}
	return nil
}
