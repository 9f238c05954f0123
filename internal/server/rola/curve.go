package rola

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

var errBadSignature = errors.New("signature does not match")

// parsePublicKey decodes and sanity-checks the hex public key of a proof.
func parsePublicKey(p Proof) ([]byte, error) {
	pub, err := hex.DecodeString(p.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	switch p.Curve {
	case CurveEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
		}
	case CurveSecp256k1:
		if len(pub) != btcec.PubKeyBytesLenCompressed {
			return nil, fmt.Errorf("secp256k1 public key must be %d bytes, got %d", btcec.PubKeyBytesLenCompressed, len(pub))
		}
	default:
		return nil, fmt.Errorf("unsupported curve %q", p.Curve)
	}
	return pub, nil
}

// verifySignature checks p.Signature over hash with the already parsed key.
//
// Ed25519 signatures are 64 bytes. Secp256k1 signatures are 65 bytes with a
// leading recovery id that is ignored, followed by r and s.
func verifySignature(curve Curve, pub, hash []byte, signature string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	switch curve {
	case CurveEd25519:
		if len(sig) != ed25519.SignatureSize {
			return fmt.Errorf("ed25519 signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
		}
		if !ed25519.Verify(pub, hash, sig) {
			return errBadSignature
		}
		return nil

	case CurveSecp256k1:
		if len(sig) != 65 {
			return fmt.Errorf("secp256k1 signature must be 65 bytes, got %d", len(sig))
		}
		key, err := btcec.ParsePubKey(pub)
		if err != nil {
			return fmt.Errorf("parse public key: %w", err)
		}
		var r, s btcec.ModNScalar
		if overflow := r.SetByteSlice(sig[1:33]); overflow || r.IsZero() {
			return errBadSignature
		}
		if overflow := s.SetByteSlice(sig[33:65]); overflow || s.IsZero() {
			return errBadSignature
		}
		if !ecdsa.NewSignature(&r, &s).Verify(hash, key) {
			return errBadSignature
		}
		return nil
	}

	return fmt.Errorf("unsupported curve %q", curve)
}
