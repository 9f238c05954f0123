package rola

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

// Entity type bytes of preallocated (virtual) addresses.
const (
	entityEd25519Account    byte = 0x51
	entityEd25519Identity   byte = 0x52
	entitySecp256k1Account  byte = 0xD1
	entitySecp256k1Identity byte = 0xD2
)

const publicKeyHashLength = 29

// Well-known network ids with their own address suffix.
const (
	NetworkMainnet   = 0x01
	NetworkStokenet  = 0x02
	NetworkLocalnet  = 0xF0
	NetworkSimulator = 0xF2
)

// NetworkSuffix returns the HRP suffix used in addresses on network.
func NetworkSuffix(network byte) string {
	switch network {
	case NetworkMainnet:
		return "rdx"
	case NetworkLocalnet:
		return "loc"
	case NetworkSimulator:
		return "sim"
	default:
		return fmt.Sprintf("tdx_%x_", network)
	}
}

// HRP returns the bech32m human-readable part for a proof type on network.
func HRP(t ProofType, network byte) string {
	if t == ProofPersona {
		return "identity_" + NetworkSuffix(network)
	}
	return "account_" + NetworkSuffix(network)
}

// PublicKeyHash is the last 29 bytes of blake2b-256(publicKey).
func PublicKeyHash(publicKey []byte) []byte {
	sum := blake2b.Sum256(publicKey)
	return sum[len(sum)-publicKeyHashLength:]
}

// PublicKeyHashHex is PublicKeyHash as lowercase hex, as listed in
// owner_keys metadata.
func PublicKeyHashHex(publicKey []byte) string {
	return hex.EncodeToString(PublicKeyHash(publicKey))
}

// PreallocatedAddress derives the address an entity has before it was ever
// touched on ledger: entity byte followed by the public key hash.
func PreallocatedAddress(t ProofType, curve Curve, publicKey []byte, network byte) (string, error) {
	var entity byte
	switch {
	case t == ProofAccount && curve == CurveEd25519:
		entity = entityEd25519Account
	case t == ProofAccount && curve == CurveSecp256k1:
		entity = entitySecp256k1Account
	case t == ProofPersona && curve == CurveEd25519:
		entity = entityEd25519Identity
	case t == ProofPersona && curve == CurveSecp256k1:
		entity = entitySecp256k1Identity
	default:
		return "", fmt.Errorf("unsupported proof %q on curve %q", t, curve)
	}

	node := append([]byte{entity}, PublicKeyHash(publicKey)...)
	conv, err := bech32.ConvertBits(node, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(HRP(t, network), conv)
}
