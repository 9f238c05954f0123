package rola

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"
)

var testSettings = Settings{
	DAppDefinitionAddress: "account_tdx_2_12yf9gd53yfep7a669fv2t3wm7nz9zeezwd04n02a433ker8vza6rhe",
	NetworkID:             NetworkStokenet,
	ExpectedOrigin:        "http://localhost:3000",
}

const testChallenge = "9b1d5ab06e0b4c3d8c1a7e4f2b6d8e0a1c3e5f7092b4d6f8a0c2e4f6a8b0d2e4"

type signer struct {
	curve Curve
	ed    ed25519.PrivateKey
	secp  *btcec.PrivateKey
}

func newSigner(t *testing.T, curve Curve) signer {
	t.Helper()
	switch curve {
	case CurveEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		return signer{curve: curve, ed: priv}
	case CurveSecp256k1:
		priv, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		return signer{curve: curve, secp: priv}
	}
	t.Fatalf("unknown curve %q", curve)
	return signer{}
}

func (s signer) pub() []byte {
	if s.curve == CurveEd25519 {
		return s.ed.Public().(ed25519.PublicKey)
	}
	return s.secp.PubKey().SerializeCompressed()
}

func (s signer) sign(t *testing.T, hash []byte) []byte {
	t.Helper()
	if s.curve == CurveEd25519 {
		return ed25519.Sign(s.ed, hash)
	}
	// recovery byte || r || s
	sig := ecdsa.SignCompact(s.secp, hash, true)
	return sig
}

func (s signer) signedChallenge(t *testing.T, typ ProofType, challenge string, st Settings) SignedChallenge {
	t.Helper()
	addr, err := PreallocatedAddress(typ, s.curve, s.pub(), st.NetworkID)
	require.NoError(t, err)
	hash, err := SignatureMessage(challenge, st.DAppDefinitionAddress, st.ExpectedOrigin)
	require.NoError(t, err)

	return SignedChallenge{
		Type:      typ,
		Challenge: challenge,
		Address:   addr,
		Proof: Proof{
			PublicKey: hex.EncodeToString(s.pub()),
			Signature: hex.EncodeToString(s.sign(t, hash)),
			Curve:     s.curve,
		},
	}
}

// validBundle returns a persona proof (ed25519), an account proof
// (secp256k1), persona data and the persona, all over testChallenge.
func validBundle(t *testing.T) *Bundle {
	t.Helper()
	personaProof := newSigner(t, CurveEd25519).signedChallenge(t, ProofPersona, testChallenge, testSettings)
	accountProof := newSigner(t, CurveSecp256k1).signedChallenge(t, ProofAccount, testChallenge, testSettings)

	return &Bundle{
		Proofs: []SignedChallenge{personaProof, accountProof},
		PersonaData: []PersonaDataEntry{
			{Entry: EmailEntry, Fields: []byte(`["alice@example.com"]`)},
		},
		Persona: &Persona{IdentityAddress: personaProof.Address, Label: "alice"},
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
