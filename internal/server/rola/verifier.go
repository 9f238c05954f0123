// Package rola verifies wallet proofs of ownership (off-ledger
// authentication): a signature over a server challenge, bound to the dApp
// definition address and the expected origin, by a key that controls the
// claimed account or identity address.
package rola

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/walletauth/internal/logging"
)

// Settings is what the wallet was told to sign for.
type Settings struct {
	DAppDefinitionAddress string
	NetworkID             byte
	ExpectedOrigin        string
}

// Verifier checks complete bundles. It is safe for concurrent use.
type Verifier struct {
	settings Settings
	owners   OwnerKeysFetcher
	logger   logging.Logger
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithOwnerKeys enables the on-ledger owner_keys lookup.
func WithOwnerKeys(f OwnerKeysFetcher) Option {
	return func(v *Verifier) { v.owners = f }
}

// WithLogger sets the logger used for per-proof diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func NewVerifier(s Settings, opts ...Option) *Verifier {
	v := &Verifier{settings: s, logger: logging.Nop()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify checks every signed challenge in b and the coherence of the
// bundle as a whole. It never touches the challenge store.
func (v *Verifier) Verify(ctx context.Context, b *Bundle) Result {
	var res Result

	if b == nil || len(b.Proofs) == 0 {
		res.add(-1, KindMalformed, "no proofs")
		return res
	}
	if err := b.Validate(); err != nil {
		res.add(-1, KindMalformed, "%v", err)
		return res
	}

	persona := b.PersonaProof()
	if persona.Address != b.Persona.IdentityAddress {
		res.add(-1, KindIncoherent, "persona proof address differs from persona identity address")
	}

	for i := range b.Proofs {
		p := &b.Proofs[i]
		if p.Challenge != persona.Challenge {
			res.add(i, KindIncoherent, "challenge differs from persona proof")
			continue
		}
		if kind, err := v.verifyProof(ctx, p); err != nil {
			v.logger.Debug(ctx, "proof rejected", "index", i, "type", p.Type, "address", p.Address, "error", err)
			res.add(i, kind, "%v", err)
		}
	}

	return res
}

func (v *Verifier) verifyProof(ctx context.Context, p *SignedChallenge) (Kind, error) {
	pub, err := parsePublicKey(p.Proof)
	if err != nil {
		return KindSignature, err
	}

	hash, err := SignatureMessage(p.Challenge, v.settings.DAppDefinitionAddress, v.settings.ExpectedOrigin)
	if err != nil {
		return KindSignature, err
	}
	if err := verifySignature(p.Proof.Curve, pub, hash, p.Proof.Signature); err != nil {
		return KindSignature, err
	}

	return v.verifyOwnership(ctx, p, pub)
}

// verifyOwnership checks that pub controls p.Address. Listed owner keys
// take precedence; otherwise the address must be the one preallocated for
// pub.
func (v *Verifier) verifyOwnership(ctx context.Context, p *SignedChallenge, pub []byte) (Kind, error) {
	if v.owners != nil {
		hashes, ok, err := v.owners.OwnerKeyHashes(ctx, p.Address)
		if err != nil {
			return KindUnavailable, fmt.Errorf("owner keys: %w", err)
		}
		if ok {
			if !hasNetworkPrefix(p, v.settings.NetworkID) {
				return KindAddress, fmt.Errorf("address %s is not on network %d", p.Address, v.settings.NetworkID)
			}
			if !slices.Contains(hashes, PublicKeyHashHex(pub)) {
				return KindAddress, fmt.Errorf("public key is not an owner of %s", p.Address)
			}
			return KindNone, nil
		}
	}

	derived, err := PreallocatedAddress(p.Type, p.Proof.Curve, pub, v.settings.NetworkID)
	if err != nil {
		return KindAddress, err
	}
	if derived != p.Address {
		return KindAddress, fmt.Errorf("address %s is not derived from the public key", p.Address)
	}
	return KindNone, nil
}

func hasNetworkPrefix(p *SignedChallenge, network byte) bool {
	prefix := HRP(p.Type, network) + "1"
	return len(p.Address) > len(prefix) && p.Address[:len(prefix)] == prefix
}
