package rola

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// ProofType tells which kind of entity a signed challenge claims.
type ProofType string

const (
	ProofPersona ProofType = "persona"
	ProofAccount ProofType = "account"
)

// Curve names the signature scheme of a proof.
type Curve string

const (
	CurveEd25519   Curve = "curve25519"
	CurveSecp256k1 Curve = "secp256k1"
)

// EmailEntry is the persona-data entry carrying email addresses.
const EmailEntry = "emailAddresses"

type Proof struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Curve     Curve  `json:"curve"`
}

// SignedChallenge is one wallet signature over a challenge, proving
// control of Address.
type SignedChallenge struct {
	Type      ProofType `json:"type"`
	Challenge string    `json:"challenge"`
	Proof     Proof     `json:"proof"`
	Address   string    `json:"address"`
}

type PersonaDataEntry struct {
	Entry  string          `json:"entry"`
	Fields json.RawMessage `json:"fields"`
}

type Persona struct {
	IdentityAddress string `json:"identityAddress"`
	Label           string `json:"label"`
}

// Bundle is the decoded body of a verification request.
//
// On the wire it stays a JSON array mixing signed challenges,
// {"personaData": [...]} and {"persona": {...}} elements in any order.
type Bundle struct {
	Proofs      []SignedChallenge
	PersonaData []PersonaDataEntry
	Persona     *Persona
}

// UnmarshalJSON classifies every array element by its keys. Elements that
// match no known shape make the whole bundle malformed.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bundle{}
	for i, el := range raw {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(el, &keys); err != nil || keys == nil {
			return fmt.Errorf("%w: element %d is not an object", common.ErrMalformedBundle, i)
		}

		switch {
		case keys["personaData"] != nil:
			var entries []PersonaDataEntry
			if err := json.Unmarshal(keys["personaData"], &entries); err != nil {
				return fmt.Errorf("%w: element %d: %v", common.ErrMalformedBundle, i, err)
			}
			b.PersonaData = append(b.PersonaData, entries...)
		case keys["persona"] != nil:
			if b.Persona != nil {
				return fmt.Errorf("%w: duplicate persona", common.ErrMalformedBundle)
			}
			var p Persona
			if err := json.Unmarshal(keys["persona"], &p); err != nil {
				return fmt.Errorf("%w: element %d: %v", common.ErrMalformedBundle, i, err)
			}
			b.Persona = &p
		case keys["proof"] != nil || keys["challenge"] != nil:
			var sc SignedChallenge
			dec := json.NewDecoder(bytes.NewReader(el))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&sc); err != nil {
				return fmt.Errorf("%w: element %d: %v", common.ErrMalformedBundle, i, err)
			}
			b.Proofs = append(b.Proofs, sc)
		default:
			return fmt.Errorf("%w: element %d has unknown shape", common.ErrMalformedBundle, i)
		}
	}
	return nil
}

// Validate checks the shape the rest of the flow relies on: exactly one
// persona proof, the persona metadata and an email. It does no I/O.
func (b *Bundle) Validate() error {
	var personaProofs int
	for i, p := range b.Proofs {
		switch p.Type {
		case ProofPersona:
			personaProofs++
		case ProofAccount:
		default:
			return fmt.Errorf("%w: proof %d has unknown type %q", common.ErrMalformedBundle, i, p.Type)
		}
		if p.Challenge == "" || p.Address == "" || p.Proof.PublicKey == "" || p.Proof.Signature == "" {
			return fmt.Errorf("%w: proof %d is incomplete", common.ErrMalformedBundle, i)
		}
	}
	if personaProofs != 1 {
		return fmt.Errorf("%w: expected one persona proof, got %d", common.ErrMalformedBundle, personaProofs)
	}
	if b.Persona == nil || b.Persona.IdentityAddress == "" || b.Persona.Label == "" {
		return fmt.Errorf("%w: persona is missing", common.ErrMalformedBundle)
	}
	if b.Email() == "" {
		return fmt.Errorf("%w: email is missing", common.ErrMalformedBundle)
	}
	return nil
}

// Challenges returns every distinct challenge in first-seen order.
func (b *Bundle) Challenges() []string {
	seen := make(map[string]struct{}, len(b.Proofs))
	out := make([]string, 0, len(b.Proofs))
	for _, p := range b.Proofs {
		if p.Challenge == "" {
			continue
		}
		if _, ok := seen[p.Challenge]; ok {
			continue
		}
		seen[p.Challenge] = struct{}{}
		out = append(out, p.Challenge)
	}
	return out
}

// PersonaProof returns the first persona proof, or nil.
func (b *Bundle) PersonaProof() *SignedChallenge {
	for i := range b.Proofs {
		if b.Proofs[i].Type == ProofPersona {
			return &b.Proofs[i]
		}
	}
	return nil
}

// Email returns the first shared email address. When no entry is labeled
// emailAddresses, the first string field of the first entry is used.
func (b *Bundle) Email() string {
	for _, e := range b.PersonaData {
		if e.Entry == EmailEntry {
			if s := firstString(e.Fields); s != "" {
				return s
			}
		}
	}
	if len(b.PersonaData) > 0 {
		return firstString(b.PersonaData[0].Fields)
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	var fields []string
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return ""
	}
	return fields[0]
}
