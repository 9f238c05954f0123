package rola

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// Kind classifies why a bundle failed verification.
type Kind int

const (
	KindNone Kind = iota
	KindMalformed
	KindSignature
	KindAddress
	KindIncoherent
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformed:
		return "malformed"
	case KindSignature:
		return "signature"
	case KindAddress:
		return "address"
	case KindIncoherent:
		return "incoherent"
	case KindUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Failure is one rejected proof (Index is -1 for bundle-level problems).
type Failure struct {
	Index  int
	Kind   Kind
	Reason string
}

// Result is the all-or-nothing outcome of verifying one bundle. Every
// failing proof is collected; a single failure rejects the bundle.
type Result struct {
	Failures []Failure
}

func (r Result) OK() bool { return len(r.Failures) == 0 }

// Kind reports the most severe failure kind. An unavailable gateway
// outranks proof failures so that infrastructure trouble is not reported
// as a bad signature.
func (r Result) Kind() Kind {
	k := KindNone
	for _, f := range r.Failures {
		if f.Kind == KindUnavailable {
			return KindUnavailable
		}
		if k == KindNone {
			k = f.Kind
		}
	}
	return k
}

// Err maps the result onto the shared sentinel errors, or nil when OK.
func (r Result) Err() error {
	switch r.Kind() {
	case KindNone:
		return nil
	case KindMalformed:
		return fmt.Errorf("%w: %s", common.ErrMalformedBundle, r.summary())
	case KindUnavailable:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, r.summary())
	default:
		return fmt.Errorf("%w: %s", common.ErrSignatureInvalid, r.summary())
	}
}

func (r Result) summary() string {
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		if f.Index < 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Kind, f.Reason))
			continue
		}
		parts = append(parts, fmt.Sprintf("proof %d %s: %s", f.Index, f.Kind, f.Reason))
	}
	return strings.Join(parts, "; ")
}

func (r *Result) add(index int, kind Kind, format string, args ...any) {
	r.Failures = append(r.Failures, Failure{Index: index, Kind: kind, Reason: fmt.Sprintf(format, args...)})
}
