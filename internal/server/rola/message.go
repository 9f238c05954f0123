package rola

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const signaturePrefix = 'R'

var errDAppAddressTooLong = errors.New("dApp definition address longer than 255 bytes")

// SignatureMessage returns the 32-byte hash a wallet signs for challenge:
//
//	blake2b-256("R" || challenge || len(dAppAddr) || dAppAddr || origin)
//
// challenge is hex, the length is one byte, strings are utf-8.
func SignatureMessage(challenge, dAppDefinitionAddress, origin string) ([]byte, error) {
	ch, err := hex.DecodeString(challenge)
	if err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	if len(dAppDefinitionAddress) > 0xff {
		return nil, errDAppAddressTooLong
	}

	msg := make([]byte, 0, 1+len(ch)+1+len(dAppDefinitionAddress)+len(origin))
	msg = append(msg, signaturePrefix)
	msg = append(msg, ch...)
	msg = append(msg, byte(len(dAppDefinitionAddress)))
	msg = append(msg, dAppDefinitionAddress...)
	msg = append(msg, origin...)

	sum := blake2b.Sum256(msg)
	return sum[:], nil
}
