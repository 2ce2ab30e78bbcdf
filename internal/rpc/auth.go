package rpc

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/ovenworks/sliceledger/pkg/crypto"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// SigningDigest computes the digest a caller signs for a mutating method:
// BLAKE3 over method, caller address, nonce, and the method's canonical
// arguments, newline-joined. Client and server must agree on the argument
// order; see the handlers for the per-method layout.
func SigningDigest(method string, caller types.Address, nonce uint64, args ...string) types.Hash {
	parts := make([]string, 0, 3+len(args))
	parts = append(parts, method, caller.Hex(), strconv.FormatUint(nonce, 10))
	parts = append(parts, args...)
	return crypto.Hash([]byte(strings.Join(parts, "\n")))
}

// authenticate verifies a mutating request: pubkey decodes to the caller
// address, the nonce matches the account's next expected nonce, and the
// Schnorr signature covers the method's signing digest. On success the
// stored nonce is bumped and the caller address returned.
func (s *Server) authenticate(method string, auth AuthParams, args ...string) (types.Address, *Error) {
	pubKey, err := hex.DecodeString(auth.PubKey)
	if err != nil || len(pubKey) != 33 {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "pubkey must be 33-byte compressed hex"}
	}
	sig, err := hex.DecodeString(auth.Signature)
	if err != nil || len(sig) != 64 {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "signature must be 64-byte hex"}
	}

	caller := crypto.AddressFromPubKey(pubKey)

	expected, err := s.store.NextNonce(caller)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if auth.Nonce != expected {
		return types.Address{}, &Error{
			Code:    CodeBadNonce,
			Message: "nonce mismatch",
			Data: map[string]interface{}{
				"expected": expected,
				"got":      auth.Nonce,
			},
		}
	}

	digest := SigningDigest(method, caller, auth.Nonce, args...)
	if !crypto.VerifySignature(digest[:], sig, pubKey) {
		return types.Address{}, &Error{Code: CodeInvalidSignature, Message: "signature verification failed"}
	}

	// A verified request consumes its nonce even if the operation itself
	// fails, so a rejected call cannot be replayed.
	if err := s.store.BumpNonce(caller); err != nil {
		return types.Address{}, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	return caller, nil
}
