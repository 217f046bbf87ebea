// Package eip191 implements personal-message signature recovery
// ("\x19Ethereum Signed Message:\n" prefixing) for the login challenge flow.
package eip191

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

var ErrMalformedSignature = errors.New("malformed signature")

// RecoverSigner recovers the signing account from an EIP-191 signature over
// message. It returns the signer address lowercased and the uncompressed
// 65-byte public key as 0x04-prefixed hex. Recovery is used instead of plain
// verification so the caller also gets the public key, which verify-only APIs
// discard.
func RecoverSigner(message string, signature string) (address string, publicKey string, err error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return "", "", err
	}

	hash := accounts.TextHash([]byte(message))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", "", ErrMalformedSignature
	}

	address = strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
	publicKey = hexutil.Encode(crypto.FromECDSAPub(pub))
	return address, publicKey, nil
}

// Matches reports whether the signature over message was produced by the
// claimed address. Address comparison is case-insensitive since clients may
// send EIP-55 checksum casing.
func Matches(claimedAddress, message, signature string) bool {
	recovered, _, err := RecoverSigner(message, signature)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered, claimedAddress)
}

func decodeSignature(signature string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(raw) != signatureLength {
		return nil, ErrMalformedSignature
	}

	// Wallets emit V as 27/28; secp256k1 recovery wants 0/1.
	sig := make([]byte, signatureLength)
	copy(sig, raw)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, ErrMalformedSignature
	}
	return sig, nil
}
