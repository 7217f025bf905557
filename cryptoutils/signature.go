package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/ans-registry/interfaces"
)

// SignatureHeader carries the hex encoded request signature.
const SignatureHeader = "X-ANS-Signature"

var (
	// ErrMissingSignature is returned when a request carries no signature header.
	ErrMissingSignature = errors.New("missing request signature")

	// ErrInvalidSignature is returned when a signature cannot be decoded or recovered.
	ErrInvalidSignature = errors.New("invalid request signature")
)

// RequestDigest is the 32-byte message signed for an HTTP request.
func RequestDigest(method, requestURI string, body []byte) []byte {
	return crypto.Keccak256([]byte(strings.ToUpper(method)), []byte(requestURI), body)
}

// SignRequestPayload signs the digest of a request and returns the hex signature.
func SignRequestPayload(key *ecdsa.PrivateKey, method, requestURI string, body []byte) (string, error) {
	sig, err := crypto.Sign(RequestDigest(method, requestURI, body), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return hexutil.Encode(sig), nil
}

// SignRequest sets the signature header on req. body must be the exact bytes
// sent as the request body.
func SignRequest(key *ecdsa.PrivateKey, req *http.Request, body []byte) error {
	sig, err := SignRequestPayload(key, req.Method, req.URL.RequestURI(), body)
	if err != nil {
		return err
	}
	req.Header.Set(SignatureHeader, sig)
	return nil
}

// RecoverSigner returns the public key that produced sig over the request digest.
func RecoverSigner(sig string, method, requestURI string, body []byte) (*ecdsa.PublicKey, error) {
	if sig == "" {
		return nil, ErrMissingSignature
	}
	raw, err := hexutil.Decode("0x" + strings.TrimPrefix(sig, "0x"))
	if err != nil || len(raw) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(RequestDigest(method, requestURI, body), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return pub, nil
}

// RecoverCaller returns the asset address that signed the request.
func RecoverCaller(sig string, method, requestURI string, body []byte) (interfaces.Address, error) {
	pub, err := RecoverSigner(sig, method, requestURI, body)
	if err != nil {
		return interfaces.Address{}, err
	}
	return AddressOf(pub), nil
}
