// Package cryptoutils provides the key handling and request authentication used
// by the registry HTTP surface.
//
// Callers are identified by secp256k1 keys. The asset address of a key is
//
//	0x00 ++ keccak256(compressed pubkey)
//
// Every mutating request carries a recoverable signature over
//
//	keccak256(method ++ request URI ++ body)
//
// in the X-ANS-Signature header (65 bytes, hex). The server recovers the public
// key from the signature and uses the derived address as the transaction
// signer, so the caller never states its own identity.
//
// # Key files
//
// Private keys are stored as a single line of hex, the format used by
// go-ethereum's crypto.SaveECDSA / crypto.LoadECDSA.
//
// # TLS
//
// SelfSignedCert produces a throwaway certificate for serving the API over
// HTTPS on local or development deployments where no chain of trust exists.
package cryptoutils
