/*
Package api holds the wire types and server configuration of the name registry
HTTP API.

It is organized into two subpackages:

 1. handlers - the chi routes serving a service.Deployment
 2. clients - a typed client that signs requests on behalf of a caller key

The types in this package are shared by both sides. Addresses, nodes and
contract ids travel as hex strings; native amounts travel as decimal strings.

# Authentication

Reads are public. Mutating requests carry an X-ANS-Signature header holding a
recoverable secp256k1 signature over the method, the request URI and the
body. The recovered key determines the caller address, so a request cannot be
replayed on another endpoint or with another body. Signed requests are not
bound to a nonce; see cryptoutils.RequestDigest.

# Errors

Failed requests return ErrorResponse. Registry failures carry the numeric
code of the failing sentinel, which clients.APIError maps back so callers can
match it with errors.Is.
*/
package api
