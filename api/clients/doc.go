/*
Package clients provides a client library for the name registry HTTP API.

RegistryClient wraps every endpoint with a typed method. Mutating calls are
signed with the client's secp256k1 key, whose address becomes the caller on
the server; a client created without a key can only read.

# Errors

Non-2xx responses are returned as *APIError. When the server reported a
registry error code, the APIError unwraps to the matching sentinel:

	_, err := client.Register(ctx, api.RegisterRequest{Name: "alice", Owner: owner, Duration: d})
	if errors.Is(err, interfaces.ErrNameHasBeenRegistered) {
	    // pick another name
	}

# Example Usage

	key, _ := cryptoutils.LoadKey("alice.key")
	client := clients.NewRegistryClient("http://localhost:8080", key)

	rec, err := client.Register(ctx, api.RegisterRequest{
	    Name:     "alice",
	    Owner:    cryptoutils.KeyAddress(key),
	    Duration: 30 * 24 * 3600 * 1000,
	})

	token, err := client.MintToken(ctx, api.TokenRequest{Name: "alice"})
	err = client.TransferToken(ctx, api.TransferTokenRequest{From: 0, To: 1, Token: token.Token})
	replica, err := client.Redeem(ctx, 1, api.RedeemRequest{Name: "alice", Token: token.Token, TTL: token.TTL})
*/
package clients
