package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/resolver"
)

// ErrNoSigningKey is returned by mutating calls of a read-only client.
var ErrNoSigningKey = errors.New("client has no signing key")

// APIError is a non-2xx response of the registry API. It unwraps to the
// registry sentinel error matching its code, so callers can use errors.Is
// the same way they would against a local deployment.
type APIError struct {
	StatusCode int
	Message    string
	Code       *interfaces.ErrorCode
}

func (e *APIError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("registry returned %d (code %d): %s", e.StatusCode, *e.Code, e.Message)
	}
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Code == nil {
		return nil
	}
	for _, sentinel := range []*interfaces.Error{
		interfaces.ErrInvalidCaller,
		interfaces.ErrInvalidArgs,
		interfaces.ErrExpectAssetAddress,
		interfaces.ErrNameHasBeenRegistered,
		interfaces.ErrNameHasExpired,
		interfaces.ErrContractNotExists,
		interfaces.ErrPrimaryRecordNotExists,
		interfaces.ErrInvalidCredentialToken,
	} {
		if sentinel.Code == *e.Code {
			return sentinel
		}
	}
	return nil
}

// RegistryClient is a typed client of the registry HTTP API. Every mutating
// request is signed with the client's key, whose address is the caller.
type RegistryClient struct {
	baseURL    string
	key        *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewRegistryClient creates a client for the API at baseURL
// (e.g. "http://localhost:8080"). key may be nil for a read-only client.
// The request timeout defaults to 30 seconds.
func NewRegistryClient(baseURL string, key *ecdsa.PrivateKey, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to trust a
// self-signed server certificate.
func (c *RegistryClient) WithHTTPClient(httpClient *http.Client) *RegistryClient {
	c.httpClient = httpClient
	return c
}

// Address returns the caller address of the client's key.
func (c *RegistryClient) Address() (interfaces.Address, error) {
	if c.key == nil {
		return interfaces.Address{}, ErrNoSigningKey
	}
	return cryptoutils.KeyAddress(c.key), nil
}

func (c *RegistryClient) do(ctx context.Context, method, path string, in, out any, signed bool) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if c.key == nil {
			return ErrNoSigningKey
		}
		if err := cryptoutils.SignRequest(c.key, req, body); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response of %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var parsed api.ErrorResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
			apiErr.Code = parsed.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response of %s %s: %w", method, path, err)
	}
	return nil
}

func partitionPath(partition interfaces.PartitionID, rest string) string {
	return fmt.Sprintf("/api/v1/partitions/%d%s", partition, rest)
}

func nodePath(partition interfaces.PartitionID, node interfaces.Node, rest string) string {
	return partitionPath(partition, "/nodes/"+node.String()+rest)
}

// Info describes the deployment.
func (c *RegistryClient) Info(ctx context.Context) (*api.DeploymentInfo, error) {
	var out api.DeploymentInfo
	return &out, c.do(ctx, http.MethodGet, "/api/v1/info", nil, &out, false)
}

// Resolve looks a name up on a partition.
func (c *RegistryClient) Resolve(ctx context.Context, partition interfaces.PartitionID, name string) (*api.ResolveResponse, error) {
	var out api.ResolveResponse
	return &out, c.do(ctx, http.MethodGet, partitionPath(partition, "/names/"+url.PathEscape(name)), nil, &out, false)
}

// Record returns the record of a node.
func (c *RegistryClient) Record(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodGet, nodePath(partition, node, ""), nil, &out, false)
}

// Register registers a top-level name on the primary registry.
func (c *RegistryClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/register", req, &out, true)
}

// Renew extends a live lease.
func (c *RegistryClient) Renew(ctx context.Context, req api.RenewRequest) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/renew", req, &out, true)
}

// RegisterSubName registers a label under a name the caller owns.
func (c *RegistryClient) RegisterSubName(ctx context.Context, req api.SubNameRequest) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/subnames", req, &out, true)
}

// RenewSubName extends the ttl of a subname the caller owns.
func (c *RegistryClient) RenewSubName(ctx context.Context, req api.RenewSubNameRequest) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/subnames/renew", req, &out, true)
}

// MintToken mints the credential token of a name's current lease.
func (c *RegistryClient) MintToken(ctx context.Context, req api.TokenRequest) (*api.TokenResponse, error) {
	var out api.TokenResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/tokens/mint", req, &out, true)
}

// BurnToken burns the caller's credential token of a name's current lease.
func (c *RegistryClient) BurnToken(ctx context.Context, req api.TokenRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/tokens/burn", req, nil, true)
}

// TransferToken moves a token the caller holds.
func (c *RegistryClient) TransferToken(ctx context.Context, req api.TransferTokenRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/tokens/transfer", req, nil, true)
}

// Redeem registers a name on a secondary partition with a credential token.
func (c *RegistryClient) Redeem(ctx context.Context, partition interfaces.PartitionID, req api.RedeemRequest) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPost, partitionPath(partition, "/redeem"), req, &out, true)
}

// Replicate copies a live name of the caller to a secondary partition.
func (c *RegistryClient) Replicate(ctx context.Context, name string, partition interfaces.PartitionID) (*api.RecordResponse, error) {
	var out api.RecordResponse
	req := api.ReplicateRequest{Name: name, Partition: partition}
	return &out, c.do(ctx, http.MethodPost, "/api/v1/replicate", req, &out, true)
}

// SetOwner transfers a record.
func (c *RegistryClient) SetOwner(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, owner interfaces.Address) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPut, nodePath(partition, node, "/owner"), api.SetOwnerRequest{Owner: owner}, &out, true)
}

// SetResolver points a record at a resolver.
func (c *RegistryClient) SetResolver(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, resolverID interfaces.ContractID) (*api.RecordResponse, error) {
	var out api.RecordResponse
	return &out, c.do(ctx, http.MethodPut, nodePath(partition, node, "/resolver"), api.SetResolverRequest{Resolver: resolverID}, &out, true)
}

// Unregister destroys a record and its profile.
func (c *RegistryClient) Unregister(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) error {
	return c.do(ctx, http.MethodDelete, nodePath(partition, node, ""), nil, nil, true)
}

// Profile returns every sub-record of a node.
func (c *RegistryClient) Profile(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) (*resolver.Profile, error) {
	var out resolver.Profile
	return &out, c.do(ctx, http.MethodGet, nodePath(partition, node, "/profile"), nil, &out, false)
}

// RemoveProfile drops every sub-record of a node.
func (c *RegistryClient) RemoveProfile(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) error {
	return c.do(ctx, http.MethodDelete, nodePath(partition, node, "/profile"), nil, nil, true)
}

// NewAddressInfo creates the address sub-record of a node.
func (c *RegistryClient) NewAddressInfo(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, req api.NewAddressInfoRequest) error {
	return c.do(ctx, http.MethodPost, nodePath(partition, node, "/addresses"), req, nil, true)
}

// SetAddress sets the address of a node on one chain.
func (c *RegistryClient) SetAddress(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, chainID interfaces.ChainID, address []byte) error {
	path := nodePath(partition, node, fmt.Sprintf("/addresses/%d", chainID))
	return c.do(ctx, http.MethodPut, path, api.SetAddressRequest{Address: address}, nil, true)
}

// GetAddress returns the address of a node on one chain.
func (c *RegistryClient) GetAddress(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, chainID interfaces.ChainID) ([]byte, error) {
	var out api.AddressResponse
	err := c.do(ctx, http.MethodGet, nodePath(partition, node, fmt.Sprintf("/addresses/%d", chainID)), nil, &out, false)
	return out.Address, err
}

// GetAddresses returns the whole address book of a node.
func (c *RegistryClient) GetAddresses(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) ([]resolver.AddressEntry, error) {
	var out []resolver.AddressEntry
	err := c.do(ctx, http.MethodGet, nodePath(partition, node, "/addresses"), nil, &out, false)
	return out, err
}

// NewNameInfo creates the name sub-record of a node.
func (c *RegistryClient) NewNameInfo(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, payer interfaces.Address, name []byte) error {
	return c.do(ctx, http.MethodPost, nodePath(partition, node, "/name"), api.ValueRequest{Payer: payer, Value: name}, nil, true)
}

// SetName updates the name sub-record of a node.
func (c *RegistryClient) SetName(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, name []byte) error {
	return c.do(ctx, http.MethodPut, nodePath(partition, node, "/name"), api.ValueRequest{Value: name}, nil, true)
}

// GetName returns the name sub-record of a node.
func (c *RegistryClient) GetName(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) ([]byte, error) {
	var out api.ValueResponse
	err := c.do(ctx, http.MethodGet, nodePath(partition, node, "/name"), nil, &out, false)
	return out.Value, err
}

// NewPubkeyInfo creates the pubkey sub-record of a node.
func (c *RegistryClient) NewPubkeyInfo(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, payer interfaces.Address, pubkey []byte) error {
	return c.do(ctx, http.MethodPost, nodePath(partition, node, "/pubkey"), api.ValueRequest{Payer: payer, Value: pubkey}, nil, true)
}

// SetPubkey updates the pubkey sub-record of a node.
func (c *RegistryClient) SetPubkey(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node, pubkey []byte) error {
	return c.do(ctx, http.MethodPut, nodePath(partition, node, "/pubkey"), api.ValueRequest{Value: pubkey}, nil, true)
}

// GetPubkey returns the pubkey sub-record of a node.
func (c *RegistryClient) GetPubkey(ctx context.Context, partition interfaces.PartitionID, node interfaces.Node) ([]byte, error) {
	var out api.ValueResponse
	err := c.do(ctx, http.MethodGet, nodePath(partition, node, "/pubkey"), nil, &out, false)
	return out.Value, err
}

// Events lists committed events of a partition starting at from. A
// non-positive limit uses the server default.
func (c *RegistryClient) Events(ctx context.Context, partition interfaces.PartitionID, from uint64, limit int) (*api.EventsResponse, error) {
	query := url.Values{}
	query.Set("from", fmt.Sprint(from))
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	var out api.EventsResponse
	return &out, c.do(ctx, http.MethodGet, partitionPath(partition, "/events?"+query.Encode()), nil, &out, false)
}

// Balance returns the native balance of an address.
func (c *RegistryClient) Balance(ctx context.Context, partition interfaces.PartitionID, addr interfaces.Address) (*api.BalanceResponse, error) {
	var out api.BalanceResponse
	return &out, c.do(ctx, http.MethodGet, partitionPath(partition, "/balances/"+addr.String()), nil, &out, false)
}

// TokenBalance returns how many units of a token an address holds.
func (c *RegistryClient) TokenBalance(ctx context.Context, partition interfaces.PartitionID, token interfaces.TokenID, addr interfaces.Address) (uint64, error) {
	var out api.TokenBalanceResponse
	err := c.do(ctx, http.MethodGet, partitionPath(partition, "/tokens/"+token.String()+"/balances/"+addr.String()), nil, &out, false)
	return out.Balance, err
}

// Faucet requests devnet funds for an address.
func (c *RegistryClient) Faucet(ctx context.Context, partition interfaces.PartitionID, addr interfaces.Address) (*api.BalanceResponse, error) {
	var out api.BalanceResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: partition, Address: addr}, &out, false)
}

// UpdateAdmin hands the primary registry to a new admin.
func (c *RegistryClient) UpdateAdmin(ctx context.Context, admin interfaces.Address) error {
	return c.do(ctx, http.MethodPost, "/api/v1/admin/transfer", api.UpdateAdminRequest{Admin: admin}, nil, true)
}

// Withdraw moves collected rent out of the primary registry. amount is decimal.
func (c *RegistryClient) Withdraw(ctx context.Context, to interfaces.Address, amount string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/admin/withdraw", api.WithdrawRequest{To: to, Amount: amount}, nil, true)
}

// Snapshot stores every partition and returns the manifest id.
func (c *RegistryClient) Snapshot(ctx context.Context) (interfaces.ContentID, error) {
	var out api.ContentResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/snapshot", nil, &out, true)
	return out.ID, err
}

// Restore replaces every partition with a stored snapshot.
func (c *RegistryClient) Restore(ctx context.Context, manifest interfaces.ContentID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/admin/restore", api.RestoreRequest{Manifest: manifest}, nil, true)
}

// ExportEvents stores the event log of a partition and returns its id.
func (c *RegistryClient) ExportEvents(ctx context.Context, partition interfaces.PartitionID) (interfaces.ContentID, error) {
	var out api.ContentResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/admin/partitions/%d/export", partition), nil, &out, true)
	return out.ID, err
}
