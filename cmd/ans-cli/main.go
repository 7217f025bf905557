package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/api/clients"
	"github.com/ruteri/ans-registry/cmd/flags"
	"github.com/ruteri/ans-registry/common"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/resolver"
	"github.com/urfave/cli/v2"
)

var flagPartition = &cli.UintFlag{
	Name:  "partition",
	Value: 0,
	Usage: "partition to operate on",
}
var flagName = &cli.StringFlag{
	Name:  "name",
	Usage: "name to operate on",
}
var flagParent = &cli.StringFlag{
	Name:  "parent",
	Usage: "parent name when --name is a subname label",
}
var flagNode = &cli.StringFlag{
	Name:  "node",
	Usage: "node hash, instead of --name",
}
var flagDuration = &cli.DurationFlag{
	Name:  "duration",
	Value: 30 * 24 * time.Hour,
	Usage: "lease duration",
}
var flagPayer = &cli.StringFlag{
	Name:  "payer",
	Usage: "paying address, defaults to the signer",
}
var flagOwner = &cli.StringFlag{
	Name:  "owner",
	Usage: "owning address, defaults to the signer",
}
var flagToken = &cli.StringFlag{
	Name:  "token",
	Usage: "credential token id",
}
var flagAddress = &cli.StringFlag{
	Name:  "address",
	Usage: "address to query, defaults to the signer",
}
var flagChain = &cli.UintFlag{
	Name:  "chain",
	Value: uint(interfaces.AlphChainID),
	Usage: "chain id of the address entry",
}
var flagValue = &cli.StringFlag{
	Name:     "value",
	Required: true,
	Usage:    "hex encoded value",
}

var nodeFlags = []cli.Flag{flagPartition, flagName, flagParent, flagNode}

func main() {
	app := &cli.App{
		Name:    "ans-cli",
		Usage:   "Interact with the name registry API",
		Version: common.Version,
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			flags.KeyFileFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "Generate a signing key and print its address",
				Action: func(cCtx *cli.Context) error {
					path := cCtx.String(flags.KeyFileFlag.Name)
					if path == "" {
						return errors.New("--key-file is required")
					}
					key, err := cryptoutils.GenerateKey()
					if err != nil {
						return err
					}
					if err := cryptoutils.SaveKey(path, key); err != nil {
						return err
					}
					fmt.Println(cryptoutils.KeyAddress(key).String())
					return nil
				},
			},
			{
				Name:  "info",
				Usage: "Describe the deployment",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					info, err := c.Info(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(info)
				},
			},
			{
				Name:      "resolve",
				Usage:     "Look a name up",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{flagPartition},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					res, err := c.Resolve(cCtx.Context, partition(cCtx), cCtx.Args().First())
					if err != nil {
						return err
					}
					return printJSON(res)
				},
			},
			{
				Name:  "record",
				Usage: "Show the record of a node",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.Record(cCtx.Context, partition(cCtx), node)
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "register",
				Usage: "Register a top-level name",
				Flags: []cli.Flag{requiredName(), flagOwner, flagPayer, flagDuration},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					owner, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.Register(cCtx.Context, api.RegisterRequest{
						Name:     cCtx.String(flagName.Name),
						Owner:    owner,
						Payer:    payer,
						Duration: uint64(cCtx.Duration(flagDuration.Name).Milliseconds()),
					})
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "renew",
				Usage: "Extend the lease of a name",
				Flags: []cli.Flag{requiredName(), flagPayer, flagDuration},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					_, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.Renew(cCtx.Context, api.RenewRequest{
						Name:     cCtx.String(flagName.Name),
						Payer:    payer,
						Duration: uint64(cCtx.Duration(flagDuration.Name).Milliseconds()),
					})
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:      "register-subname",
				Usage:     "Register a label under a name you own",
				ArgsUsage: "<parent> <label>",
				Flags:     []cli.Flag{flagOwner, flagPayer},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return errors.New("expected <parent> <label>")
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					owner, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.RegisterSubName(cCtx.Context, api.SubNameRequest{
						Parent: cCtx.Args().Get(0),
						Label:  cCtx.Args().Get(1),
						Owner:  owner,
						Payer:  payer,
					})
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:      "renew-subname",
				Usage:     "Extend the ttl of a subname you own",
				ArgsUsage: "<parent> <label>",
				Flags:     []cli.Flag{flagPayer, flagDuration},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return errors.New("expected <parent> <label>")
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					_, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.RenewSubName(cCtx.Context, api.RenewSubNameRequest{
						Parent:   cCtx.Args().Get(0),
						Label:    cCtx.Args().Get(1),
						Payer:    payer,
						Duration: uint64(cCtx.Duration(flagDuration.Name).Milliseconds()),
					})
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "unregister",
				Usage: "Destroy a record and its profile",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					return c.Unregister(cCtx.Context, partition(cCtx), node)
				},
			},
			{
				Name:  "set-owner",
				Usage: "Transfer a record",
				Flags: append([]cli.Flag{requiredFlag(flagOwner)}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					owner, err := interfaces.NewAddressFromHex(cCtx.String(flagOwner.Name))
					if err != nil {
						return err
					}
					rec, err := c.SetOwner(cCtx.Context, partition(cCtx), node, owner)
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "set-resolver",
				Usage: "Point a record at a resolver contract",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "resolver", Required: true, Usage: "resolver contract id"}}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					id, err := interfaces.NewContractIDFromHex(cCtx.String("resolver"))
					if err != nil {
						return err
					}
					rec, err := c.SetResolver(cCtx.Context, partition(cCtx), node, id)
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			tokenCommand(),
			{
				Name:  "redeem",
				Usage: "Register a name on a secondary partition with a credential token",
				Flags: []cli.Flag{flagPartition, requiredName(), requiredFlag(flagToken), flagOwner, flagPayer,
					&cli.Uint64Flag{Name: "ttl", Required: true, Usage: "expiry carried by the token, in milliseconds"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					owner, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					token, err := interfaces.NewContractIDFromHex(cCtx.String(flagToken.Name))
					if err != nil {
						return err
					}
					rec, err := c.Redeem(cCtx.Context, partition(cCtx), api.RedeemRequest{
						Name:  cCtx.String(flagName.Name),
						Owner: owner,
						Payer: payer,
						Token: token,
						TTL:   cCtx.Uint64("ttl"),
					})
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "replicate",
				Usage: "Copy a live name you own to a secondary partition",
				Flags: []cli.Flag{requiredName(), requiredFlag(flagPartition)},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					rec, err := c.Replicate(cCtx.Context, cCtx.String(flagName.Name), partition(cCtx))
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			profileCommand(),
			{
				Name:  "events",
				Usage: "List committed events of a partition",
				Flags: []cli.Flag{flagPartition,
					&cli.Uint64Flag{Name: "from", Usage: "first sequence number"},
					&cli.IntFlag{Name: "limit", Usage: "page size"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					events, err := c.Events(cCtx.Context, partition(cCtx), cCtx.Uint64("from"), cCtx.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(events)
				},
			},
			{
				Name:  "balance",
				Usage: "Show the native balance of an address",
				Flags: []cli.Flag{flagPartition, flagAddress},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					addr, err := addressOrSigner(cCtx, c)
					if err != nil {
						return err
					}
					balance, err := c.Balance(cCtx.Context, partition(cCtx), addr)
					if err != nil {
						return err
					}
					return printJSON(balance)
				},
			},
			{
				Name:  "faucet",
				Usage: "Request devnet funds",
				Flags: []cli.Flag{flagPartition, flagAddress},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					addr, err := addressOrSigner(cCtx, c)
					if err != nil {
						return err
					}
					balance, err := c.Faucet(cCtx.Context, partition(cCtx), addr)
					if err != nil {
						return err
					}
					return printJSON(balance)
				},
			},
			adminCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage credential tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "mint",
				Usage: "Mint the token of a name's current lease",
				Flags: []cli.Flag{requiredName(), flagPayer},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					_, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					token, err := c.MintToken(cCtx.Context, api.TokenRequest{Name: cCtx.String(flagName.Name), Payer: payer})
					if err != nil {
						return err
					}
					return printJSON(token)
				},
			},
			{
				Name:  "burn",
				Usage: "Burn your token of a name's current lease",
				Flags: []cli.Flag{requiredName(), flagPayer},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					_, payer, err := ownerAndPayer(cCtx)
					if err != nil {
						return err
					}
					return c.BurnToken(cCtx.Context, api.TokenRequest{Name: cCtx.String(flagName.Name), Payer: payer})
				},
			},
			{
				Name:  "transfer",
				Usage: "Move a token, possibly to another partition",
				Flags: []cli.Flag{requiredFlag(flagToken),
					&cli.UintFlag{Name: "from", Usage: "source partition"},
					&cli.UintFlag{Name: "to", Usage: "destination partition"},
					&cli.StringFlag{Name: "recipient", Required: true, Usage: "receiving address"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					token, err := interfaces.NewContractIDFromHex(cCtx.String(flagToken.Name))
					if err != nil {
						return err
					}
					recipient, err := interfaces.NewAddressFromHex(cCtx.String("recipient"))
					if err != nil {
						return err
					}
					return c.TransferToken(cCtx.Context, api.TransferTokenRequest{
						From:      interfaces.PartitionID(cCtx.Uint("from")),
						To:        interfaces.PartitionID(cCtx.Uint("to")),
						Recipient: recipient,
						Token:     token,
					})
				},
			},
			{
				Name:  "balance",
				Usage: "Show how many units of a token an address holds",
				Flags: []cli.Flag{flagPartition, requiredFlag(flagToken), flagAddress},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					token, err := interfaces.NewContractIDFromHex(cCtx.String(flagToken.Name))
					if err != nil {
						return err
					}
					addr, err := addressOrSigner(cCtx, c)
					if err != nil {
						return err
					}
					balance, err := c.TokenBalance(cCtx.Context, partition(cCtx), token, addr)
					if err != nil {
						return err
					}
					fmt.Println(balance)
					return nil
				},
			},
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Read and edit resolver sub-records",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show every sub-record of a node",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					profile, err := c.Profile(cCtx.Context, partition(cCtx), node)
					if err != nil {
						return err
					}
					return printJSON(profile)
				},
			},
			{
				Name:  "remove",
				Usage: "Drop every sub-record of a node",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					return c.RemoveProfile(cCtx.Context, partition(cCtx), node)
				},
			},
			{
				Name:  "set-address",
				Usage: "Set the address of a node on one chain",
				Flags: append([]cli.Flag{flagChain, flagValue}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					value, err := hexValue(cCtx)
					if err != nil {
						return err
					}
					return c.SetAddress(cCtx.Context, partition(cCtx), node, interfaces.ChainID(cCtx.Uint(flagChain.Name)), value)
				},
			},
			{
				Name:  "get-address",
				Usage: "Show the address of a node on one chain, or all of them with --all",
				Flags: append([]cli.Flag{flagChain, &cli.BoolFlag{Name: "all", Usage: "list every chain"}}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					if cCtx.Bool("all") {
						var entries []resolver.AddressEntry
						entries, err = c.GetAddresses(cCtx.Context, partition(cCtx), node)
						if err != nil {
							return err
						}
						return printJSON(entries)
					}
					addr, err := c.GetAddress(cCtx.Context, partition(cCtx), node, interfaces.ChainID(cCtx.Uint(flagChain.Name)))
					if err != nil {
						return err
					}
					fmt.Println(hex.EncodeToString(addr))
					return nil
				},
			},
			{
				Name:  "set-name",
				Usage: "Set the display name of a node",
				Flags: append([]cli.Flag{flagValue}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					value, err := hexValue(cCtx)
					if err != nil {
						return err
					}
					return c.SetName(cCtx.Context, partition(cCtx), node, value)
				},
			},
			{
				Name:  "get-name",
				Usage: "Show the display name of a node",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					value, err := c.GetName(cCtx.Context, partition(cCtx), node)
					if err != nil {
						return err
					}
					fmt.Println(hex.EncodeToString(value))
					return nil
				},
			},
			{
				Name:  "set-pubkey",
				Usage: "Set the public key of a node",
				Flags: append([]cli.Flag{flagValue}, nodeFlags...),
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					value, err := hexValue(cCtx)
					if err != nil {
						return err
					}
					return c.SetPubkey(cCtx.Context, partition(cCtx), node, value)
				},
			},
			{
				Name:  "get-pubkey",
				Usage: "Show the public key of a node",
				Flags: nodeFlags,
				Action: func(cCtx *cli.Context) error {
					c, node, err := clientAndNode(cCtx)
					if err != nil {
						return err
					}
					value, err := c.GetPubkey(cCtx.Context, partition(cCtx), node)
					if err != nil {
						return err
					}
					fmt.Println(hex.EncodeToString(value))
					return nil
				},
			},
		},
	}
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administer the primary registry",
		Subcommands: []*cli.Command{
			{
				Name:      "transfer",
				Usage:     "Hand the primary registry to a new admin",
				ArgsUsage: "<address>",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					admin, err := interfaces.NewAddressFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}
					return c.UpdateAdmin(cCtx.Context, admin)
				},
			},
			{
				Name:  "withdraw",
				Usage: "Move collected rent out of the primary registry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Required: true, Usage: "receiving address"},
					&cli.StringFlag{Name: "amount", Required: true, Usage: "decimal amount"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					to, err := interfaces.NewAddressFromHex(cCtx.String("to"))
					if err != nil {
						return err
					}
					return c.Withdraw(cCtx.Context, to, cCtx.String("amount"))
				},
			},
			{
				Name:  "snapshot",
				Usage: "Store every partition and print the manifest id",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					id, err := c.Snapshot(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Println(id.String())
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "Replace every partition with a stored snapshot",
				ArgsUsage: "<manifest>",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					id, err := interfaces.NewContentIDFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}
					return c.Restore(cCtx.Context, id)
				},
			},
			{
				Name:  "export-events",
				Usage: "Store the event log of a partition and print its id",
				Flags: []cli.Flag{flagPartition},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					id, err := c.ExportEvents(cCtx.Context, partition(cCtx))
					if err != nil {
						return err
					}
					fmt.Println(id.String())
					return nil
				},
			},
		},
	}
}

// newClient builds a client, signing with --key-file when one is given.
func newClient(cCtx *cli.Context) (*clients.RegistryClient, error) {
	path := cCtx.String(flags.KeyFileFlag.Name)
	if path == "" {
		return clients.NewRegistryClient(cCtx.String(flags.ServerURLFlag.Name), nil), nil
	}
	key, err := cryptoutils.LoadKey(path)
	if err != nil {
		return nil, err
	}
	return clients.NewRegistryClient(cCtx.String(flags.ServerURLFlag.Name), key), nil
}

func clientAndNode(cCtx *cli.Context) (*clients.RegistryClient, interfaces.Node, error) {
	node, err := nodeFromFlags(cCtx)
	if err != nil {
		return nil, interfaces.Node{}, err
	}
	c, err := newClient(cCtx)
	return c, node, err
}

// nodeFromFlags accepts --node, --name, or --parent with --name as the label.
func nodeFromFlags(cCtx *cli.Context) (interfaces.Node, error) {
	if raw := cCtx.String(flagNode.Name); raw != "" {
		return interfaces.NewNodeFromHex(raw)
	}
	name, err := namespace.NormalizeName(cCtx.String(flagName.Name))
	if err != nil {
		return interfaces.Node{}, fmt.Errorf("one of --node or --name is required: %w", err)
	}
	parent := cCtx.String(flagParent.Name)
	if parent == "" {
		return namespace.NameNode([]byte(name)), nil
	}
	parent, err = namespace.NormalizeName(parent)
	if err != nil {
		return interfaces.Node{}, err
	}
	return namespace.SubNameNode(namespace.NameNode([]byte(parent)), []byte(name)), nil
}

func partition(cCtx *cli.Context) interfaces.PartitionID {
	return interfaces.PartitionID(cCtx.Uint(flagPartition.Name))
}

// ownerAndPayer parses the optional --owner and --payer; zero values let the
// server default them to the signer.
func ownerAndPayer(cCtx *cli.Context) (owner, payer interfaces.Address, err error) {
	if raw := cCtx.String(flagOwner.Name); raw != "" {
		if owner, err = interfaces.NewAddressFromHex(raw); err != nil {
			return owner, payer, fmt.Errorf("invalid --owner: %w", err)
		}
	}
	if raw := cCtx.String(flagPayer.Name); raw != "" {
		if payer, err = interfaces.NewAddressFromHex(raw); err != nil {
			return owner, payer, fmt.Errorf("invalid --payer: %w", err)
		}
	}
	return owner, payer, nil
}

func addressOrSigner(cCtx *cli.Context, c *clients.RegistryClient) (interfaces.Address, error) {
	if raw := cCtx.String(flagAddress.Name); raw != "" {
		return interfaces.NewAddressFromHex(raw)
	}
	return c.Address()
}

func hexValue(cCtx *cli.Context) ([]byte, error) {
	value, err := hex.DecodeString(strings.TrimPrefix(cCtx.String(flagValue.Name), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid --value: %w", err)
	}
	return value, nil
}

func requiredName() cli.Flag {
	return requiredFlag(flagName)
}

func requiredFlag(f cli.Flag) cli.Flag {
	switch f := f.(type) {
	case *cli.StringFlag:
		cp := *f
		cp.Required = true
		return &cp
	case *cli.UintFlag:
		cp := *f
		cp.Required = true
		return &cp
	}
	return f
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
