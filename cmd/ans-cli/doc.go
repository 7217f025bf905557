// Package main (cmd/ans-cli) is a command line client of the registry API.
//
// Mutating commands sign their requests with the key in --key-file, which
// "ans-cli keygen" creates. Names are given either directly with --name, as a
// label under --parent, or as a node hash with --node.
//
//	ans-cli --key-file=alice.key keygen
//	ans-cli --key-file=alice.key faucet
//	ans-cli --key-file=alice.key register --name=alice --duration=720h
//	ans-cli --key-file=alice.key profile set-name --name=alice --value=416c696365
//	ans-cli --key-file=alice.key replicate --name=alice --partition=1
//	ans-cli resolve --partition=1 alice
package main
