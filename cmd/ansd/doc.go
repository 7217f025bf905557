// Package main (cmd/ansd) runs the name registry server.
//
// On startup it deploys the primary registry and one secondary registry per
// configured secondary partition, each with its own resolver, then serves the
// HTTP API described in package api. Committed events can be logged or
// published to Kafka, and with --storage the admin can snapshot every
// partition to one or more content-addressed backends and restore from a
// manifest, either through the API or with --restore at startup.
//
// Example usage:
//
//	ansd --admin=00a1b2...  \
//	    --listen-addr=0.0.0.0:8080 \
//	    --secondaries=2 \
//	    --storage=file:///var/lib/ans \
//	    --storage=s3://ans-snapshots/prod/?region=eu-west-1 \
//	    --kafka-brokers=localhost:9092
//
// The server drains on SIGINT/SIGTERM: /readyz reports not ready for
// --drain-seconds before in-flight requests are given time to finish.
package main
