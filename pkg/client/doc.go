/*
Package client wraps a node's HTTP API for CLI usage.

Every method takes a context and maps one route: Status, Ready, Peers,
Audit, ReportUpdate. Ready treats a 503 as a valid answer (the gate is
closed) rather than an error, so `holdfast status` can render a closed
gate without special-casing.

# Usage

	c := client.NewClient("127.0.0.1:7070")
	status, err := c.Status(ctx)
*/
package client
