package loadtest

import "os"

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`comprank load test
==================

Posts generated lobbies to a running comprank server and checks every
ranking against a local ranking of the same pool file.

Usage:
  loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -pool string
        Pool file the server ranks from (default "data/latest/comps.json")
  -lobbies int
        Number of lobbies to generate and submit (default 1000)
  -opponents int
        Opponent boards per lobby (default 7)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -seed uint
        Generator seed (default 1)
  -timeout duration
        HTTP request timeout (default 10s)
  -output string
        Write generated lobbies and expected rankings to this file
  -verbose
        Log every failed or mismatched lobby
  -help
        Show this help message
`)
}
