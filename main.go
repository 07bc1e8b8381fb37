// ptine is a command-line client for the Statistics Portugal (INE) API:
// catalogue search, indicator metadata, data extraction, transforms and
// terminal charts, with transparent disk caching.
package main

import "github.com/ptstats/ptine/cmd"

func main() {
	cmd.Execute()
}
