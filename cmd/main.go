package main

import (
	"os"

	"github.com/retrievalworks/bankgraph/cmd/bankgraph"
)

func main() {
	if err := bankgraph.Execute(); err != nil {
		os.Exit(1)
	}
}
