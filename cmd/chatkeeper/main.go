package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/chatkeeper/internal/client/cli"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	c := cli.New()
	root, err := c.Command()
	if err != nil {
		log.Fatalf("%v", err)
	}
	root.Version = version

	err = root.ExecuteContext(context.Background())
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}
