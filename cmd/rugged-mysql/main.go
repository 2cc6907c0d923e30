// Command rugged-mysql configures and builds the rugged MySQL backend and
// manages the tables it stores references and objects in.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/contriboss/rugged-mysql-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
