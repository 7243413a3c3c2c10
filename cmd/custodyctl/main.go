package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/custodykeeper/internal/client/cli"
)

func main() {

	ctx := context.Background()
	app := cli.NewApp(os.Stdin, os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

}
