package main

import (
	"context"
	"fmt"
	"os"

	"github.com/GriffinCanCode/htmlx/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Stdout, os.Stderr, os.Exit, os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, "htmlx:", err)
		os.Exit(1)
	}
}
