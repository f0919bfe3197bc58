// Command lexical merges, inspects and lints localization documents.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	cli := newApp(os.Stdout, os.Stderr)
	if err := cli.run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "lexical:", err)
		os.Exit(1)
	}
}
