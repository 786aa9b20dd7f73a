package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

var exitWords = map[string]bool{
	"exit":    true,
	"quit":    true,
	"bye":     true,
	"goodbye": true,
}

type queryRouter interface {
	Route(ctx context.Context, query string) (contractx.RouteResult, error)
}

// runConsole reads one query per line and prints each routing result as
// indented JSON until an exit word, EOF, or ctx is done.
func runConsole(ctx context.Context, r queryRouter, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Insurance media router. Type exit, quit, bye or goodbye to leave.")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitWords[strings.ToLower(line)] {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		res, err := r.Route(ctx, line)
		if err != nil {
			res = contractx.RouteFailure(err)
		}
		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode routing result: %w", err)
		}
		fmt.Fprintln(out, string(raw))
	}
}
