package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"markethours/pkg/markethours"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "markethours server address")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: markethours-cli [-addr URL] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list               List all instruments and their status\n")
		fmt.Fprintf(os.Stderr, "  status <symbol>    Show one instrument's status\n")
		fmt.Fprintf(os.Stderr, "  next-wake          Show when the next tick is due\n")
		fmt.Fprintf(os.Stderr, "  history <symbol>   Show recent status changes\n")
		fmt.Fprintf(os.Stderr, "\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	client := markethours.NewClient(*addr)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch args[0] {
	case "list":
		err = runList(ctx, client)
	case "status":
		if len(args) < 2 {
			fatal("status requires a symbol")
		}
		err = runStatus(ctx, client, args[1])
	case "next-wake":
		err = runNextWake(ctx, client)
	case "history":
		if len(args) < 2 {
			fatal("history requires a symbol")
		}
		err = runHistory(ctx, client, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fatal(err.Error())
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}

func runList(ctx context.Context, client *markethours.Client) error {
	res, err := client.Instruments(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("source: %s\n", res.Source)
	for _, inst := range res.Instruments {
		fmt.Printf("%-12s %-28s %s\n", inst.Symbol, inst.DisplayName, openLabel(inst.IsOpen))
	}
	return nil
}

func runStatus(ctx context.Context, client *markethours.Client, symbol string) error {
	inst, err := client.Instrument(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %s\n", inst.Symbol, inst.DisplayName, openLabel(inst.IsOpen))
	switch {
	case inst.OpenAllDay:
		fmt.Println("  open all day")
	case inst.ClosedAllDay:
		fmt.Println("  closed all day")
	default:
		for _, s := range inst.Sessions {
			fmt.Printf("  %s - %s\n", s.Open.Format("15:04:05"), s.Close.Format("15:04:05"))
		}
	}
	return nil
}

func runNextWake(ctx context.Context, client *markethours.Client) error {
	at, err := client.NextWake(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("next wake: %s\n", at.Format(time.RFC3339))
	return nil
}

func runHistory(ctx context.Context, client *markethours.Client, symbol string) error {
	changes, err := client.History(ctx, symbol, 20)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Println("no recorded changes")
		return nil
	}
	for _, c := range changes {
		fmt.Printf("%s  %s\n", c.At.Format(time.RFC3339), openLabel(c.IsOpen))
	}
	return nil
}

func openLabel(open bool) string {
	if open {
		return "OPEN"
	}
	return "closed"
}
