package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mnohosten/lsmkv/pkg/kvstore"
)

const (
	version = "0.1.0"
	banner  = `
lsmkv CLI v%s
Type 'help' for available commands, 'exit' or 'quit' to leave.

`
)

// CLI is a REPL front end over a kvstore.Store, covering the operations
// this store exposes: set, get, delete, flush, wait, stats.
type CLI struct {
	store   *kvstore.Store
	dataDir string
	scanner *bufio.Scanner
}

func NewCLI(dataDir string) (*CLI, error) {
	store, err := kvstore.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &CLI{
		store:   store,
		dataDir: dataDir,
		scanner: bufio.NewScanner(os.Stdin),
	}, nil
}

func (c *CLI) Close() error {
	return c.store.Close()
}

func (c *CLI) Run() error {
	fmt.Printf(banner, version)

	for {
		fmt.Print("lsmkv> ")
		if !c.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		if err := c.executeCommand(line); err != nil {
			if err.Error() == "exit" {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}

	return c.scanner.Err()
}

func (c *CLI) executeCommand(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	switch cmd {
	case "help", "?":
		return c.showHelp()
	case "exit", "quit":
		return fmt.Errorf("exit")
	case "set":
		return c.cmdSet(parts[1:])
	case "get":
		return c.cmdGet(parts[1:])
	case "delete", "del":
		return c.cmdDelete(parts[1:])
	case "flush":
		c.store.SaveMemtable()
		fmt.Println("memtable handed off for flushing")
		return nil
	case "wait":
		c.store.WaitForThreads()
		fmt.Println("all in-flight flushes complete")
		return nil
	case "stats":
		return c.cmdStats()
	default:
		return fmt.Errorf("unknown command: %s (type 'help')", cmd)
	}
}

func (c *CLI) cmdSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	key := args[0]
	value := strings.Join(args[1:], " ")
	if err := c.store.Set([]byte(key), []byte(value)); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (c *CLI) cmdGet(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <key>")
	}
	v, ok, err := c.store.Get([]byte(args[0]))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("(absent)")
		return nil
	}
	fmt.Println(string(v))
	return nil
}

func (c *CLI) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <key>")
	}
	if err := c.store.Delete([]byte(args[0])); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (c *CLI) cmdStats() error {
	tables := c.store.Coordinator().Tables()
	fmt.Printf("on-disk tables: %d\n", len(tables))
	for _, t := range tables {
		fmt.Printf("  [%d] %s\n", t.Index(), t.Path())
	}
	return nil
}

func (c *CLI) showHelp() error {
	fmt.Println(`Available commands:
  set <key> <value>   Set key to value
  get <key>           Get the current value for key
  delete <key>        Delete key (logical tombstone)
  flush               Hand the live memtable off for background flushing
  wait                Block until any in-flight flush/compaction completes
  stats               Show the on-disk table list
  help                Show this message
  exit, quit          Leave the CLI`)
	return nil
}

func main() {
	dataDir := flag.String("data-dir", "./data", "Table directory for store persistence")
	flag.Parse()

	cli, err := NewCLI(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start CLI: %v\n", err)
		os.Exit(1)
	}
	defer cli.Close()

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
		os.Exit(1)
	}
}
