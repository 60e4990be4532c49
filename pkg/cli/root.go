package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/platinummonkey/protobridge/pkg/plugins"
	"github.com/platinummonkey/protobridge/pkg/plugins/inventory"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command and registers the built-in
// generators.
func NewRootCommand() *Command {
	registerBuiltins()

	root := &Command{
		Name:        "protobridge",
		Description: "protobridge - run in-process protoc plugins through named pipes",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("protobridge", flag.ContinueOnError),
	}

	// Add subcommands
	root.Subcommands["compile"] = newCompileCommand()
	root.Subcommands["serve"] = newServeCommand()
	root.Subcommands["plugins"] = newPluginsCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs dispatches args to the matching subcommand
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

func registerBuiltins() {
	if !plugins.Has(inventory.Name) {
		plugins.MustRegister(inventory.New())
	}
}
