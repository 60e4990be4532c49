package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/platinummonkey/protobridge/pkg/plugins"
)

func newPluginsCommand() *Command {
	cmd := &Command{
		Name:        "plugins",
		Description: "List registered in-process plugins",
		Flags:       flag.NewFlagSet("plugins", flag.ContinueOnError),
		Run:         runPluginsList,
	}

	cmd.Flags.Bool("json", false, "Output in JSON format")

	return cmd
}

func runPluginsList(args []string) error {
	cmd := newPluginsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	outputJSON := cmd.Flags.Lookup("json").Value.String() == "true"

	registered := plugins.List()
	manifests := make([]*plugins.Manifest, 0, len(registered))
	for _, p := range registered {
		manifests = append(manifests, p.Manifest())
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifests)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION")
	fmt.Fprintln(w, "────\t───────\t───────────")
	for _, m := range manifests {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Version, m.Description)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d plugins\n", len(manifests))
	return nil
}
