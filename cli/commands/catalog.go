package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/warehouse/install"
	"github.com/petal-labs/warehouse/providers"
)

// catalogEntry is one install target as seen from this binary.
type catalogEntry struct {
	Owner      string `json:"owner"`
	Attr       string `json:"attr"`
	Label      string `json:"label"`
	Registered bool   `json:"registered"`
	Defined    bool   `json:"defined"`
	Shape      string `json:"shape,omitempty"`
}

func (a *App) newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the SDK methods that get instrumented",
		Long: `List the install catalog: every owner and attribute that instrumentation
targets, the sdk_method label its records carry, and whether the owner is
linked into this binary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := catalogEntries(install.DefaultCatalog())
			if a.jsonOutput {
				return writeJSON(a.stdout, entries)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "OWNER\tATTR\tSHAPE\tSDK METHOD\tAVAILABLE")
			for _, e := range entries {
				shape := e.Shape
				if shape == "" {
					shape = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Owner, e.Attr, shape, e.Label, yesNo(e.Registered && e.Defined))
			}
			return tw.Flush()
		},
	}
}

func catalogEntries(targets []install.Target) []catalogEntry {
	entries := make([]catalogEntry, 0, len(targets))
	for _, t := range targets {
		e := catalogEntry{Owner: t.Owner, Attr: t.Attr, Label: t.Label}
		if owner := providers.Get(t.Owner); owner != nil {
			e.Registered = true
			if m, ok := owner.Lookup(t.Attr); ok {
				e.Defined = true
				e.Shape = m.Shape().String()
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
