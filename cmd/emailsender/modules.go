package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/antqd/emailsender/internal/module"
	"github.com/antqd/emailsender/internal/recipient"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Print the effective module table",
	Long: `Print every form endpoint with its audience and the internal
recipients it resolves to with the current environment.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		modules, err := module.Defaults().Merge(cfg.Modules)
		if err != nil {
			return fmt.Errorf("modules: %w", err)
		}

		return printModules(cmd.OutOrStdout(), modules, recipient.New(nil))
	},
}

func printModules(out io.Writer, modules module.Table, r *recipient.Resolver) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "MODULE\tPATH\tFORM\tAUDIENCE\tRECIPIENTS")
	for _, d := range modules.Sorted() {
		var recipients string
		if list, err := r.Resolve(d); err != nil {
			recipients = "error: " + err.Error()
		} else {
			recipients = strings.Join(list, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Key, d.Path, d.Form, d.Audience, recipients)
	}

	return w.Flush()
}
