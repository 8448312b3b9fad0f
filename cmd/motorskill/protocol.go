package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mind-engage/motorskill/internal/protocol"
)

func newProtocolCommand() *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Show the active protocol and its maximum scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := protocol.Load(cfg.ProtocolFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d trials per criterion)\n", p.Name, p.TrialsPerCriterion)

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Domain", "Sub-test", "Criteria", "Max"})
			for _, d := range p.Domains {
				for _, st := range d.SubTests {
					table.Append([]string{d.Name, st.Name, fmt.Sprint(len(st.Criteria)), fmt.Sprint(p.MaxScore(st.Name))})
				}
				table.Append([]string{d.Name, "(domain)", "", fmt.Sprint(p.DomainMax(d.Key))})
			}
			table.SetFooter([]string{"", "", "Total", fmt.Sprint(p.TotalMax())})
			table.Render()

			if save != "" {
				if err := p.Save(save); err != nil {
					return err
				}
				fmt.Fprintf(out, "saved to %s\n", save)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "write the protocol as YAML (editable copy)")
	return cmd
}
