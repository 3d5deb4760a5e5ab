package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/moreevents/internal/events"
	"github.com/roach88/moreevents/internal/text"
)

// EventView describes one selectable event type.
type EventView struct {
	Tag         string   `json:"tag"`
	SelectionID int64    `json:"selection_id"`
	Name        string   `json:"name"`
	Uses        []string `json:"uses,omitempty"`
	Setting     bool     `json:"setting"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the selectable event types",
		Long: `List the event types every controller carries, in selection order,
with the controller fields each one uses. Names follow --lang.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEvents(rootOpts, cmd)
		},
	}
}

func listEvents(opts *RootOptions, cmd *cobra.Command) error {
	p := text.NewPrinter(opts.Language)

	var views []EventView
	for _, info := range events.Catalog() {
		v := EventView{
			Tag:         info.Tag,
			SelectionID: info.ID,
			Name:        p.Get(info.Name),
			Setting:     info.Setting,
		}
		if info.Uses.Threshold {
			v.Uses = append(v.Uses, "threshold")
		}
		if info.Uses.Condition {
			v.Uses = append(v.Uses, "condition")
		}
		if info.Uses.Blocks {
			v.Uses = append(v.Uses, "blocks")
		}
		views = append(views, v)
	}

	return newFormatter(opts, cmd).Success(views, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TAG\tID\tNAME\tUSES\tSETTING")
		for _, v := range views {
			uses := strings.Join(v.Uses, ",")
			if uses == "" {
				uses = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%t\n", v.Tag, v.SelectionID, v.Name, uses, v.Setting)
		}
		return tw.Flush()
	})
}
