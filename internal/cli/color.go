package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theonlysinjin/team-retro/internal/codec"
)

// NameColor pairs a participant name with its avatar color.
type NameColor struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NewColorCommand creates the color command.
func NewColorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "color <name>...",
		Short: "Show the avatar color every client derives for a name",
		Example: `  retro color Alice Bob
  retro color "Zoë" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]NameColor, 0, len(args))
			var b strings.Builder
			for i, name := range args {
				nc := NameColor{Name: name, Color: codec.DisplayColor(name)}
				out = append(out, nc)
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "%s\t%s", nc.Color, nc.Name)
			}
			return rootOpts.formatter(cmd).Success(b.String(), out)
		},
	}
}
