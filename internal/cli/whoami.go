package cli

import (
	"github.com/spf13/cobra"

	"github.com/theonlysinjin/team-retro/internal/prefs"
)

// WhoamiOptions holds flags for the whoami command.
type WhoamiOptions struct {
	*RootOptions
	Set   string
	Clear bool
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WhoamiOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show or change the remembered display name",
		Example: `  retro whoami
  retro whoami --set Alice
  retro whoami --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "", "remember this display name")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "forget the display name")
	cmd.MarkFlagsMutuallyExclusive("set", "clear")

	return cmd
}

func runWhoami(opts *WhoamiOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	p, err := prefs.Open(opts.Config.PrefsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open preferences", err)
	}
	defer p.Close()

	switch {
	case opts.Clear:
		err = p.SetUserName(ctx, "")
	case opts.Set != "":
		err = p.SetUserName(ctx, opts.Set)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "save display name", err)
	}

	name, err := p.UserName(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read display name", err)
	}
	text := name
	if name == "" {
		text = "(no name saved)"
	}
	opts.formatter(cmd).VerboseLog("preferences: %s", opts.Config.PrefsPath)
	return opts.formatter(cmd).Success(text, map[string]string{"name": name})
}
