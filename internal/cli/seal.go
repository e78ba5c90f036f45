package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// SealOptions holds flags for the seal command.
type SealOptions struct {
	*RootOptions
	Code     string
	Content  string
	Color    string
	Category string
}

// NewSealCommand creates the seal command.
func NewSealCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SealOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a card payload with a session code",
		Long: `Encrypt a card payload the way a client stores it on the backend.

The color may be a palette name (Yellow, Blue, ...) or a hex value.`,
		Example: `  retro seal --code ABC234 --content "Ship it" --color Blue --category well`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Code, "code", "", "session code")
	cmd.Flags().StringVar(&opts.Content, "content", "", "card content")
	cmd.Flags().StringVar(&opts.Color, "color", model.DefaultCardColor.Name, "card color name or hex")
	cmd.Flags().StringVar(&opts.Category, "category", "", "card category (well|badly|todo)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

func runSeal(opts *SealOptions, cmd *cobra.Command) error {
	if !model.ValidCode(opts.Code) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid session code %q", opts.Code))
	}
	color, ok := model.LookupCardColor(opts.Color)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown color %q", opts.Color))
	}
	p := model.CardPayload{Content: opts.Content, Color: color.Value}
	if opts.Category != "" {
		cat := model.Category(strings.ToLower(opts.Category))
		if !cat.Valid() {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", opts.Category))
		}
		p.Category = &cat
	}

	ciphertext, err := codec.SealCard(codec.DeriveKey(opts.Code), p)
	if err != nil {
		return WrapExitError(ExitFailure, "seal card", err)
	}
	return opts.formatter(cmd).Success(ciphertext, map[string]string{"ciphertext": ciphertext})
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:     "open <ciphertext>",
		Short:   "Decrypt a card or group payload with a session code",
		Example: `  retro open --code ABC234 "base64..."`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidCode(code) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid session code %q", code))
			}
			key := codec.DeriveKey(code)
			f := rootOpts.formatter(cmd)

			card, err := codec.OpenCard(key, args[0])
			if err == nil {
				return f.Success(describeCard(card), map[string]any{"kind": "card", "payload": card})
			}
			if !errors.Is(err, codec.ErrInvalidPayload) {
				_ = f.Error("DECRYPT", err.Error(), nil)
				return WrapExitError(ExitFailure, "open payload", err)
			}

			group, gerr := codec.OpenGroup(key, args[0])
			if gerr != nil {
				_ = f.Error("PAYLOAD", err.Error(), nil)
				return WrapExitError(ExitFailure, "open payload", err)
			}
			return f.Success(fmt.Sprintf("group %q", groupName(group)), map[string]any{"kind": "group", "payload": group})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "session code")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func describeCard(p model.CardPayload) string {
	s := fmt.Sprintf("%q %s", p.Content, p.Color)
	if p.Category != nil {
		s += " [" + string(*p.Category) + "]"
	}
	return s
}

func groupName(p model.GroupPayload) string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}
