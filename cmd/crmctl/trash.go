package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newTrashCmd builds one of the trash, restore and purge commands. All of
// them take a single booking id and need a privileged role.
func newTrashCmd(opts *rootOptions, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <booking-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			id := args[0]
			switch verb {
			case "trash":
				err = c.Trash(ctx, s, id)
			case "restore":
				err = c.Restore(ctx, s, id)
			case "purge":
				err = c.Purge(ctx, s, id)
			default:
				err = fmt.Errorf("unknown action %q", verb)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s ok\n", id, verb)
			return nil
		},
	}
}
