package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/sanitize"
)

func (a *app) topicsCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "topics <topic file>",
		Short: "List the topics of a topic file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(args[0])
			if err != nil {
				return err
			}

			policy := a.prompt.versionPolicy
			if yes {
				policy = decode.AlwaysProceed
			}

			topics, err := decode.DecodeTopics(cmd.Context(), bytes.NewReader(b),
				decode.WithVersionPolicy(policy),
				decode.WithFileName(args[0]),
			)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, t := range topics.Topics() {
				fmt.Fprintf(tw, "%d\t%s\n", t.ID, sanitize.ToUTF8(t.Name))
			}
			if err := tw.Flush(); err != nil {
				return errors.Internal(err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Proceed on unknown versions without asking")
	return cmd
}
