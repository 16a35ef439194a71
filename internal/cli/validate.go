package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rtk/workload"
)

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate -f <workload.yaml>",
		Short: "Check a workload file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := workload.LoadFile(file)
			if err != nil {
				return err
			}
			var stack uint32
			for _, t := range spec.Tasks {
				stack += t.Stack
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tasks, %d semaphores, %d/%d stack bytes, %d Hz\n",
				file, len(spec.Tasks), len(spec.Semaphores), stack, spec.ArenaBytes, spec.TickHz)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Workload YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
