package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the sitectl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Operate the CASA TERMINAL site",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(migrateCmd(), hashPasswordCmd(), contentCmd())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}
