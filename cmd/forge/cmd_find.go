package main

import (
	"fmt"

	"toolforge/internal/finder"
	"toolforge/internal/logging"

	"github.com/spf13/cobra"
)

var (
	findConstraints []string
	findNoCache     bool
)

// findCmd locates a file below a root directory
var findCmd = &cobra.Command{
	Use:   "find [file] [root]",
	Short: "Find every copy of a file below a directory",
	Long: `Walks root looking for files named exactly [file] and prints every match,
then the most recently modified one.

Each --constraint limits the directories searched at one depth: the first
applies to directories directly below root, the second to the level below
that, and so on.

Example:
  forge find vcvarsall.bat 'C:\' --constraint "Program Files" --constraint "Visual Studio"`,
	Args: cobra.ExactArgs(2),
	RunE: findFile,
}

func findFile(cmd *cobra.Command, args []string) error {
	target, root := args[0], args[1]

	found, err := newFinder().Find(target, root, findConstraints, !findNoCache)
	if err != nil {
		return err
	}

	selected, ok := finder.PickMostRecent(found, logging.Get(logging.CategoryFinder))
	if !ok {
		return fmt.Errorf("%s not found under %s", target, root)
	}

	out := cmd.OutOrStdout()
	for _, p := range found {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "selected: %s\n", selected)
	return nil
}
