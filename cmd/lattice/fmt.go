// The fmt command: reprint a document from its materialized form.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/pkg/serialize"
)

var fmtWrite bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Reprint a document in canonical layout",
	Long: `Fmt parses, materializes, and serializes a document. The output
preserves authored order, comments, and paragraphs; spacing and close
markers are normalized.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := materializeFile(args[0])
		if err != nil {
			return err
		}
		text := serialize.Text(res.Doc)
		if fmtWrite {
			return os.WriteFile(args[0], []byte(text), 0o644)
		}
		fmt.Print(text)
		return nil
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "rewrite the file in place")
}
