// The set command: update or create a key and rewrite the file.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/pkg/editor"
	"github.com/mesh-intelligence/lattice/pkg/query"
	"github.com/mesh-intelligence/lattice/pkg/serialize"
)

var setType string

var setCmd = &cobra.Command{
	Use:   "set <file> <path> <value>",
	Short: "Set a key's value and rewrite the file",
	Long: `Set resolves the dot-path to a key and replaces its value, or
creates the key in the path's category when it does not exist. The file is
rewritten from the edited document.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, path, value := args[0], args[1], args[2]
		res, err := materializeFile(file)
		if err != nil {
			return err
		}
		ed := editor.New(res.Doc)

		if ref, ok := query.Resolve(res.Doc, path); ok && ref.Kind == query.RefKey {
			if setType != "" {
				if err := ed.SetKeyType(ref.Key, setType); err != nil {
					return fmt.Errorf("set type of %q: %w", path, err)
				}
			}
			if err := ed.SetKeyValue(ref.Key, value); err != nil {
				return fmt.Errorf("set %q: %w", path, err)
			}
		} else {
			idx := strings.LastIndex(path, ".")
			parent, name := "", path
			if idx >= 0 {
				parent, name = path[:idx], path[idx+1:]
			}
			ref, ok := query.Resolve(res.Doc, parent)
			if !ok || ref.Kind != query.RefCategory {
				return fmt.Errorf("%s: no category at %q", file, parent)
			}
			if _, err := ed.AddKey(ref.Category, name, value, setType, nil); err != nil {
				return fmt.Errorf("add %q: %w", path, err)
			}
		}

		if err := os.WriteFile(file, []byte(serialize.Text(res.Doc)), 0o644); err != nil {
			return fmt.Errorf("rewrite %s: %w", file, err)
		}
		return nil
	},
}

func init() {
	setCmd.Flags().StringVarP(&setType, "type", "t", "", "declared type for the key (int, float, bool, date, string, or T[])")
}
