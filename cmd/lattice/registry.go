// Registry commands: save, show, list, rm over the SQLite-backed store.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/internal/store"
)

// withStore attaches the registry for the duration of fn.
func withStore(fn func(s *store.Store) error) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	s := store.New()
	if err := s.Attach(store.Config{DataDir: dataDir, MaxCategoryDepth: maxDepth()}); err != nil {
		return fmt.Errorf("attach registry: %w", err)
	}
	defer s.Detach()
	return fn(s)
}

var saveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Store a document in the registry under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}
		return withStore(func(s *store.Store) error {
			rec, err := s.Save(args[0], string(src))
			if err != nil {
				return err
			}
			status := "clean"
			if !rec.Clean {
				status = "contaminated"
			}
			fmt.Printf("saved %s (%s, %d diagnostics)\n", rec.Name, status, len(rec.Diagnostics))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored document and its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			rec, err := s.Get(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				out, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			fmt.Print(rec.Source)
			for _, d := range rec.Diagnostics {
				fmt.Printf("line %d: %s: %s\n", d.Line, d.Kind, d.Message)
			}
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			recs, err := s.List()
			if err != nil {
				return err
			}
			if flagJSON {
				out, err := json.MarshalIndent(recs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			for _, rec := range recs {
				status := "clean"
				if !rec.Clean {
					status = "contaminated"
				}
				fmt.Printf("%s\t%s\t%s\n", rec.Name, status, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			return s.Delete(args[0])
		})
	},
}
