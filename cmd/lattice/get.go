// The get command: resolve a dot-path in a file.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lattice/pkg/document"
	"github.com/mesh-intelligence/lattice/pkg/query"
)

var getCmd = &cobra.Command{
	Use:   "get <file> <path>",
	Short: "Resolve a dot-path to its value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := materializeFile(args[0])
		if err != nil {
			return err
		}
		v, ok := query.Value(res.Doc, args[1])
		if !ok {
			return fmt.Errorf("%s: no key at %q", args[0], args[1])
		}
		if flagJSON {
			out, err := json.Marshal(jsonValue(v))
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Println(v.Raw)
		return nil
	},
}

// jsonValue maps a typed value onto plain JSON types.
func jsonValue(v document.Value) any {
	if v.Spec.Array {
		out := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			if el.Empty || !el.Valid {
				out[i] = nil
				continue
			}
			out[i] = jsonScalar(v.Spec.Base, el.Str, el.Int, el.Float, el.Bool)
		}
		return out
	}
	return jsonScalar(v.Spec.Base, v.Str, v.Int, v.Float, v.Bool)
}

func jsonScalar(base document.ValueType, s string, i int64, f float64, b bool) any {
	switch base {
	case document.TypeInt:
		return i
	case document.TypeFloat:
		return f
	case document.TypeBool:
		return b
	default:
		return s
	}
}
