// inspectindex opens a single B+-tree index file and prints its tree
// structure as pretty-printed JSON.
// Run: go run ./cmd/inspectindex --type int path/to/index.idx
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relstore/pkg/btreeindex"
	"relstore/pkg/logging"
	"relstore/pkg/types"
)

var attrType string

func main() {
	root := &cobra.Command{
		Use:   "inspectindex <index-file>",
		Short: "Print the contents of a B+-tree index file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	root.Flags().StringVar(&attrType, "type", "int", "indexed attribute type: int, real, or varchar")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseAttrType(s string) (types.AttrType, error) {
	switch s {
	case "int":
		return types.IntType, nil
	case "real":
		return types.RealType, nil
	case "varchar":
		return types.VarCharType, nil
	default:
		return 0, fmt.Errorf("unknown attribute type %q (want int, real, or varchar)", s)
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	kind, err := parseAttrType(attrType)
	if err != nil {
		return err
	}
	length := types.FixedFieldSize
	if kind == types.VarCharType {
		length = 255
	}
	attr := types.Attribute{Name: "key", Type: kind, Length: uint32(length)}

	ix, err := btreeindex.Open(args[0], attr, logging.Nop())
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer ix.Close()

	raw, err := ix.Print()
	if err != nil {
		return fmt.Errorf("print index: %w", err)
	}

	var pretty any
	if err := json.Unmarshal([]byte(raw), &pretty); err != nil {
		fmt.Println(raw)
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(raw)
		return nil
	}
	fmt.Println(string(out))
	return nil
}
