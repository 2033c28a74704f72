// Command weaklinkdump exposes the Object Inspector (spec.md §4.1) as a
// CLI, the same shape saferwall-pe's pedumper command wraps its own
// parser with: a root command plus one subcommand per inspector
// operation, JSON output, and a persistent --verbose flag.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xyproto/weaklink/objinspect"
)

var verbose bool

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		fmt.Fprintln(os.Stderr, "weaklinkdump:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runExports(cmd *cobra.Command, args []string) {
	exports, err := objinspect.DylibExports(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "weaklinkdump: exports:", err)
		os.Exit(1)
	}
	printJSON(exports)
}

func runImports(cmd *cobra.Command, args []string) {
	imports, err := objinspect.ArchiveImports(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "weaklinkdump: imports:", err)
		os.Exit(1)
	}
	printJSON(imports)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "weaklinkdump",
		Short: "Inspect exported and imported symbols in a binary artifact",
		Long:  "weaklinkdump extracts exported and imported symbol sets from ELF shared objects, Mach-O dylibs and fat binaries, PE DLLs, and static archives.",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose inspector output")
	cobra.OnInitialize(func() {
		objinspect.Verbose = verbose
	})

	exportsCmd := &cobra.Command{
		Use:   "exports <path>",
		Short: "List exported symbols of a dynamic library",
		Args:  cobra.ExactArgs(1),
		Run:   runExports,
	}

	importsCmd := &cobra.Command{
		Use:   "imports <path>",
		Short: "List imported symbols of an object file or archive",
		Args:  cobra.ExactArgs(1),
		Run:   runImports,
	}

	rootCmd.AddCommand(exportsCmd, importsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
