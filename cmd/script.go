package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the script table as YAML",
	Run: func(cmd *cobra.Command, _ []string) {
		table, err := loadScript(cmd.Flag("script-file").Value.String())
		if err != nil {
			log.Fatalf("loading the script table: %s", err)
		}

		out, err := table.Marshal()
		if err != nil {
			log.Fatalf("encoding the script table: %s", err)
		}
		fmt.Print(string(out))
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().String("script-file", "", "YAML script table to print instead of the built-in one")
}
