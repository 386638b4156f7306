package cmd

import (
	"fmt"

	"github.com/spigell/career-architect/internal/progress"
	"github.com/spigell/career-architect/internal/stage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var stageCmd = &cobra.Command{
	Use:   "stage [recruiter|interviewer|analyst]",
	Short: "Print the progress indicator for a stage",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		value := viper.GetString("stage")
		if len(args) > 0 {
			value = args[0]
		}
		fmt.Println(progress.Render(stage.Parse(value)))
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
}
