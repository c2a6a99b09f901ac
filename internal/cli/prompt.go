package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photo-quest-service/internal/app"
)

// NewPromptCmd prints quest prompts without starting the server.
func NewPromptCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print a random quest prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				for _, p := range app.DefaultPrompts {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			svc := app.NewQuestService(app.Dependencies{})
			fmt.Fprintln(out, svc.RandomPrompt())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every built-in prompt")
	return cmd
}
