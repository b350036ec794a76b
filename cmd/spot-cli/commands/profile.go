package commands

import (
	"fmt"

	"spotifier-core/lib/platforms/spot/student"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Prints the name and student number of the logged in user.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		withClient(ctx, func(client *student.Client) error {
			user, err := client.Profile(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", user.Name, user.Nim)
			return nil
		})
	},
}
