package commands

import (
	"fmt"

	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <course id> <topic id> <answer id>",
	Short: "Deletes a submitted answer.",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ids, err := parseIds(args)
		if err != nil {
			serviceutil.Fatal("invalid arguments", err)
		}

		withClient(ctx, func(client *student.Client) error {
			err := client.DeleteSubmission(ctx, ids[0], ids[1], ids[2])
			if err != nil {
				return err
			}
			fmt.Println("deleted answer", ids[2])
			return nil
		})
	},
}
