package commands

import (
	"fmt"
	"strings"

	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(periodCmd)
}

// parsePeriod accepts the numeric form ("20251") or the label form
// ("2025/2026 - Ganjil").
func parsePeriod(value string) (model.Period, error) {
	if strings.Contains(value, "-") {
		return model.ParseAcademicYear(value)
	}
	return model.ParsePeriodCode(value)
}

var periodCmd = &cobra.Command{
	Use:   "period [<code> | <label>]",
	Short: "Prints the active academic period, or switches to the one given.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var target *model.Period
		if len(args) > 0 {
			period, err := parsePeriod(strings.Join(args, " "))
			if err != nil {
				serviceutil.Fatal("invalid period", err)
			}
			target = &period
		}

		withClient(ctx, func(client *student.Client) error {
			if target != nil {
				err := client.ChangePeriod(ctx, *target)
				if err != nil {
					return err
				}
			}
			label, err := client.CurrentPeriod(ctx)
			if err != nil {
				return err
			}
			period, err := model.ParseAcademicYear(label)
			if err != nil {
				fmt.Println(label)
				return nil
			}
			fmt.Printf("%s (%s)\n", period.Label(), period.Format())
			return nil
		})
	},
}
