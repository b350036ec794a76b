package commands

import (
	"os"

	"spotifier-core/lib/platforms/spot/student"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Lists the courses of the active period.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		withClient(ctx, func(client *student.Client) error {
			courses, err := client.Courses(ctx)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Id", "Code", "Name", "Credits", "Lecturer", "Academic year"})
			for _, course := range courses {
				t.AppendRow(table.Row{
					course.Id,
					course.Code,
					course.Name,
					course.Credits,
					course.Lecturer,
					course.AcademicYear,
				})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		})
	},
}
