package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"spotifier-core/lib/htmlutil"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(courseCmd)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02 Jan 2006 15:04")
}

func formatId(id *uint64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatUint(*id, 10)
}

// findCourse accepts either a numeric course id or a code or name to
// match against.
func findCourse(ctx context.Context, client *student.Client, query string) (model.DetailCourse, error) {
	id, err := strconv.ParseUint(query, 10, 64)
	if err == nil {
		return client.CourseDetailById(ctx, id)
	}
	course, err := client.FindCourse(ctx, query)
	if err != nil {
		return model.DetailCourse{}, err
	}
	return client.CourseDetail(ctx, course)
}

var courseCmd = &cobra.Command{
	Use:   "course <id | code | name>",
	Short: "Prints the description, lesson plan and topics of a course.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		withClient(ctx, func(client *student.Client) error {
			detail, err := findCourse(ctx, client, query)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s (%d SKS)\n", detail.Code, detail.Name, detail.Credits)
			fmt.Println(detail.Lecturer)
			fmt.Println(detail.Description)
			if detail.Rps.Href != nil {
				fmt.Println("RPS:", htmlutil.Resolve(client.Core().PortalUrl, *detail.Rps.Href))
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Topic", "Accessible", "Last access"})
			for _, topic := range detail.Topics {
				t.AppendRow(table.Row{
					formatId(topic.Id),
					topic.IsAccessible,
					formatTime(topic.AccessTime),
				})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		})
	},
}
