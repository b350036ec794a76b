package commands

import (
	"fmt"
	"os"
	"strconv"

	"spotifier-core/lib/htmlutil"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(topicCmd)
}

func parseIds(args []string) ([]uint64, error) {
	ids := make([]uint64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func renderTasks(tasks []model.Task) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Task", "Title", "Status", "Due", "Answer", "Score"})
	for _, task := range tasks {
		answerId := "-"
		score := "-"
		if task.Answer != nil {
			answerId = formatId(task.Answer.Id)
			if task.Answer.IsGraded {
				score = strconv.FormatFloat(float64(task.Answer.Score), 'f', -1, 32)
			}
		}
		t.AppendRow(table.Row{
			formatId(task.Id),
			task.Title,
			task.CurrentStatus(),
			formatTime(task.DueDate),
			answerId,
			score,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var topicCmd = &cobra.Command{
	Use:   "topic <course id> <topic id>",
	Short: "Prints the contents and tasks of a topic.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ids, err := parseIds(args)
		if err != nil {
			serviceutil.Fatal("invalid arguments", err)
		}

		withClient(ctx, func(client *student.Client) error {
			topic, err := client.TopicDetailById(ctx, ids[0], ids[1])
			if err != nil {
				return err
			}
			if !topic.IsAccessible {
				fmt.Println("topic is locked")
			}
			if topic.Description != nil {
				fmt.Println(*topic.Description)
			}
			for _, content := range topic.Contents {
				if content.YoutubeId != nil {
					fmt.Printf("content %d: https://youtu.be/%s\n", content.Id, *content.YoutubeId)
					continue
				}
				fmt.Printf("content %d\n", content.Id)
			}
			renderTasks(topic.Tasks)
			for _, task := range topic.Tasks {
				if task.File != nil {
					fmt.Printf("%s attachment: %s\n", task.Title, htmlutil.Resolve(client.Core().PortalUrl, *task.File))
				}
				if task.Answer != nil && task.Answer.FileHref != nil {
					fmt.Printf("%s answer file: %s\n", task.Title, htmlutil.Resolve(client.Core().PortalUrl, *task.Answer.FileHref))
				}
			}
			return nil
		})
	},
}
