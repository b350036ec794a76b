package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	submitTask    uint64
	submitContent string
	submitFile    string
)

func init() {
	submitCmd.Flags().Uint64Var(&submitTask, "task", 0, "The task to answer, defaults to the first task of the topic.")
	submitCmd.Flags().StringVar(&submitContent, "content", "", "The text of the answer.")
	submitCmd.Flags().StringVar(&submitFile, "file", "", "A file to attach to the answer.")
	rootCmd.AddCommand(submitCmd)
}

func pickTask(tasks []model.Task, id uint64) (model.Task, error) {
	for _, task := range tasks {
		if id == 0 || (task.Id != nil && *task.Id == id) {
			return task, nil
		}
	}
	if id == 0 {
		return model.Task{}, fmt.Errorf("%w: topic has no tasks", model.ErrElementNotFound)
	}
	return model.Task{}, fmt.Errorf("%w: task %d", model.ErrElementNotFound, id)
}

var submitCmd = &cobra.Command{
	Use:   "submit <course id> <topic id> [--task <id>] [--content <text>] [--file <path>]",
	Short: "Submits an answer to a task.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ids, err := parseIds(args)
		if err != nil {
			serviceutil.Fatal("invalid arguments", err)
		}

		var upload *student.Upload
		if submitFile != "" {
			data, err := os.ReadFile(submitFile)
			if err != nil {
				serviceutil.Fatal("failed to read attachment", err)
			}
			upload = &student.Upload{Name: filepath.Base(submitFile), Data: data}
		}

		withClient(ctx, func(client *student.Client) error {
			topic, err := client.TopicDetailById(ctx, ids[0], ids[1])
			if err != nil {
				return err
			}
			task, err := pickTask(topic.Tasks, submitTask)
			if err != nil {
				return err
			}
			req, err := student.NewSubmitTaskRequest(task, submitContent, upload)
			if err != nil {
				return err
			}
			err = client.SubmitTask(ctx, req)
			if err != nil {
				return err
			}

			topic, err = client.TopicDetailById(ctx, ids[0], ids[1])
			if err != nil {
				return err
			}
			renderTasks(topic.Tasks)
			return nil
		})
	},
}
