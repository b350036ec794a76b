package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"spotifier-core/lib/platforms/spot/core"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/telemetry"

	"github.com/spf13/cobra"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Minute, "How long to wait between polls.")
	rootCmd.AddCommand(watchCmd)
}

type taskKey struct {
	courseId uint64
	topicId  uint64
	taskId   uint64
}

// pollTasks collects the tasks of every accessible topic of every course.
func pollTasks(ctx context.Context, client *student.Client) (map[taskKey]model.Task, error) {
	courses, err := client.Courses(ctx)
	if err != nil {
		return nil, err
	}

	tasks := map[taskKey]model.Task{}
	for _, course := range courses {
		detail, err := client.CourseDetail(ctx, course)
		if err != nil {
			return nil, err
		}
		for _, info := range detail.Topics {
			if !info.IsAccessible || info.Href == nil || info.Id == nil || info.CourseId == nil {
				continue
			}
			topic, err := client.TopicDetail(ctx, info)
			if err != nil {
				return nil, err
			}
			for _, task := range topic.Tasks {
				if task.Id == nil {
					continue
				}
				tasks[taskKey{task.CourseId, task.TopicId, *task.Id}] = task
			}
		}
	}
	return tasks, nil
}

func reportChanges(w io.Writer, previous, current map[taskKey]model.Task) {
	for key, task := range current {
		status := task.CurrentStatus()
		old, seen := previous[key]
		switch {
		case !seen:
			fmt.Fprintf(w, "[new] %s: %s (due %s)\n", task.Title, status, formatTime(task.DueDate))
		case old.CurrentStatus() != status:
			fmt.Fprintf(w, "[%s -> %s] %s\n", old.CurrentStatus(), status, task.Title)
		}
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch [--interval <duration>]",
	Short: "Polls every course for new tasks and status changes until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := openSession(ctx)
		defer s.Close()
		s.resume(ctx)

		telemetry.InstrumentPerfStats(ctx, time.Minute)

		var previous map[taskKey]model.Task
		for {
			start := time.Now()
			current, err := pollTasks(ctx, s.client)
			if errors.Is(err, core.ErrSessionExpired) {
				slog.InfoContext(ctx, "session expired, logging in again")
				s.login(ctx)
				current, err = pollTasks(ctx, s.client)
			}

			switch {
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				slog.ErrorContext(ctx, "poll failed", "err", err)
			default:
				reportChanges(os.Stdout, previous, current)
				previous = current
				s.persist(ctx)

				stats := telemetry.ReadPerfStats(time.Second)
				slog.InfoContext(ctx, "poll finished",
					"tasks", len(current),
					"took", time.Since(start).String(),
					"cpu_percent", stats.CpuPercent,
					"allocated_mb", stats.AllocatedMb,
					"goroutines", stats.Goroutines,
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(watchInterval):
			}
		}
	},
}
