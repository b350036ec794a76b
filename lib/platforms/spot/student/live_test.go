package student

import (
	"context"
	"testing"

	devenv "spotifier-core/dev/env"
	"spotifier-core/lib/platforms/spot/core"
	"spotifier-core/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// TestLivePortal runs the read-only operations against a real account, it
// is skipped unless dev/.state/spot_config.json5 exists.
func TestLivePortal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live portal test in short mode")
	}
	config, err := devenv.GetStateConfig[devenv.SpotTestConfig]("spot_config.json5")
	if err != nil {
		t.Skip("no live portal credentials:", err)
	}

	cleanup := telemetry.SetupForTesting(t, "test:spot/student")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestLivePortal")
	defer span.End()

	coreClient, err := core.NewClient(core.ClientOptions{
		PortalUrl: config.PortalUrl,
		SsoUrl:    config.SsoUrl,
	})
	require.NoError(t, err)
	require.NoError(t, coreClient.Login(ctx, config.Nim, config.Password))

	client := NewClient(coreClient, ClientOptions{})
	user, err := client.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, config.Nim, user.Nim)

	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, courses)

	_, err = client.CourseDetail(ctx, courses[0])
	require.NoError(t, err)

	if config.Task.CourseId != 0 {
		topic, err := client.TopicDetailById(ctx, config.Task.CourseId, config.Task.TopicId)
		require.NoError(t, err)
		require.Equal(t, config.Task.TopicId, topic.Id)
	}
}
