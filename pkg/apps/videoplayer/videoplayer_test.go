package videoplayer

import (
	"context"
	"testing"

	"github.com/devicelab-dev/gaiatest/pkg/apps/apptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoPlayer_CountsPushedVideos(t *testing.T) {
	ctx := context.Background()
	f := apptest.New(t, apptest.Config{})
	env := f.Env(nil)

	_, err := env.Device.PushResource(ctx, "VID_0001.3gp", "DCIM/100MZLL", 3)
	require.NoError(t, err)
	_, err = env.Device.PushResource(ctx, "IMG_0001.jpg", "DCIM/100MZLL", 2)
	require.NoError(t, err)

	v := New(env)
	require.NoError(t, v.Launch(ctx))
	require.NoError(t, v.WaitForProgressBarComplete(ctx))

	total, err := v.TotalVideosFound()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestVideoPlayer_EmptyStorage(t *testing.T) {
	ctx := context.Background()
	f := apptest.New(t, apptest.Config{})
	v := New(f.Env(nil))

	require.NoError(t, v.Launch(ctx))
	require.NoError(t, v.WaitForProgressBarComplete(ctx))
	total, err := v.TotalVideosFound()
	require.NoError(t, err)
	assert.Zero(t, total)
}
