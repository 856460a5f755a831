package scenario

import (
	"context"

	"github.com/devicelab-dev/gaiatest/pkg/apps/iacpublisher"
	"github.com/devicelab-dev/gaiatest/pkg/apps/videoplayer"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const (
	iacMessage = "this is a test"

	videoResource    = "VID_0001.3gp"
	videoDestination = "DCIM/100MZLLA"
	videoCopies      = 10
)

func init() {
	Register(Scenario{
		Name:        "inter_app_comm",
		Description: "Publish a message to a subscriber app and read back both replies",
		Tags:        []string{"system", "iac"},
		Run:         interAppComm,
	})
	Register(Scenario{
		Name:        "video_progress_bar",
		Description: "The Video app finishes scanning pushed videos",
		Tags:        []string{"videoplayer", "media"},
		Resources:   []string{videoResource},
		Setup:       pushVideos,
		Run:         videoProgressBar,
	})
}

func interAppComm(ctx context.Context, env *gaia.Env) error {
	publisher := iacpublisher.New(env)
	if err := publisher.Launch(ctx); err != nil {
		return err
	}
	if err := publisher.SendMessage(ctx, iacMessage); err != nil {
		return err
	}

	str, err := publisher.ReceivedStrMessage()
	if err != nil {
		return err
	}
	if err := Equal("string reply", iacMessage, str); err != nil {
		return err
	}
	blob, err := publisher.ReceivedBlobMessage(ctx)
	if err != nil {
		return err
	}
	if err := Equal("blob reply", iacMessage, blob); err != nil {
		return err
	}
	conns, err := publisher.NumConnections()
	if err != nil {
		return err
	}
	return Equal("connections", "1", conns)
}

func pushVideos(ctx context.Context, env *gaia.Env) error {
	_, err := env.Device.PushResource(ctx, videoResource, videoDestination, videoCopies)
	return err
}

func videoProgressBar(ctx context.Context, env *gaia.Env) error {
	player := videoplayer.New(env)
	if err := player.Launch(ctx); err != nil {
		return err
	}
	if err := player.WaitForProgressBarComplete(ctx); err != nil {
		return err
	}
	total, err := player.TotalVideosFound()
	if err != nil {
		return err
	}
	return Greater("videos found", total, 0)
}
