package apptest

import (
	"path"

	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
)

var videoExtensions = []string{".3gp", ".mp4", ".webm", ".ogv"}

// installVideo adds the Video app. It scans storage on launch, showing a
// spinner until every video has a thumbnail.
func (f *Fakes) installVideo() {
	d := f.Device
	d.Install("Video", "app://video.gaiamobile.org", func(doc *mock.Frame) {
		throbber := d.El("progress", "throbber")
		thumbnails := d.El("ul", "thumbnails")
		doc.Add(throbber, thumbnails)

		d.After(Delay, func() {
			for _, file := range f.Storage.Files(videoExtensions...) {
				thumbnails.Append(d.El("li", "").WithClass("thumbnail").
					WithAttr("data-name", path.Base(file)))
			}
			throbber.Hide()
		})
	})
}

// installIacPublisher adds the publisher test app, with its subscriber
// answering every message as a string and then as a blob.
func (f *Fakes) installIacPublisher() {
	d := f.Device
	d.Install("Test IAC Publisher", "app://test-iac-publisher.gaiamobile.org", func(doc *mock.Frame) {
		input := d.El("input", "msgToSend").WithAttr("type", "text")
		results := d.El("div", "results")
		send := d.El("button", "sendButton").OnTap(func() {
			msg := input.Value()
			d.After(Delay, func() {
				results.Append(
					d.El("input", "numConns").WithAttr("value", "1"),
					d.El("input", "receivedStrMsg").WithAttr("value", msg),
				)
			})
			d.After(2*Delay, func() {
				results.Append(d.El("input", "receivedBlobMsg").WithAttr("value", msg))
			})
		})
		doc.Add(input, send, results)
	})
}
