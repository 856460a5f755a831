// Package iacpublisher drives the inter-app communication test app, which
// publishes messages to a subscriber app and shows what comes back.
package iacpublisher

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const Name = "Test IAC Publisher"

// LaunchTimeout covers the publisher connecting to its subscriber.
const LaunchTimeout = 120 * time.Second

const setMessageScript = `document.getElementById('msgToSend').value = arguments[0];`

var (
	msgToSend       = driver.ID("msgToSend")
	sendButton      = driver.ID("sendButton")
	numConns        = driver.ID("numConns")
	receivedStrMsg  = driver.ID("receivedStrMsg")
	receivedBlobMsg = driver.ID("receivedBlobMsg")
)

type IacPublisher struct {
	apps.Base
}

func New(env *gaia.Env) *IacPublisher {
	p := &IacPublisher{Base: apps.NewBase(env, Name)}
	p.LaunchTimeout = LaunchTimeout
	return p
}

// Launch starts the publisher and waits for its message field.
func (p *IacPublisher) Launch(ctx context.Context) error {
	if err := p.Base.Launch(ctx); err != nil {
		return err
	}
	_, err := p.WaitForElementDisplayed(ctx, msgToSend)
	return err
}

// SendMessage publishes msg and waits for the subscriber's string reply.
func (p *IacPublisher) SendMessage(ctx context.Context, msg string) error {
	if _, err := p.Session().ExecuteScript(setMessageScript, msg); err != nil {
		return fmt.Errorf("set message: %w", err)
	}
	if err := p.Tap(ctx, sendButton); err != nil {
		return err
	}
	_, err := p.WaitForElementPresent(ctx, receivedStrMsg)
	return err
}

// ReceivedStrMessage is the string the subscriber echoed back.
func (p *IacPublisher) ReceivedStrMessage() (string, error) {
	return p.AttributeOf(receivedStrMsg, "value")
}

// ReceivedBlobMessage waits for and returns the blob the subscriber echoed back.
func (p *IacPublisher) ReceivedBlobMessage(ctx context.Context) (string, error) {
	el, err := p.WaitForElementPresent(ctx, receivedBlobMsg)
	if err != nil {
		return "", err
	}
	return el.Attribute("value")
}

// NumConnections is the number of subscribers connected, as shown.
func (p *IacPublisher) NumConnections() (string, error) {
	return p.AttributeOf(numConns, "value")
}
