// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// Package broker administers an MQTT broker through its dynamic-security
// control topics.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/toeirei/obskeeper/internal/logging"
)

const (
	// ControlClientID is the client id used for admin sessions.
	ControlClientID = "mqtt_change_admin_password"

	ResponseTopic       = "$CONTROL/dynamic-security/v1/response/#"
	ChangePasswordTopic = "$CONTROL/dynamic-security/v1/changePassword"

	DefaultSubscribeTimeout = 5 * time.Second
	DefaultResponseTimeout  = 20 * time.Second
	DefaultConnectTimeout   = 10 * time.Second
)

var (
	ErrConnectTimeout   = errors.New("timed out connecting to mqtt broker")
	ErrSubscribeTimeout = errors.New("failed to confirm subscription within timeout")
	ErrResponseTimeout  = errors.New("timeout waiting for response from the broker")
	ErrCommandFailed    = errors.New("broker rejected the command")
)

// Session is the subset of mqtt.Client the control flow needs.
type Session interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// DialOptions describes how to reach the broker.
type DialOptions struct {
	URL            string // e.g. tcp://host:1883
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Dial connects to the broker. Reconnects are disabled: a control session
// is short lived and a dropped connection should surface as a failure.
func Dial(ctx context.Context, o DialOptions) (mqtt.Client, error) {
	InstallLogging()
	if o.ClientID == "" {
		o.ClientID = ControlClientID
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	opts := mqtt.NewClientOptions().
		AddBroker(o.URL).
		SetClientID(o.ClientID).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(o.ConnectTimeout)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return nil, fmt.Errorf("connect to mqtt broker %s: %w", o.URL, err)
		}
	case <-time.After(o.ConnectTimeout):
		return nil, fmt.Errorf("%w: %s", ErrConnectTimeout, o.URL)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	logging.Debugf("mqtt: connected to %s as %s", o.URL, o.Username)
	return client, nil
}

// Control issues dynamic-security commands over a connected Session.
type Control struct {
	session          Session
	clock            clock.Clock
	SubscribeTimeout time.Duration
	ResponseTimeout  time.Duration
}

// NewControl wraps s. A nil clk uses the wall clock.
func NewControl(s Session, clk clock.Clock) *Control {
	if clk == nil {
		clk = clock.New()
	}
	return &Control{
		session:          s,
		clock:            clk,
		SubscribeTimeout: DefaultSubscribeTimeout,
		ResponseTimeout:  DefaultResponseTimeout,
	}
}

// Close disconnects the session.
func (c *Control) Close() { c.session.Disconnect(250) }

type changePasswordCommand struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePassword sets username's password. The response subscription must
// be acknowledged before the command is published, and the first JSON
// response decides the outcome.
func (c *Control) ChangePassword(ctx context.Context, username, password string) error {
	resp := NewFuture[map[string]any]()
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var payload map[string]any
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			logging.Warnf("mqtt: ignoring undecodable payload on %s: %v", msg.Topic(), err)
			return
		}
		logging.Infof("mqtt: response on %s: %v", msg.Topic(), payload)
		resp.Resolve(payload)
	}

	if err := c.await(ctx, c.session.Subscribe(ResponseTopic, 0, handler), c.SubscribeTimeout, ErrSubscribeTimeout); err != nil {
		return err
	}
	logging.Debugf("mqtt: subscription to %s confirmed", ResponseTopic)

	body, err := json.Marshal(changePasswordCommand{Username: username, Password: password})
	if err != nil {
		return err
	}
	logging.Infof("mqtt: changing password for admin user %q", username)
	if err := c.await(ctx, c.session.Publish(ChangePasswordTopic, 0, false, body), c.ResponseTimeout, ErrResponseTimeout); err != nil {
		return err
	}

	payload, err := resp.Wait(ctx, c.clock, c.ResponseTimeout)
	if errors.Is(err, errWaitTimeout) {
		return ErrResponseTimeout
	}
	if err != nil {
		return err
	}
	if result, _ := payload["result"].(string); result != "success" {
		return fmt.Errorf("%w: %v", ErrCommandFailed, payload)
	}
	return nil
}

func (c *Control) await(ctx context.Context, tok mqtt.Token, d time.Duration, timeoutErr error) error {
	timer := c.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return timeoutErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
