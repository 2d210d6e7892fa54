package mqttclient

import (
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type MessageHandler func(topic string, payload []byte)

type Client struct {
	conn      mqtt.Client
	topics    []string
	connected atomic.Bool
	log       zerolog.Logger
	handler   atomic.Pointer[MessageHandler]
}

type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	Log         zerolog.Logger
}

func Connect(opts Options) (*Client, error) {
	c := &Client{
		topics: []string{TickTopicFilter(opts.TopicPrefix)},
		log:    opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetDefaultPublishHandler(c.onMessage)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) SetMessageHandler(h MessageHandler) {
	c.handler.Store(&h)
}

// Publish sends payload on topic at QoS 0 without waiting for delivery.
func (c *Client) Publish(topic string, payload []byte) {
	token := c.conn.Publish(topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Debug().Err(err).Str("topic", topic).Msg("mqtt publish failed")
		}
	}()
}

func (c *Client) onConnect(client mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Strs("topics", c.topics).Msg("mqtt connected, subscribing")

	filters := make(map[string]byte, len(c.topics))
	for _, t := range c.topics {
		filters[t] = 0
	}
	token := client.SubscribeMultiple(filters, nil)
	token.Wait()
	if err := token.Error(); err != nil {
		c.log.Error().Err(err).Msg("mqtt subscribe failed")
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if h := c.handler.Load(); h != nil {
		(*h)(msg.Topic(), msg.Payload())
		return
	}
	c.log.Debug().
		Str("topic", msg.Topic()).
		Int("payload_size", len(msg.Payload())).
		Msg("mqtt message received")
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}
