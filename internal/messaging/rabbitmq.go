package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type Config struct {
	URL            string
	Queue          string
	RetryCount     int
	RetryDelay     time.Duration
	ReconnectDelay time.Duration
}

// Client owns a single RabbitMQ connection and channel, shared by the
// publisher and consumer sides. A dropped connection is re-established in the
// background and the durable queue is re-declared on every (re)connect.
type Client struct {
	config     Config
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < c.config.RetryCount; i++ {
		c.connection, err = amqp.Dial(c.config.URL)
		if err != nil {
			logrus.Errorf("RabbitMQ connection error (attempt %d/%d): %v", i+1, c.config.RetryCount, err)
			if i < c.config.RetryCount-1 {
				time.Sleep(c.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to RabbitMQ: %v", err)
		}

		c.channel, err = c.connection.Channel()
		if err != nil {
			c.connection.Close()
			return fmt.Errorf("failed to open RabbitMQ channel: %v", err)
		}

		// The queue is declared on every connect so that a reconnect after a
		// broker restart restores it. Declaration is idempotent.
		if _, err = c.channel.QueueDeclare(
			c.config.Queue, // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			nil,            // arguments
		); err != nil {
			c.channel.Close()
			c.connection.Close()
			return fmt.Errorf("failed to declare queue %s: %v", c.config.Queue, err)
		}

		logrus.Infof("Connected to RabbitMQ, queue %s declared", c.config.Queue)

		go c.handleReconnection()

		return nil
	}

	return err
}

func (c *Client) handleReconnection() {
	c.mu.RLock()
	connection := c.connection
	c.mu.RUnlock()

	notifyClose := make(chan *amqp.Error)
	connection.NotifyClose(notifyClose)

	select {
	case err := <-notifyClose:
		c.mu.RLock()
		closing := c.isClosing
		c.mu.RUnlock()
		if closing {
			return
		}

		logrus.Warnf("RabbitMQ connection lost: %v, reconnecting...", err)
		c.Redial()
	case <-c.ctx.Done():
		return
	}
}

// Redial retries Connect every ReconnectDelay until it succeeds or the client
// is closed. It outlives any single broker outage; a successful Connect arms
// the close notification again, so the next connection loss lands back here.
func (c *Client) Redial() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.config.ReconnectDelay):
		}

		if err := c.Connect(); err != nil {
			logrus.Errorf("RabbitMQ reconnect failed: %v, retrying in %s", err, c.config.ReconnectDelay)
			continue
		}
		return
	}
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Client) Queue() string {
	return c.config.Queue
}

// Close shuts the channel before the connection; both steps tolerate the
// resource being absent already.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosing {
		return nil
	}

	c.isClosing = true
	c.cancel()

	var closeErr error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close error: %v", err)
			logrus.Errorf("Failed to close RabbitMQ channel: %v", err)
		}
	}

	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; connection close error: %v", closeErr, err)
			} else {
				closeErr = fmt.Errorf("connection close error: %v", err)
			}
			logrus.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}

	if closeErr == nil {
		logrus.Info("RabbitMQ connection closed")
	}

	return closeErr
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.connection != nil && !c.connection.IsClosed()
}
