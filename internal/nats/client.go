package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/saviobatista/fuelbal/internal/types"
)

const (
	SubjectFuelEvents = "fuel.events"
	StreamFuelEvents  = "FUEL_EVENTS"
)

// ErrNilEvent is returned when publishing a nil event
var ErrNilEvent = errors.New("nil flight event")

// Client represents a NATS client
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// New creates a new NATS client and makes sure the event stream exists
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("fuelbal"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create stream if it doesn't exist
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamFuelEvents,
		Subjects: []string{SubjectFuelEvents},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{
		conn:   nc,
		js:     js,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets where undecodable messages are reported
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func encodeEvent(event *types.FlightEvent) ([]byte, error) {
	if event == nil {
		return nil, ErrNilEvent
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (*types.FlightEvent, error) {
	var event types.FlightEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// PublishEvent publishes a flight event to the event stream
func (c *Client) PublishEvent(event *types.FlightEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	if _, err := c.js.Publish(SubjectFuelEvents, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// SubscribeEvents delivers every flight event on the stream to handler.
// Messages that cannot be decoded are logged and skipped.
func (c *Client) SubscribeEvents(handler func(*types.FlightEvent)) (*nats.Subscription, error) {
	if handler == nil {
		return nil, errors.New("nil event handler")
	}
	sub, err := c.js.Subscribe(SubjectFuelEvents, func(msg *nats.Msg) {
		event, err := decodeEvent(msg.Data)
		if err != nil {
			c.logger.Warn("Dropping undecodable event", slog.Any("error", err))
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
