// Package notifysink provides urlfetcher.Notifier implementations.
package notifysink

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"urlfetcher/internal/urlfetcher"
)

// completionEvent is the JSON payload published for every completed
// fetch, independent of the wire codec used by the RPC surface.
type completionEvent struct {
	Ticket    urlfetcher.Ticket `json:"ticket"`
	URL       string            `json:"url"`
	ErrorCode int32             `json:"error_code"`
	BodyBytes int               `json:"body_bytes"`
}

// topicPublisher is the subset of *pubsub.Topic's surface Notify
// needs, narrow enough to fake in tests without a live project.
type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
	Stop()
}

// PubSub implements urlfetcher.Notifier by publishing one JSON message
// per completed fetch to a configured topic.
type PubSub struct {
	topic topicPublisher
}

// New constructs a PubSub notifier bound to an already-resolved topic
// handle, typically client.Topic(topicID).
func New(topic topicPublisher) *PubSub {
	return &PubSub{topic: topic}
}

// Notify publishes resp as a JSON completion event and waits for the
// broker to acknowledge the publish.
func (n *PubSub) Notify(ctx context.Context, ticket urlfetcher.Ticket, url string, resp urlfetcher.Response) error {
	data, err := json.Marshal(completionEvent{
		Ticket:    ticket,
		URL:       url,
		ErrorCode: resp.ErrorCode,
		BodyBytes: len(resp.Body),
	})
	if err != nil {
		return fmt.Errorf("notifysink: marshal completion event: %w", err)
	}

	result := n.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("notifysink: publish completion event: %w", err)
	}
	return nil
}

// Close stops the underlying topic handle, flushing any buffered
// publishes.
func (n *PubSub) Close() error {
	n.topic.Stop()
	return nil
}
