package notifysink

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"urlfetcher/internal/urlfetcher"
)

func TestPubSub_NotifyPublishesCompletionEvent(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	topic, err := client.CreateTopic(ctx, "fetch-completions")
	require.NoError(t, err)
	defer topic.Stop()

	sub, err := client.CreateSubscription(ctx, "sub-id", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	notifier := New(topic)

	resp := urlfetcher.Response{Body: []byte("hello")}
	err = notifier.Notify(ctx, urlfetcher.Ticket(7), "http://example.com", resp)
	require.NoError(t, err)

	received := make(chan *pubsub.Message, 1)
	cctx, cancel := context.WithCancel(ctx)
	go func() {
		_ = sub.Receive(cctx, func(_ context.Context, msg *pubsub.Message) {
			msg.Ack()
			received <- msg
		})
	}()
	defer cancel()

	msg := <-received
	var evt completionEvent
	require.NoError(t, json.Unmarshal(msg.Data, &evt))
	require.Equal(t, urlfetcher.Ticket(7), evt.Ticket)
	require.Equal(t, "http://example.com", evt.URL)
	require.Equal(t, len(resp.Body), evt.BodyBytes)
}
