//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"podium/pkg/testutil/containers"
)

func TestKafkaSinkRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	const topic = "podium.audit.test"
	redpanda := containers.NewRedpandaContainer(t)
	t.Cleanup(func() { _ = redpanda.Container.Terminate(context.Background()) })
	redpanda.CreateTopic(t, topic)

	sink, err := NewKafkaSink([]string{redpanda.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	want := Event{
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		Action:      ActionResourceCreated,
		PrincipalID: "7c9a2a0e-4a1f-4a36-9f2a-0d9b8c3f1e55",
		Subject:     "f1b4c1de-2233-4455-8899-aabbccddeeff",
		RequestID:   "req-1",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sink.Append(ctx, want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, want.Subject, string(records[0].Key), "records are keyed by subject for per-resource ordering")

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want.Action, got.Action)
	require.Equal(t, want.PrincipalID, got.PrincipalID)
	require.Equal(t, want.RequestID, got.RequestID)
}
