package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wise-student-be/pkg/events"
)

func TestPublishDeliversEnvelopeToOutboxTopic(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "test-topic")
	require.NoError(t, err)

	svc := NewPublisherService("test-topic", pubSub)

	userID := uuid.New()
	subID := uuid.New()
	evt := events.SubscriptionActivated(userID, subID, "student_premium", false)
	require.NoError(t, svc.Publish(ctx, evt))

	select {
	case msg := <-messages:
		var env eventEnvelope
		require.NoError(t, json.Unmarshal(msg.Payload, &env))
		assert.Equal(t, events.TypeSubscriptionActivated, env.Type)
		assert.Equal(t, userID.String(), env.Data["user_id"])
		assert.Equal(t, subID.String(), env.Data["subscription_id"])
		assert.Equal(t, "student_premium", env.Data["plan_id"])
		assert.WithinDuration(t, time.Now(), env.OccurredAt, time.Minute)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("no message arrived on the outbox topic")
	}
}

func TestEventRecipients(t *testing.T) {
	userID := uuid.New()
	parentID := uuid.New()
	childID := uuid.New()

	tests := []struct {
		name string
		data map[string]interface{}
		want []uuid.UUID
	}{
		{
			name: "subscription event targets its owner",
			data: map[string]interface{}{"user_id": userID.String(), "plan_id": "student_premium"},
			want: []uuid.UUID{userID},
		},
		{
			name: "link event targets both sides",
			data: map[string]interface{}{"parent_id": parentID.String(), "child_id": childID.String()},
			want: []uuid.UUID{parentID, childID},
		},
		{
			name: "malformed ids are skipped",
			data: map[string]interface{}{"user_id": "not-a-uuid", "child_id": childID.String()},
			want: []uuid.UUID{childID},
		},
		{
			name: "no recipient fields",
			data: map[string]interface{}{"order_id": "order_1"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventRecipients(tt.data))
		})
	}
}
