package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testdb "github.com/thefitz/companion/test/database"
	"github.com/thefitz/companion/test/util"
)

func TestNotifyListener_ReceivesPublishedChanges(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	broker := NewBroker()
	ch, unsub := broker.Subscribe()
	defer unsub()

	listener := NewNotifyListener(util.GetBaseConnectionString(t), broker)
	require.NoError(t, listener.Start(ctx))
	defer listener.Stop(ctx)

	publisher := NewNotifyPublisher(client.DB())
	require.NoError(t, publisher.Publish(ctx, NewChange(ResourceTicket, ActionAutoClosed, "t-42").WithStatus("closed")))

	select {
	case payload := <-ch:
		var got Change
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, ActionAutoClosed, got.Action)
		assert.Equal(t, "t-42", got.ID)
		assert.Equal(t, "closed", got.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for NOTIFY")
	}
}
