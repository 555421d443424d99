package events

import (
	"context"
	"strings"
	"testing"

	"github.com/acquisitions/apiserver/internal/mq"
	"github.com/acquisitions/apiserver/types"
	"github.com/stretchr/testify/require"
)

func TestPublishUserEvent(t *testing.T) {
	backend := mq.NewMemoryBackend()
	publisher := NewPublisher(mq.New(backend), "user-events")

	user := types.User{ID: 7, Name: "Bob", Email: "bob@example.com", Role: types.RoleUser, PasswordHash: "secret-hash"}
	require.NoError(t, publisher.PublishUserEvent(context.Background(), types.UserCreated, user))

	published := backend.Published("user-events")
	require.Len(t, published, 1)
	require.Equal(t, "application/json", published[0].Attributes[mq.AttrContentType])
	require.Equal(t, "user.created", published[0].Attributes["event_type"])
	require.False(t, strings.Contains(string(published[0].Data), "secret-hash"), "password hash must not leak")

	event, err := Decode(published[0])
	require.NoError(t, err)
	require.Equal(t, types.UserCreated, event.Type)
	require.Equal(t, 7, event.UserID)
	require.NotEmpty(t, event.ID)
	require.NotNil(t, event.User)
	require.Equal(t, "Bob", event.User.Name)
	require.False(t, event.OccurredAt.IsZero())
}

func TestDeletedEventOmitsUser(t *testing.T) {
	backend := mq.NewMemoryBackend()
	publisher := NewPublisher(mq.New(backend), "user-events")

	require.NoError(t, publisher.PublishUserEvent(context.Background(), types.UserDeleted, types.User{ID: 3, Name: "Gone"}))

	event, err := Decode(backend.Published("user-events")[0])
	require.NoError(t, err)
	require.Equal(t, types.UserDeleted, event.Type)
	require.Equal(t, 3, event.UserID)
	require.Nil(t, event.User)
}

func TestPublishUserEventFailsWhenBusClosed(t *testing.T) {
	backend := mq.NewMemoryBackend()
	require.NoError(t, backend.Close())

	publisher := NewPublisher(mq.New(backend), "user-events")
	err := publisher.PublishUserEvent(context.Background(), types.UserDeleted, types.User{ID: 1})
	require.ErrorContains(t, err, "publish user.deleted event")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(mq.Message{ID: "m1", Data: []byte("not json")})
	require.Error(t, err)

	_, err = Decode(mq.Message{ID: "m2", Data: []byte(`{"user_id":1}`)})
	require.ErrorContains(t, err, "missing type")
}
