package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
)

const amqpPort = nat.Port("5672/tcp")

func setupRabbitMQContainer(ctx context.Context, t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping rabbitmq integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-management",
			ExposedPorts: []string{string(amqpPort)},
			WaitingFor:   wait.ForListeningPort(amqpPort).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, amqpPort)
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestPublishToExchange_Integration(t *testing.T) {
	ctx := context.Background()
	uri := setupRabbitMQContainer(ctx, t)

	conn, err := Connect(ctx, sl.Discard(), uri, Retry{Attempts: 10, Delay: time.Second})
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupExchange(conn, "auth-events")
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "session.*", "auth-events", false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, PublishMessage(ch, "auth-events", "session.login", map[string]string{"user_id": "u1"}))

	select {
	case d := <-deliveries:
		var got map[string]string
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, "u1", got["user_id"])
		assert.Equal(t, "session.login", d.RoutingKey)
		assert.Equal(t, AppID, d.AppId)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
