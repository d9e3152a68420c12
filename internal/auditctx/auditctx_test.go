package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithActor(context.Background(), Actor{Subject: "alice", IPAddress: "10.0.0.1"})
	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", actor.Subject)
	require.Equal(t, "10.0.0.1", actor.IPAddress)
}

func TestWithActorNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated
	ctx := WithActor(nil, Actor{Subject: "bob"})
	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "bob", actor.Subject)
}
