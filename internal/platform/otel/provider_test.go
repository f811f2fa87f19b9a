package otel_test

import (
	"context"
	"testing"

	pixotel "github.com/SscSPs/pix_backend/internal/platform/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := pixotel.Setup(context.Background(), "pix_backend", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
