package mcp

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil similarity service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSimilarityService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Similarity: &mockSimilarityService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil similarity service returns error", func(t *testing.T) {
		assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSimilarityService)
	})

	t.Run("similarity only is valid", func(t *testing.T) {
		assert.NoError(t, (&Ports{Similarity: &mockSimilarityService{}}).Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Similarity: &mockSimilarityService{},
			Query:      &mockQueryService{},
			Keys:       &mockKeyService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestFindAvailablePort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	busy := listener.Addr().(*net.TCPAddr).Port

	_, err = FindAvailablePort(busy, busy)
	assert.EqualError(t, err, fmt.Sprintf("no available port in range %d-%d", busy, busy))
}
