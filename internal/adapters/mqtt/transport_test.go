package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nisc-labs/wearguard/internal/domain"
)

type nopHandler struct{}

func (nopHandler) HandleRaw([]byte) error { return nil }
func (nopHandler) Disconnected()          {}

func TestNewTransport_Validation(t *testing.T) {
	_, err := NewTransport(Config{}, nopHandler{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = NewTransport(Config{BrokerURL: "tcp://localhost:1883"}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewTransport_Defaults(t *testing.T) {
	tr, err := NewTransport(Config{
		BrokerURL: "tcp://localhost:1883",
		ClientID:  "ward-7",
	}, nopHandler{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, tr.cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, tr.cfg.PublishTimeout)
}
