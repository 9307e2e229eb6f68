package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/pkg/protocol"
)

type mockTransport struct {
	mu        sync.Mutex
	messages  []*protocol.Message
	connected bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{connected: true}
}

func (m *mockTransport) Send(msg *protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *mockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockTransport) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

func TestSocketPushHelpers(t *testing.T) {
	tr := newMockTransport()
	s := NewSocket("abc", tr)

	assert.Equal(t, "abc", s.ID())
	assert.Equal(t, "lv:abc", s.Topic())
	assert.True(t, s.IsConnected())

	require.NoError(t, s.Redirect("/login"))
	require.NoError(t, s.Focus("zip"))

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.EventRedirect, msgs[0].Event)
	assert.Equal(t, "/login", msgs[0].GetPayloadString("to"))
	assert.Equal(t, protocol.EventFocus, msgs[1].Event)
	assert.Equal(t, "lv:abc", msgs[1].Topic)
}

func TestSocketClosed(t *testing.T) {
	tr := newMockTransport()
	s := NewSocket("abc", tr)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.False(t, s.IsConnected())
	assert.ErrorIs(t, s.Push("render", nil), ErrSocketClosed)
	assert.False(t, s.SendInfo("tick"))

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestSocketInfo(t *testing.T) {
	s := NewSocket("abc", newMockTransport())

	assert.True(t, s.SendInfo("tick"))
	assert.Equal(t, "tick", <-s.Info())
}

func TestSocketConcurrentSend(t *testing.T) {
	tr := newMockTransport()
	s := NewSocket("abc", tr)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Push("render", map[string]any{"html": "<p></p>"})
		}()
	}
	wg.Wait()

	assert.Len(t, tr.Messages(), 50)
}

func TestTimeoutConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultTimeoutConfig().Validate())

	cfg := DefaultTimeoutConfig()
	cfg.WebSocketRead = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidReadTimeout)
}
