package signaling

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePeer records everything the room hands to it.
type fakePeer struct {
	mu          sync.Mutex
	frames      [][]byte
	reject      bool
	disconnects []DisconnectCause
}

func (p *fakePeer) Deliver(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.frames = append(p.frames, frame)
	return true
}

func (p *fakePeer) Disconnect(cause DisconnectCause) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects = append(p.disconnects, cause)
}

func (p *fakePeer) received() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.frames...)
}

func (p *fakePeer) notices(t *testing.T) []notice {
	t.Helper()
	var out []notice
	for _, f := range p.received() {
		var n notice
		require.NoError(t, json.Unmarshal(f, &n))
		out = append(out, n)
	}
	return out
}

func (p *fakePeer) causes() []DisconnectCause {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DisconnectCause(nil), p.disconnects...)
}

// reserved returns a registry with code already reserved.
func reserved(t *testing.T, code string, opts ...Option) *Registry {
	t.Helper()
	reg := NewRegistry(opts...)
	ok, err := reg.Store().Reserve(context.Background(), code, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	return reg
}
