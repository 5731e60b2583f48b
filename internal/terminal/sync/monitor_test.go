package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	err error
}

func (p *fakeProber) Health(ctx context.Context) error {
	return p.err
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMonitor_StartsOffline(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Second, discardLogger())
	assert.False(t, m.Online())
}

func TestMonitor_OfflineToOnlineEdge(t *testing.T) {
	p := &fakeProber{err: errors.New("refused")}
	m := NewMonitor(p, time.Second, discardLogger())
	ctx := context.Background()

	online, cameOnline := m.Check(ctx)
	assert.False(t, online)
	assert.False(t, cameOnline)

	p.err = nil
	online, cameOnline = m.Check(ctx)
	assert.True(t, online)
	assert.True(t, cameOnline)

	// Staying online is not an edge.
	online, cameOnline = m.Check(ctx)
	assert.True(t, online)
	assert.False(t, cameOnline)
}

func TestMonitor_ProbeFailureIsSilentHold(t *testing.T) {
	p := &fakeProber{}
	m := NewMonitor(p, time.Second, discardLogger())
	ctx := context.Background()

	m.Check(ctx)
	assert.True(t, m.Online())

	p.err = errors.New("timeout")
	online, cameOnline := m.Check(ctx)
	assert.False(t, online)
	assert.False(t, cameOnline)
	assert.False(t, m.Online())
}
