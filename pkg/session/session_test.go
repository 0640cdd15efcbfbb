package session

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
)

var s1Login = []byte{
	0x78, 0x78, 0x11, 0x01, 0x03, 0x55, 0x17, 0x21, 0x07, 0x46, 0x10, 0x53,
	0x00, 0x36, 0x00, 0x01, 0x00, 0x01, 0xE0, 0xD1, 0x0D, 0x0A,
}

func newTestLogger() *eventlog.Logger {
	base, _ := test.NewNullLogger()
	return eventlog.New(base)
}

func readN(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	return buf
}

func TestLoginBindsIdentifierAndSendsAck(t *testing.T) {
	client, server := net.Pipe()
	registry := NewRegistry(newTestLogger())
	s := New(server, registry, newTestLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	_, err := client.Write(s1Login)
	require.NoError(t, err)

	ack := readN(t, client, 10)
	assert.Equal(t, []byte{0x78, 0x78, 0x05, 0x01, 0x00, 0x01, 0xD9, 0xDC, 0x0D, 0x0A}, ack)

	// Give the handler a moment to complete the registry bind, which
	// happens before the ack is enqueued.
	time.Sleep(10 * time.Millisecond)
	got, ok := registry.Get("355172107461053")
	require.True(t, ok)
	assert.Equal(t, "355172107461053", got.Identifier())

	client.Close()
}

func TestRegistryAtMostOneLiveSessionPerIdentifier(t *testing.T) {
	registry := NewRegistry(newTestLogger())

	clientA, serverA := net.Pipe()
	defer clientA.Close()
	sA := New(serverA, registry, newTestLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sA.Run(ctx)
	clientA.Write(s1Login)
	readN(t, clientA, 10)
	time.Sleep(10 * time.Millisecond)

	clientB, serverB := net.Pipe()
	defer clientB.Close()
	sB := New(serverB, registry, newTestLogger(), nil)
	go sB.Run(ctx)
	clientB.Write(s1Login)
	readN(t, clientB, 10)
	time.Sleep(10 * time.Millisecond)

	got, ok := registry.Get("355172107461053")
	require.True(t, ok)
	assert.Same(t, sB, got)
	assert.Equal(t, 1, registry.Count())
}

func TestSendCommandNotConnectedReturnsFalse(t *testing.T) {
	registry := NewRegistry(newTestLogger())
	assert.False(t, registry.SendCommand("nobody", "STATUS#"))
}

func TestSendCommandEncodesAndQueuesFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	registry := NewRegistry(newTestLogger())
	s := New(server, registry, newTestLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	client.Write(s1Login)
	readN(t, client, 10)
	time.Sleep(10 * time.Millisecond)

	ok := registry.SendCommand("355172107461053", "STATUS#")
	require.True(t, ok)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	head := readN(t, client, 2)
	assert.Equal(t, []byte{0x78, 0x78}, head)
}

func init() {
	logrus.SetOutput(io.Discard)
}
