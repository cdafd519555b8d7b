package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  knowlio.web  ": "knowlio.web",
		"..foo..":         "foo",
		".":               "",
		"":                "",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizePrefix(input), "sanitizePrefix(%q)", input)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" auth/event ":     "auth_event",
		"live..views":      "live.views",
		"multi  space":     "multi__space",
		"bad:name|pipe":    "bad_name_pipe",
		".live.view.open.": "live.view.open",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), "normalizeMetricName(%q)", input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env":       "prod",
		" service ": " knowlio ",
	}
	local := map[string]string{
		"tag": " signed-in ",
		"":    "ignored",
		"env": "stage",
	}

	assert.Equal(t, "|#env:stage,service:knowlio,tag:signed-in", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestCloneTagsReturnsCopy(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod", "": "ignored"}
	cloned := cloneTags(original)
	require.NotNil(t, cloned)

	cloned["env"] = "stage"
	assert.Equal(t, "prod", original["env"])
	assert.NotContains(t, cloned, "")
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{enabled: true, conn: clientConn}
	assert.True(t, client.Enabled())

	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
	require.NoError(t, client.Close(), "second Close")

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
	nilClient.Count("auth.event", 1, nil)
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	// Dropped silently.
	client.Gauge("live.views", 3, nil)
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestClientWritesLineProtocol(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(context.Background(), Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "knowlio.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()

	read := func() string {
		t.Helper()
		buf := make([]byte, 512)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, readErr := pc.ReadFrom(buf)
		require.NoError(t, readErr)
		return string(buf[:n])
	}

	client.Count("auth.event", 1, map[string]string{"tag": "signed-in"})
	assert.Equal(t, "knowlio.auth.event:1|c|#env:test,tag:signed-in", read())

	client.Gauge("live.views", 2.5, nil)
	assert.Equal(t, "knowlio.live.views:2.5|g|#env:test", read())

	client.Timing("live.view.lifetime", 1500*time.Millisecond, nil)
	assert.Equal(t, "knowlio.live.view.lifetime:1500|ms|#env:test", read())
}
