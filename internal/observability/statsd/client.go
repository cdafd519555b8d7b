// Package statsd writes auth and live-view metrics as StatsD lines with
// DogStatsD "|#k:v" tags over UDP.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink is what the metrics recorder writes to. Tests substitute an in-memory one.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config is built from ObservabilityMetricsConfig. Prefix is prepended to
// every metric name; GlobalTags are merged under each call's tags.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

// Client owns one UDP socket shared by all goroutines. A nil *Client drops
// every metric.
type Client struct {
	enabled    bool
	address    string
	prefix     string
	globalTags map[string]string

	logger *slog.Logger
	conn   net.Conn
	mu     sync.Mutex
}

var _ Sink = (*Client)(nil)

const dialTimeout = 5 * time.Second

// NewClient dials Address when Enabled is set. With metrics off, or no
// address, it returns a client that drops everything.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	address := strings.TrimSpace(cfg.Address)
	enabled := cfg.Enabled && address != ""

	client := &Client{
		enabled:    enabled,
		address:    address,
		prefix:     sanitizePrefix(cfg.Prefix),
		globalTags: cloneTags(cfg.GlobalTags),
		logger:     logger,
	}

	if !enabled {
		return client, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(dialCtx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	client.conn = conn

	return client, nil
}

// Enabled reports whether writes reach the socket.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.conn != nil
}

// Count writes a "|c" counter line.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	if c == nil {
		return
	}
	c.write(name, strconv.FormatInt(value, 10)+"|c", tags)
}

// Gauge writes a "|g" gauge line.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	if c == nil {
		return
	}
	c.write(name, formatFloat(value)+"|g", tags)
}

// Timing writes a "|ms" line; sub-millisecond precision is kept.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	if c == nil {
		return
	}
	ms := float64(value) / float64(time.Millisecond)
	c.write(name, formatFloat(ms)+"|ms", tags)
}

// Close shuts the socket. Later writes are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.enabled = false
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.enabled = false
	return err
}

func (c *Client) write(name, payload string, tags map[string]string) {
	if c == nil {
		return
	}

	metric := c.metricName(name)
	if metric == "" {
		return
	}

	line := metric + ":" + payload + formatTags(c.globalTags, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.conn == nil {
		return
	}

	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

// metricName joins prefix and name, folding characters that break the line format.
func (c *Client) metricName(name string) string {
	if name == "" {
		return ""
	}
	normalized := normalizeMetricName(name)
	if c.prefix == "" {
		return normalized
	}
	if normalized == "" {
		return c.prefix
	}
	return c.prefix + "." + normalized
}

func sanitizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), ".")
}

func normalizeMetricName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = strings.NewReplacer(" ", "_", "/", "_", ":", "_", "|", "_").Replace(n)
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	return strings.Trim(n, ".")
}

// formatTags sorts keys so identical tag sets produce identical lines.
func formatTags(global, local map[string]string) string {
	total := len(global) + len(local)
	if total == 0 {
		return ""
	}

	merged := make(map[string]string, total)
	for _, tags := range []map[string]string{global, local} {
		for k, v := range tags {
			if key := strings.TrimSpace(k); key != "" {
				merged[key] = strings.TrimSpace(v)
			}
		}
	}

	if len(merged) == 0 {
		return ""
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = k + ":" + merged[k]
	}
	return "|#" + strings.Join(values, ",")
}

func cloneTags(tags map[string]string) map[string]string {
	cp := make(map[string]string, len(tags))
	for k, v := range tags {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		cp[key] = strings.TrimSpace(v)
	}
	return cp
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
