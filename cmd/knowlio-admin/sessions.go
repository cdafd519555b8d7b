package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/target/knowlio-web/internal/adapters/redis"
	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

const defaultSessionListLimit = 100

type listSessionsOptions struct {
	Limit   int
	RawJSON bool
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{Limit: defaultSessionListLimit}
	fs.IntVar(&opts.Limit, "limit", defaultSessionListLimit, "Maximum number of sessions to list (0 = all)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print sessions as JSON")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	if opts.Limit < 0 {
		return listSessionsOptions{}, fmt.Errorf("--limit must be >= 0, got %d", opts.Limit)
	}
	return opts, nil
}

// sessionRow is the listing view of a stored session.
type sessionRow struct {
	Key        string    `json:"key"`
	Identifier string    `json:"identifier"`
	Provider   string    `json:"provider"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func collectSessions(cmdCtx *commandContext, client redis.UniversalClient, limit int) ([]sessionRow, error) {
	store := redisadapter.NewSessionStore(client)
	keys, err := store.Keys(cmdCtx.Ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}

	rows := make([]sessionRow, 0, len(keys))
	for _, key := range keys {
		sess, getErr := store.Get(cmdCtx.Ctx, key)
		if errors.Is(getErr, ports.ErrNotFound) {
			continue // expired between SCAN and GET
		}
		if getErr != nil {
			return nil, fmt.Errorf("load session %s: %w", key, getErr)
		}
		rows = append(rows, sessionRow{
			Key:        key,
			Identifier: sess.Identifier,
			Provider:   string(sess.Provider),
			ExpiresAt:  sess.ExpiresAt,
		})
	}
	return rows, nil
}

func printSessions(w io.Writer, rows []sessionRow, rawJSON bool) error {
	if rawJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode sessions: %w", err)
		}
		return nil
	}
	if len(rows) == 0 {
		return writef(w, "No sessions stored\n")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "KEY\tIDENTIFIER\tPROVIDER\tEXPIRES\n"); err != nil {
		return err
	}
	for _, r := range rows {
		expires := "-"
		if !r.ExpiresAt.IsZero() {
			expires = r.ExpiresAt.UTC().Format(time.RFC3339)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n", r.Key, r.Identifier, r.Provider, expires); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return writef(w, "\n%d session(s)\n", len(rows))
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	client, err := connectRedis(cmdCtx.Ctx, cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	rows, err := collectSessions(cmdCtx, client, opts.Limit)
	if err != nil {
		return err
	}
	return printSessions(cmdCtx.Out, rows, opts.RawJSON)
}

type clearSessionOptions struct {
	Key    string
	Notify bool
}

func parseClearSessionFlags(args []string) (clearSessionOptions, error) {
	fs := flag.NewFlagSet("clear-session", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearSessionOptions{Notify: true}
	fs.StringVar(&opts.Key, "key", "", "Client key to clear (required)")
	fs.BoolVar(&opts.Notify, "notify", true, "Publish signed-out so open views navigate away")

	if err := fs.Parse(args); err != nil {
		return clearSessionOptions{}, err
	}
	if opts.Key == "" {
		return clearSessionOptions{}, errors.New("--key is required")
	}
	return opts, nil
}

// clearSession deletes both session slots for key.
func clearSession(cmdCtx *commandContext, client redis.UniversalClient, key string) error {
	if err := redisadapter.NewSessionStore(client).Delete(cmdCtx.Ctx, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	overrides := redisadapter.NewOverrideStore(client, cmdCtx.Config.Session.OverrideTTL)
	if err := overrides.Delete(cmdCtx.Ctx, key); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

func runClearSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionFlags(args)
	if err != nil {
		return err
	}

	client, err := connectRedis(cmdCtx.Ctx, cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	if clearErr := clearSession(cmdCtx, client, opts.Key); clearErr != nil {
		return clearErr
	}

	if opts.Notify {
		ev := buildEvent(publishOptions{Tag: domainauth.TagSignedOut, Scope: opts.Key})
		if pubErr := redisadapter.PublishEvent(cmdCtx.Ctx, client, cmdCtx.Config.Live.RelayChannel, ev); pubErr != nil {
			return pubErr
		}
	}

	cmdCtx.Logger.Info("session cleared", "key", opts.Key, "notified", opts.Notify)
	return writef(cmdCtx.Out, "Cleared session %s\n", opts.Key)
}
