package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	redisadapter "github.com/target/knowlio-web/internal/adapters/redis"
	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

// adminOrigin marks events published from the CLI.
const adminOrigin = "knowlio-admin"

type publishOptions struct {
	Tag     domainauth.EventTag
	Scope   string
	Payload map[string]string
	Channel string
}

func parsePublishFlags(args []string, defaultChannel string) (publishOptions, error) {
	fs := flag.NewFlagSet("publish-event", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := publishOptions{Payload: map[string]string{}}
	var tag string
	fs.StringVar(&tag, "tag", "", "Event tag (required), e.g. signed-out")
	fs.StringVar(&opts.Scope, "scope", "", "Client key the event concerns; empty targets every client")
	fs.StringVar(&opts.Channel, "channel", defaultChannel, "Relay channel")
	fs.Func("payload", "Payload entry as key=value (repeatable)", func(v string) error {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("payload %q must be key=value", v)
		}
		opts.Payload[key] = value
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return publishOptions{}, err
	}
	if tag == "" {
		return publishOptions{}, errors.New("--tag is required")
	}
	parsed, err := domainauth.ParseEventTag(tag)
	if err != nil {
		return publishOptions{}, err
	}
	opts.Tag = parsed
	if opts.Channel == "" {
		return publishOptions{}, errors.New("--channel is required")
	}
	if len(opts.Payload) == 0 {
		opts.Payload = nil
	}
	return opts, nil
}

// buildEvent stamps opts into a relay event.
func buildEvent(opts publishOptions) domainauth.Event {
	ev := domainauth.NewEvent(opts.Tag, opts.Scope, opts.Payload)
	ev.Origin = adminOrigin
	return ev
}

func runPublishEvent(cmdCtx *commandContext, args []string) error {
	opts, err := parsePublishFlags(args, cmdCtx.Config.Live.RelayChannel)
	if err != nil {
		return err
	}

	client, err := connectRedis(cmdCtx.Ctx, cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	if pubErr := redisadapter.PublishEvent(cmdCtx.Ctx, client, opts.Channel, buildEvent(opts)); pubErr != nil {
		return pubErr
	}

	scope := opts.Scope
	if scope == "" {
		scope = "(all clients)"
	}
	return writef(cmdCtx.Out, "Published %s to %s for %s\n", opts.Tag, opts.Channel, scope)
}
