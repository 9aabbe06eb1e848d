package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/internal/pipeline"
	zaplog "github.com/railzwaylabs/sagalog/pkg/log"
	"github.com/railzwaylabs/sagalog/pkg/snowflake"
)

// ErrEventNotFound is returned by Inspect when no event has the given ID.
var ErrEventNotFound = errors.New("event not found")

// Inspect writes the stored form of an event to out, indented.
func Inspect(ctx context.Context, id string, out io.Writer) error {
	return withRepository(func(repo event.Repository, _ *config.Config, _ *zap.Logger) error {
		return inspect(ctx, repo, id, out)
	})
}

// Enqueue records a new event and writes it to out. A transaction ID is
// generated when transactionID is empty.
func Enqueue(ctx context.Context, transactionID, transition string, args []string, out io.Writer) error {
	return withRepository(func(repo event.Repository, cfg *config.Config, logger *zap.Logger) error {
		node, err := snowflake.NewNode(nodeID(cfg))
		if err != nil {
			return err
		}
		svc := pipeline.NewService(repo, node, logger)
		return enqueue(ctx, svc, transactionID, transition, args, out)
	})
}

func inspect(ctx context.Context, repo event.Repository, id string, out io.Writer) error {
	ev, err := repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return writeIndented(out, ev)
}

func enqueue(ctx context.Context, svc *pipeline.Service, transactionID, transition string, args []string, out io.Writer) error {
	if transactionID == "" {
		transactionID = svc.NewTransaction()
	}

	values := make([]any, len(args))
	for i, a := range args {
		values[i] = parseArg(a)
	}

	ev, err := svc.Enqueue(ctx, transactionID, transition, values...)
	if err != nil {
		return err
	}
	return writeIndented(out, ev)
}

// parseArg keeps valid JSON literals as-is and treats anything else as a
// plain string, so `enqueue charge 42 '{"a":1}' alice` does what it reads as.
func parseArg(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}

func writeIndented(out io.Writer, ev *event.Event) error {
	raw, err := ev.Dump()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = out.Write(buf.Bytes())
	return err
}

func withRepository(fn func(event.Repository, *config.Config, *zap.Logger) error) error {
	cfg := config.Load()
	logger, err := zaplog.New(logOptions(cfg))
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, closeFn, err := openRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(repo, cfg, logger)
}
