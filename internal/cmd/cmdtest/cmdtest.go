// Package cmdtest drives clientctl commands in tests with an in-memory
// transport and captured streams.
package cmdtest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/clientctl/clientctl/internal/build"
	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/iostreams"
	"github.com/clientctl/clientctl/internal/log"
	"github.com/clientctl/clientctl/internal/profile"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Call records one adapter invocation.
type Call struct {
	Op     string
	Query  transport.ListQuery
	ID     string
	Fields clients.Fields
	Patch  clients.Patch
}

// FakeAdapter serves pages keyed by offset and records every call.
type FakeAdapter struct {
	mu    sync.Mutex
	Pages map[string]clients.Page
	Err   error
	calls []Call
}

var _ transport.Adapter = (*FakeAdapter)(nil)

func (f *FakeAdapter) Mode() transport.Mode { return transport.ModeRelay }

func (f *FakeAdapter) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Err
}

// Calls returns a copy of the recorded calls.
func (f *FakeAdapter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeAdapter) List(_ context.Context, q transport.ListQuery) (clients.Page, error) {
	if err := f.record(Call{Op: transport.OpList, Query: q}); err != nil {
		return clients.Page{}, err
	}
	page, ok := f.Pages[q.Offset]
	if !ok {
		return clients.Page{Records: []clients.Record{}}, nil
	}
	return page, nil
}

func (f *FakeAdapter) Create(_ context.Context, fields clients.Fields) (clients.Record, error) {
	if err := f.record(Call{Op: transport.OpCreate, Fields: fields}); err != nil {
		return clients.Record{}, err
	}
	return clients.Record{ID: "recNew", Fields: fields}, nil
}

func (f *FakeAdapter) Update(_ context.Context, id string, p clients.Patch) (clients.Record, error) {
	if err := f.record(Call{Op: transport.OpUpdate, ID: id, Patch: p}); err != nil {
		return clients.Record{}, err
	}
	return clients.Record{ID: id, Fields: p.Apply(clients.Fields{})}, nil
}

func (f *FakeAdapter) Delete(_ context.Context, id string) error {
	return f.record(Call{Op: transport.OpDelete, ID: id})
}

// Harness is a minimal root command around one verb.
type Harness struct {
	Root    *cobra.Command
	Config  *config.ProfiledConfig
	Adapter *FakeAdapter
	In      *bytes.Buffer
	Out     *bytes.Buffer
	ErrOut  *bytes.Buffer
	Logs    *bytes.Buffer
}

// New wires verb under a root that provides --output, config, streams, a
// JSON logger and the fake transport through the command context.
func New(t *testing.T, verb *cobra.Command) *Harness {
	t.Helper()

	cobra.EnableTraverseRunHooks = true

	streams, in, out, errOut := iostreams.NewTestIOStreams()
	h := &Harness{
		Config:  config.BuildProfiledConfig(common.DefaultProfile, "", viper.New()),
		Adapter: &FakeAdapter{Pages: map[string]clients.Page{}},
		In:      in,
		Out:     out,
		ErrOut:  errOut,
		Logs:    &bytes.Buffer{},
	}
	logger := slog.New(log.NewDualHandler(slog.NewJSONHandler(h.Logs, &slog.HandlerOptions{Level: log.LevelTrace}), nil))

	factory := cmd.TransportFactory(func(context.Context, config.Hook, *slog.Logger) (transport.Adapter, error) {
		return h.Adapter, nil
	})

	root := &cobra.Command{
		Use:              "clientctl",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if f := c.Flags().Lookup(common.OutputFlagName); f != nil {
				if err := h.Config.BindFlag(common.OutputConfigPath, f); err != nil {
					return err
				}
			}
			ctx := c.Context()
			ctx = context.WithValue(ctx, config.ConfigKey, config.Hook(h.Config))
			ctx = context.WithValue(ctx, iostreams.StreamsKey, &streams)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			ctx = context.WithValue(ctx, build.InfoKey, &build.Info{Version: "1.2.3", Commit: "abc123", Date: "today"})
			ctx = context.WithValue(ctx, cmd.TransportFactoryKey, factory)
			ctx = context.WithValue(ctx, profile.ProfileManagerKey, profile.NewManager(h.Config.Viper))
			c.SetContext(ctx)
			return nil
		},
	}
	root.PersistentFlags().StringP(common.OutputFlagName, common.OutputFlagShort,
		common.DefaultOutputFormat, "Output format (text|json|yaml)")
	root.AddCommand(verb)
	root.SetOut(out)
	root.SetErr(errOut)
	h.Root = root
	return h
}

// Run executes the root with args.
func (h *Harness) Run(args ...string) error {
	return h.RunContext(context.Background(), args...)
}

// RunContext executes the root with args under ctx.
func (h *Harness) RunContext(ctx context.Context, args ...string) error {
	h.Root.SetArgs(args)
	return h.Root.ExecuteContext(ctx)
}

// Stdout returns what the command printed, with surrounding whitespace trimmed.
func (h *Harness) Stdout() string {
	return strings.TrimSpace(h.Out.String())
}

// Ops lists the operation of every recorded adapter call.
func (h *Harness) Ops() []string {
	var ops []string
	for _, c := range h.Adapter.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

// Records is a helper for building fixture pages.
func Records(ids ...string) []clients.Record {
	out := make([]clients.Record, 0, len(ids))
	for i, id := range ids {
		out = append(out, clients.Record{
			ID: id,
			Fields: clients.Fields{
				Name:  fmt.Sprintf("Client %d", i+1),
				Email: fmt.Sprintf("client%d@example.com", i+1),
			},
		})
	}
	return out
}
