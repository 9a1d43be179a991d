package testsuite

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type recordingHandler struct {
	mutex   sync.Mutex
	handled []port.WorkUnit
	failOn  string
	block   chan struct{}
	errs    []error
	done    chan model.ChainID
}

func (h *recordingHandler) HandleUnit(ctx context.Context, unit port.WorkUnit) error {
	h.mutex.Lock()
	h.handled = append(h.handled, unit)
	h.mutex.Unlock()

	if h.block != nil {
		select {
		case <-h.block:
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		}
	}

	if h.failOn != "" && strings.HasSuffix(unit.ID, h.failOn) {
		return errors.New("unit failed")
	}

	return nil
}

func (h *recordingHandler) HandleChainError(ctx context.Context, chain port.Chain, err error) {
	h.mutex.Lock()
	h.errs = append(h.errs, err)
	h.mutex.Unlock()
	h.done <- chain.ID
}

func (h *recordingHandler) HandleChainDone(ctx context.Context, chain port.Chain) {
	h.done <- chain.ID
}

func (h *recordingHandler) Handled() []port.WorkUnit {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]port.WorkUnit{}, h.handled...)
}

func (h *recordingHandler) Errors() []error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]error{}, h.errs...)
}

func newTestChain(size int) port.Chain {
	chain := port.Chain{
		ID:    model.NewChainID(),
		JobID: model.NewJobID(),
	}

	for i := range size {
		chain.Units = append(chain.Units, port.WorkUnit{
			ID:      string(chain.ID) + "-" + string(rune('a'+i)),
			ChainID: chain.ID,
			JobID:   chain.JobID,
			TaskID:  model.NewTaskID(),
		})
	}

	return chain
}

func waitChain(t *testing.T, done chan model.ChainID) model.ChainID {
	t.Helper()

	select {
	case id := <-done:
		return id
	case <-time.After(10 * time.Second):
		t.Fatal("timeout while waiting for chain")
		return ""
	}
}

func TestWorkQueue(t *testing.T, factory func(t *testing.T) (port.WorkQueue, error)) {
	type testCase struct {
		Name    string
		Handler func() *recordingHandler
		Run     func(t *testing.T, ctx context.Context, queue port.WorkQueue, handler *recordingHandler) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "Order",
			Run: func(t *testing.T, ctx context.Context, queue port.WorkQueue, handler *recordingHandler) error {
				chain := newTestChain(5)

				if err := queue.Enqueue(ctx, chain); err != nil {
					return errors.WithStack(err)
				}

				if e, g := chain.ID, waitChain(t, handler.done); e != g {
					t.Fatalf("chain: expected %v, got %v", e, g)
				}

				handled := handler.Handled()

				if e, g := len(chain.Units), len(handled); e != g {
					t.Fatalf("len(handled): expected %v, got %v", e, g)
				}

				for i, unit := range chain.Units {
					if e, g := unit.ID, handled[i].ID; e != g {
						t.Errorf("handled[%d]: expected %v, got %v", i, e, g)
					}
				}

				if e, g := 0, len(handler.Errors()); e != g {
					t.Errorf("len(handler.Errors()): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "StopsOnFailure",
			Handler: func() *recordingHandler {
				return &recordingHandler{
					done:   make(chan model.ChainID, 1),
					failOn: "-b",
				}
			},
			Run: func(t *testing.T, ctx context.Context, queue port.WorkQueue, handler *recordingHandler) error {
				chain := newTestChain(4)

				if err := queue.Enqueue(ctx, chain); err != nil {
					return errors.WithStack(err)
				}

				waitChain(t, handler.done)

				if e, g := 2, len(handler.Handled()); e != g {
					t.Errorf("len(handler.Handled()): expected %v, got %v", e, g)
				}

				if e, g := 1, len(handler.Errors()); e != g {
					t.Errorf("len(handler.Errors()): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "Cancel",
			Handler: func() *recordingHandler {
				return &recordingHandler{
					done:  make(chan model.ChainID, 1),
					block: make(chan struct{}),
				}
			},
			Run: func(t *testing.T, ctx context.Context, queue port.WorkQueue, handler *recordingHandler) error {
				chain := newTestChain(3)

				if err := queue.Enqueue(ctx, chain); err != nil {
					return errors.WithStack(err)
				}

				if err := queue.Cancel(ctx, chain.ID); err != nil {
					return errors.WithStack(err)
				}

				waitChain(t, handler.done)

				if len(handler.Handled()) > 1 {
					t.Errorf("expected at most one handled unit, got %d", len(handler.Handled()))
				}

				if e, g := 1, len(handler.Errors()); e != g {
					t.Fatalf("len(handler.Errors()): expected %v, got %v", e, g)
				}

				if err := queue.Cancel(ctx, chain.ID); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("expected ErrNotFound for finished chain, got %+v", err)
				}

				if err := queue.Cancel(ctx, model.NewChainID()); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("expected ErrNotFound for unknown chain, got %+v", err)
				}

				return nil
			},
		},
		{
			Name: "EmptyChain",
			Run: func(t *testing.T, ctx context.Context, queue port.WorkQueue, handler *recordingHandler) error {
				chain := newTestChain(0)

				if err := queue.Enqueue(ctx, chain); err != nil {
					return errors.WithStack(err)
				}

				waitChain(t, handler.done)

				if e, g := 0, len(handler.Errors()); e != g {
					t.Errorf("len(handler.Errors()): expected %v, got %v", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			queue, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			handler := &recordingHandler{done: make(chan model.ChainID, 1)}
			if tc.Handler != nil {
				handler = tc.Handler()
			}

			go func() {
				if err := queue.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
					t.Errorf("%+v", errors.WithStack(err))
				}
			}()

			if err := tc.Run(t, ctx, queue, handler); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
