package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
)

const observerName = "floracare-transitions"

func init() {
	observability.RegisterObserver(observerName, graphObserver{})
}

var nodeStates = map[string]State{
	NodeAnalyze:    StateAnalyzing,
	NodeEnrich:     StateEnriching,
	NodeRetrieve:   StateRetrieving,
	NodeSynthesize: StateSynthesizing,
}

// graphObserver turns node start events into Transitions for the run
// carried by the event context.
type graphObserver struct{}

func (graphObserver) OnEvent(ctx context.Context, event observability.Event) {
	if event.Type != observability.EventNodeStart {
		return
	}

	r := runFrom(ctx)
	if r == nil {
		return
	}

	node, _ := event.Data["node"].(string)
	if to, ok := nodeStates[node]; ok {
		r.transition(ctx, to, nil)
	}
}

type runKey struct{}

func withRun(ctx context.Context, r *run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

func runFrom(ctx context.Context) *run {
	r, _ := ctx.Value(runKey{}).(*run)
	return r
}

type run struct {
	rt *Runtime

	mu    sync.Mutex
	state State
}

func (r *run) transition(ctx context.Context, to State, err error) {
	r.mu.Lock()
	t := Transition{From: r.state, To: to, Err: err, At: time.Now()}
	r.state = to
	r.mu.Unlock()

	if err != nil {
		r.rt.Logger.ErrorContext(ctx, "pipeline transition", "from", t.From, "to", t.To, "error", err)
	} else {
		r.rt.Logger.DebugContext(ctx, "pipeline transition", "from", t.From, "to", t.To)
	}

	if r.rt.Observer != nil {
		r.rt.Observer.OnTransition(ctx, t)
	}
}
