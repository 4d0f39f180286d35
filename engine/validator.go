// Package engine implements the incremental, pausable validation engine:
// the traversal state machine, walker cache, cooperative scheduler,
// reset/invalidation protocol, and query layer built on top of an opaque
// grammar.Grammar and an opaque tree.Element.
package engine

import (
	"github.com/salvego/salve/events"
	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/salveerr"
	"github.com/salvego/salve/tree"
)

// Validator is the public engine type: one instance validates one
// document element against one grammar (spec.md §6).
type Validator struct {
	cfg    *config
	grammar grammar.Grammar
	root   tree.Element

	annotations *annotationStore
	cache       *walkerCache
	emitter     *events.Emitter
	scheduler   *scheduler

	traversal *traversal
	errors    []ErrorRecord
	state     State
}

// New constructs a Validator that will traverse root against g once
// started. root must be the document element the grammar's top-level
// pattern describes.
func New(g grammar.Grammar, root tree.Element, opts ...Option) (*Validator, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, &salveerr.ConfigError{Option: "grammar", Message: "must not be nil"}
	}
	if root == nil {
		return nil, &salveerr.ConfigError{Option: "root", Message: "must not be nil"}
	}
	v := &Validator{
		cfg:         cfg,
		grammar:     g,
		root:        root,
		annotations: newAnnotationStore(cfg.prefix),
		cache:       newWalkerCache(cfg.walkerCacheGap, cfg.walkerCacheMax),
		emitter:     events.NewEmitter(),
		state:       Incomplete,
	}
	v.cache.setLogger(cfg.logger)
	v.traversal = newTraversal(g.NewWalker(), root, 0, v.liveSink(), v.cache)
	v.scheduler = newScheduler(cfg.maxTimespan, GoDeferrer, v.cycleStep, v.onCycleDone)
	return v, nil
}

// liveSink returns a sink that records errors/annotations into this
// Validator's own state and emits observer events, i.e. the sink a live
// (mutating) traversal uses. Query replays use a nil/no-op sink instead.
func (v *Validator) liveSink() sink {
	return &validatorSink{v: v}
}

type validatorSink struct{ v *Validator }

func (s *validatorSink) onError(rec ErrorRecord) {
	v := s.v
	v.errors = append(v.errors, rec)
	if rec.Node != nil {
		if _, had := v.annotations.get(rec.Node, ErrorID); !had {
			v.annotations.set(rec.Node, ErrorID, len(v.errors))
		}
	}
	v.cfg.logger.Debug("validation error", "index", int64(rec.Index), "err", rec.Err)
	v.emitter.Emit(events.Error, rec)
}

func (s *validatorSink) onAnnotate(n tree.Node, key AnnotationKey, value any, eventIndex EventIndex) {
	v := s.v
	if key == PossibleDueToWildcard {
		prev, had := v.annotations.get(n, key)
		v.annotations.set(n, key, value)
		if !had || prev != value {
			v.emitter.Emit(events.PossibleDueToWildcardChange, WildcardChangePayload{Node: n, Value: value.(bool)})
		}
		return
	}
	v.annotations.set(n, key, value)
}

func (s *validatorSink) onCacheCheckpoint(tree.Node, phase, EventIndex, grammar.Walker) {
	// The cache itself is already updated by walkerCache.insertIfDue, which
	// the traversal calls just before this hook; this
	// hook exists for loggers/observers layered on top in the future.
}

// WildcardChangePayload is the payload emitted on events.PossibleDueToWildcardChange.
type WildcardChangePayload struct {
	Node  tree.Node
	Value bool
}

// cycleStep is the scheduler's per-step callback: advance the traversal
// by one unit of work. onCycleDone resolves the terminal state once the
// traversal has finished.
func (v *Validator) cycleStep() (bool, error) {
	finished, err := v.traversal.step()
	if err != nil {
		v.cfg.logger.Error("traversal fatal", "err", err)
		return true, err
	}
	return finished, nil
}

func (v *Validator) onCycleDone() {
	if v.traversal.finished {
		v.resolveTerminalState()
	}
	v.emitter.Emit(events.StateUpdate, v.WorkingStateValue())
}

func (v *Validator) resolveTerminalState() {
	endErrs := v.traversal.walker.End()
	s := v.liveSink()
	for _, e := range endErrs {
		s.onError(ErrorRecord{Err: e, Node: v.root, Index: 0, streamIndex: v.traversal.eventIndex})
	}
	if len(v.errors) > 0 {
		v.state = Invalid
	} else {
		v.state = Valid
	}
	v.cfg.logger.Debug("cycle done", "state", v.state.String())
}

// Start begins (or resumes) the cooperative scheduler.
func (v *Validator) Start() {
	if v.state == Incomplete {
		v.state = Working
	}
	v.cfg.logger.Debug("cycle start")
	v.scheduler.start()
}

// Stop pauses the scheduler after its current cycle returns. A state that
// is not yet terminal becomes Incomplete.
func (v *Validator) Stop() {
	v.cfg.logger.Debug("cycle stop")
	v.scheduler.stop()
	if v.state == Working {
		v.state = Incomplete
	}
}

// WorkingState reports the engine's terminal/non-terminal state and an
// estimate of completion fraction based on events fired so far relative
// to the document's total node count (spec.md §3's partDone).
func (v *Validator) WorkingState() (State, float64) {
	ws := v.WorkingStateValue()
	return ws.State, ws.PartDone
}

// WorkingStateValue is WorkingState as a single value, used for the
// state-update observer payload.
func (v *Validator) WorkingStateValue() WorkingState {
	state := v.state
	if v.scheduler.Err() != nil {
		state = Invalid
	}
	return WorkingState{State: state, PartDone: v.partDone()}
}

func (v *Validator) partDone() float64 {
	if v.state.IsTerminal() {
		return 1.0
	}
	total := countNodes(v.root)
	if total == 0 {
		return 1.0
	}
	done := float64(v.traversal.eventIndex) / float64(total*3)
	if done > 0.999 {
		done = 0.999
	}
	return done
}

func countNodes(n tree.Node) int {
	count := 1
	if elem, ok := n.(tree.Element); ok {
		for _, c := range elem.Children() {
			count += countNodes(c)
		}
	}
	return count
}

// Errors returns every validation error recorded so far, in discovery order.
func (v *Validator) Errors() []ErrorRecord {
	out := make([]ErrorRecord, len(v.errors))
	copy(out, v.errors)
	return out
}

// ErrorsFor returns the errors owned by n specifically.
func (v *Validator) ErrorsFor(n tree.Node) []ErrorRecord {
	var out []ErrorRecord
	for _, rec := range v.errors {
		if tree.SameNode(rec.Node, n) {
			out = append(out, rec)
		}
	}
	return out
}

// SchemaNamespaces returns every namespace URI known to the grammar.
func (v *Validator) SchemaNamespaces() []string {
	return v.grammar.Namespaces()
}

// DocumentNamespaces returns every namespace URI declared in the document,
// keyed by the prefix it is bound to at its point of declaration (a prefix
// may map to more than one URI if rebound at different scopes).
func (v *Validator) DocumentNamespaces() map[string][]string {
	out := make(map[string][]string)
	var walk func(tree.Element)
	walk = func(elem tree.Element) {
		for _, a := range elem.Attributes() {
			if !a.IsNamespaceDecl() {
				continue
			}
			out[a.DeclaredPrefix()] = append(out[a.DeclaredPrefix()], a.Value())
		}
		for _, c := range elem.Children() {
			if child, ok := c.(tree.Element); ok {
				walk(child)
			}
		}
	}
	walk(v.root)
	return out
}

// GetNodeProperty reads an annotation the engine has stamped on n.
func (v *Validator) GetNodeProperty(n tree.Node, key AnnotationKey) (any, bool) {
	return v.annotations.get(n, key)
}

// SchedulerErr returns the fatal error, if any, that stopped the
// cooperative scheduler (for example a reentrancy violation).
func (v *Validator) SchedulerErr() error {
	return v.scheduler.Err()
}

// On subscribes fn to events named name, returning a Cancel.
func (v *Validator) On(name events.Name, fn events.Listener) events.Cancel {
	return v.emitter.On(name, fn)
}
