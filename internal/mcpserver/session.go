package mcpserver

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/internal/testgrammar"
	"github.com/salvego/salve/tree"
)

// session holds the one document/grammar pair the server currently has
// loaded. A production host would key sessions by document ID; this
// reference server handles exactly one at a time, matching its role as a
// self-check and demo tool rather than a multi-tenant service.
type session struct {
	mu    sync.Mutex
	v     *engine.Validator
	root  tree.Element
	group singleflight.Group
}

var current = &session{}

func (s *session) load(grammarYAML, documentXML string) ([]string, error) {
	g, err := testgrammar.LoadYAML([]byte(grammarYAML))
	if err != nil {
		return nil, fmt.Errorf("loading grammar: %w", err)
	}
	node, err := engine.ParseFragment(documentXML)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	root, ok := node.(tree.Element)
	if !ok {
		return nil, fmt.Errorf("document root is not an element")
	}

	v, err := engine.New(g, root,
		engine.WithMaxTimespan(cfg.MaxTimespan),
		engine.WithWalkerCacheGap(cfg.WalkerCacheGap),
		engine.WithWalkerCacheMax(cfg.WalkerCacheMax),
	)
	if err != nil {
		return nil, fmt.Errorf("constructing validator: %w", err)
	}

	s.mu.Lock()
	s.v = v
	s.root = root
	s.mu.Unlock()

	v.Start()
	waitForTerminal(v)
	return g.Namespaces(), nil
}

// waitForTerminal blocks until the scheduler has driven the validator to a
// terminal state. The cooperative scheduler runs its cycles on goroutines
// spawned by its Deferrer, so the MCP handler (which needs a synchronous
// answer) just polls — acceptable for the small fixture documents this
// reference server is built to demonstrate, not for production scale.
func waitForTerminal(v *engine.Validator) {
	for {
		state, _ := v.WorkingState()
		if state.IsTerminal() {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *session) validator() (*engine.Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.v == nil {
		return nil, fmt.Errorf("no document loaded; call the load tool first")
	}
	return s.v, nil
}

// resolvePath resolves a "/"-separated list of child indices (relative to
// the loaded document's root) to an Element. An empty path means the root
// itself.
func (s *session) resolvePath(path string) (tree.Element, error) {
	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if root == nil {
		return nil, fmt.Errorf("no document loaded; call the load tool first")
	}
	if path == "" {
		return root, nil
	}
	cur := root
	for _, part := range strings.Split(path, "/") {
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", part, err)
		}
		children := cur.Children()
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("path segment %d out of range (container has %d children)", idx, len(children))
		}
		elem, ok := children[idx].(tree.Element)
		if !ok {
			return nil, fmt.Errorf("path segment %d is not an element", idx)
		}
		cur = elem
	}
	return cur, nil
}
