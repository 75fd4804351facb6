// Package editor models the inline translation editor: a state machine that
// turns elements of a parsed page into editable regions, keeps one edit
// session at a time and persists committed edits through a Persister.
package editor

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/livelang"
)

// State is the editor lifecycle state.
type State int

const (
	Idle State = iota
	Browsing
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// DefaultIgnore matches the editor's own UI, which is never editable.
const DefaultIgnore = "#livelang-toggle, #livelang-language-switcher, [data-no-translate]"

// suppressedEvents are the native events swallowed on suppressed elements.
var suppressedEvents = map[string]bool{
	"click":     true,
	"submit":    true,
	"mousedown": true,
	"mouseup":   true,
	"dblclick":  true,
	"change":    true,
}

// Change is one entry of the undo history. Original is the source text the
// target had when the page was served; Previous is what it showed before the
// edit.
type Change struct {
	Target   *html.Node
	Attr     string // "value" or "placeholder" for inputs, empty for text content
	Original string
	Previous string
	Next     string

	lead, trail string // whitespace around the edited text node
}

// Result reports the outcome of an asynchronous persist call.
type Result struct {
	Change Change
	Err    error
}

// Key is a key press delivered to the element being edited.
type Key struct {
	Name  string // "Enter", " ", or any other key name
	Shift bool
}

// session is the single live edit.
type session struct {
	target *html.Node // element receiving keystrokes; the overlay for inputs
	source *html.Node // the hidden input behind an overlay
	attr   string     // attribute of source being edited
	guard  *html.Node // enclosing link or button suppressed during the edit
	before string     // normalized text when the session opened
	lead   string
	trail  string
}

// saveKey identifies the stored row a save writes.
type saveKey struct {
	original string
	slug     string
	language string
	global   bool
}

// saveQueue chains the saves of one row so they reach the store in commit
// order.
type saveQueue struct {
	tail chan struct{} // closed once the newest queued save has finished
}

// suppression records what was changed on an element whose native events
// are swallowed, so it can be restored exactly.
type suppression struct {
	hidden   bool
	style    string
	hadStyle bool
	refs     int
}

// Editor is the inline editor bound to one parsed page.
type Editor struct {
	mu sync.Mutex

	doc       *goquery.Document
	page      livelang.Page
	global    bool
	persister Persister
	ignore    string
	timeout   time.Duration
	notify    func(Result)
	logger    *slog.Logger

	enabled    bool
	session    *session
	hovered    *html.Node
	suppressed map[*html.Node]*suppression
	baselines  map[*html.Node]struct{}
	undo       []Change
	redo       []Change
	queues     map[saveKey]*saveQueue

	pending atomic.Int32
	wg      sync.WaitGroup
}

// Option configures an Editor.
type Option func(*Editor)

// WithIgnore replaces the selector of regions the editor never touches.
func WithIgnore(selector string) Option {
	return func(e *Editor) {
		e.ignore = selector
	}
}

// WithNotifier sets the callback receiving persist results. It runs on the
// persisting goroutine.
func WithNotifier(fn func(Result)) Option {
	return func(e *Editor) {
		e.notify = fn
	}
}

// WithSaveTimeout bounds each persist call.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New parses a page and returns an idle editor for it.
func New(r io.Reader, page livelang.Page, p Persister, opts ...Option) (*Editor, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &livelang.ProcessorError{Message: "failed to parse page", Cause: err, ContentType: "html"}
	}
	return NewFromDocument(doc, page, p, opts...), nil
}

// NewFromDocument returns an idle editor over an already parsed page.
func NewFromDocument(doc *goquery.Document, page livelang.Page, p Persister, opts ...Option) *Editor {
	e := &Editor{
		doc:        doc,
		page:       page,
		persister:  p,
		ignore:     DefaultIgnore,
		timeout:    30 * time.Second,
		logger:     slog.Default(),
		suppressed: make(map[*html.Node]*suppression),
		baselines:  make(map[*html.Node]struct{}),
		queues:     make(map[saveKey]*saveQueue),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document returns the page being edited.
func (e *Editor) Document() *goquery.Document {
	return e.doc
}

// HTML serializes the current page.
func (e *Editor) HTML() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Html()
}

// SetLanguage switches the language that later saves are recorded under.
func (e *Editor) SetLanguage(code string) {
	e.mu.Lock()
	e.page.Language = code
	e.mu.Unlock()
}

// SetGlobal marks later saves as applying to every page.
func (e *Editor) SetGlobal(global bool) {
	e.mu.Lock()
	e.global = global
	e.mu.Unlock()
}

// State returns the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.session != nil:
		return Editing
	case e.pending.Load() > 0:
		return Saving
	case e.enabled:
		return Browsing
	}
	return Idle
}

// Enabled reports whether edit mode is on.
func (e *Editor) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Enable turns edit mode on without selecting a target.
func (e *Editor) Enable() {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
}

// Disable closes the live edit, committing it when it changed, restores every
// suppressed element and drops all edit bookkeeping from the page.
func (e *Editor) Disable(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return
	}

	e.closeSession(ctx)
	e.enabled = false

	if e.hovered != nil {
		removeClass(e.hovered, HoverClass)
		e.hovered = nil
	}
	for n := range e.suppressed {
		e.release(n, true)
	}
	for n := range e.baselines {
		removeAttr(n, BaselineAttr)
	}
	clear(e.baselines)
}

// Toggle flips edit mode and returns the new mode.
func (e *Editor) Toggle(ctx context.Context) bool {
	if e.Enabled() {
		e.Disable(ctx)
		return false
	}
	e.Enable()
	return true
}

// Hover highlights n when it could become an edit target.
func (e *Editor) Hover(n *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return
	}

	n = elementOf(n)
	if isRoot(n) || e.ignored(n) || (e.session != nil && n == e.session.target) {
		return
	}

	eligible := (!hasElementChildren(n) && hasText(n)) ||
		isButtonInput(n) || (n.DataAtom == atom.Input && hasPlaceholder(n))
	if !eligible {
		return
	}

	if e.hovered != nil {
		removeClass(e.hovered, HoverClass)
	}
	addClass(n, HoverClass)
	e.hovered = n
}

// Leave removes the highlight from n.
func (e *Editor) Leave(n *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n = elementOf(n)
	if n == nil {
		return
	}
	removeClass(n, HoverClass)
	if e.hovered == n {
		e.hovered = nil
	}
}

// Click resolves n to an edit target and opens a session on it. The previous
// session is committed or discarded first. It returns the element that now
// receives input, or nil when the click selected nothing.
func (e *Editor) Click(ctx context.Context, n *html.Node) *html.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return nil
	}

	n = elementOf(n)
	if isRoot(n) || e.ignored(n) {
		return nil
	}
	if e.session != nil && n == e.session.target {
		return n
	}

	switch {
	case isButtonInput(n):
		e.closeSession(ctx)
		return e.openOverlay(n, "value")
	case hasPlaceholder(n):
		e.closeSession(ctx)
		return e.openOverlay(n, "placeholder")
	case !hasText(n):
		return nil
	}

	e.closeSession(ctx)

	if !hasElementChildren(n) {
		return e.open(n)
	}
	if wrappers := wrapBareText(n); len(wrappers) > 0 {
		return e.open(wrappers[0])
	}
	return e.open(firstTextLeaf(n))
}

// Current returns the element receiving input, or nil.
func (e *Editor) Current() *html.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return e.session.target
}

// Input replaces the draft text of the live edit.
func (e *Editor) Input(text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return false
	}
	if e.session.source != nil {
		setAttr(e.session.target, "value", text)
	} else {
		setEditableText(e.session.target, text)
	}
	return true
}

// KeyDown handles a key press on the live edit. Enter commits and closes the
// session; Shift+Enter inserts a newline; Space on a link or button inserts a
// space instead of activating it. It reports whether the key was consumed.
func (e *Editor) KeyDown(ctx context.Context, k Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil {
		return false
	}

	switch {
	case k.Name == "Enter" && !k.Shift:
		e.closeSession(ctx)
		return true
	case k.Name == "Enter":
		e.insert(s, "\n")
		return true
	case (k.Name == " " || k.Name == "Spacebar") && isGuard(s.target):
		e.insert(s, " ")
		return true
	}
	return false
}

// Commit saves the live edit and closes it. It returns the recorded change
// and false when nothing was saved.
func (e *Editor) Commit(ctx context.Context) (Change, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeSession(ctx)
}

// Cancel closes the live edit without saving, restoring its baseline text.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.session; s != nil {
		if s.source == nil {
			setEditableText(s.target, s.lead+s.before+s.trail)
		}
		e.teardown(s)
	}
}

// Undo reverts the most recent change in the page only.
func (e *Editor) Undo() (Change, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undo) == 0 {
		return Change{}, false
	}
	c := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, c)
	apply(c.Target, c.Attr, c.lead+c.Previous+c.trail)
	return c, true
}

// Redo re-applies the most recently undone change in the page only.
func (e *Editor) Redo() (Change, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.redo) == 0 {
		return Change{}, false
	}
	c := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, c)
	apply(c.Target, c.Attr, c.lead+c.Next+c.trail)
	return c, true
}

// History returns the sizes of the undo and redo stacks.
func (e *Editor) History() (undo, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo), len(e.redo)
}

// Dispatch reports whether a native event of the given type on n would reach
// the page's own handlers.
func (e *Editor) Dispatch(n *html.Node, event string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if suppressedEvents[event] {
		for p := n; p != nil; p = p.Parent {
			if _, ok := e.suppressed[p]; ok {
				return false
			}
		}
	}
	if e.enabled && event == "click" && !e.ignored(elementOf(n)) {
		if closest(n, func(x *html.Node) bool { return x.DataAtom == atom.A || isSubmit(x) }) != nil {
			return false
		}
	}
	return true
}

// Suppressed reports how many elements currently have native events swallowed.
func (e *Editor) Suppressed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.suppressed)
}

// Wait blocks until every persist call has finished.
func (e *Editor) Wait() {
	e.wg.Wait()
}

func (e *Editor) open(n *html.Node) *html.Node {
	before := editableText(n)
	e.setBaseline(n, before)

	s := &session{target: n, before: before}
	s.lead, s.trail = padding(rawEditableText(n))
	if isGuard(n) {
		s.guard = n
	} else {
		s.guard = closest(n.Parent, isGuard)
	}
	if s.guard != nil {
		e.suppress(s.guard, false)
	}

	setAttr(n, editableAttr, "true")
	addClass(n, ActiveClass)
	e.session = s
	return n
}

func (e *Editor) openOverlay(input *html.Node, attr string) *html.Node {
	current := attrOr(input, attr, "")
	before := livelang.NormalizeText(current)
	overlay := &html.Node{
		Type:     html.ElementNode,
		Data:     "input",
		DataAtom: atom.Input,
		Attr: []html.Attribute{
			{Key: "type", Val: "text"},
			{Key: "class", Val: OverlayClass + " " + ActiveClass},
			{Key: "value", Val: current},
		},
	}
	input.Parent.InsertBefore(overlay, input.NextSibling)
	e.setBaseline(overlay, attrOr(input, BaselineAttr, before))
	e.suppress(input, true)

	e.session = &session{target: overlay, source: input, attr: attr, before: before}
	return overlay
}

// closeSession ends the live edit, saving it when the draft is non-empty and
// differs from both the baseline and the text the session opened with. An
// empty draft, or one equal to the baseline, is reverted to the opening text.
func (e *Editor) closeSession(ctx context.Context) (Change, bool) {
	s := e.session
	if s == nil {
		return Change{}, false
	}

	original, _ := getAttr(s.target, BaselineAttr)
	var draft string
	if s.source != nil {
		draft = livelang.NormalizeText(attrOr(s.target, "value", ""))
	} else {
		draft = editableText(s.target)
	}

	e.teardown(s)

	if original == "" || draft == "" || draft == original || draft == s.before {
		if s.source == nil && draft != s.before {
			setEditableText(s.target, s.lead+s.before+s.trail)
		}
		return Change{}, false
	}

	c := Change{Target: s.target, Attr: s.attr, Original: original, Previous: s.before, Next: draft, lead: s.lead, trail: s.trail}
	if s.source != nil {
		c.Target = s.source
		e.setBaseline(s.source, original)
	}
	e.undo = append(e.undo, c)
	e.redo = nil
	apply(c.Target, c.Attr, c.lead+c.Next+c.trail)

	e.persist(ctx, c)
	return c, true
}

// teardown undoes everything open or openOverlay did to the page.
func (e *Editor) teardown(s *session) {
	if s.source != nil {
		if s.target.Parent != nil {
			s.target.Parent.RemoveChild(s.target)
		}
		e.forgetBaseline(s.target)
		e.release(s.source, false)
	} else {
		removeAttr(s.target, editableAttr)
		removeClass(s.target, ActiveClass)
		if s.guard != nil {
			e.release(s.guard, false)
		}
	}
	e.session = nil
}

func (e *Editor) persist(ctx context.Context, c Change) {
	req := livelang.SaveRequest{
		Original:   c.Original,
		Translated: c.Next,
		Slug:       e.page.Slug,
		Language:   e.page.Language,
		IsGlobal:   e.global,
	}
	if e.persister == nil {
		return
	}

	// Every save of one row carries the same original. They go out one at a
	// time in commit order so the last edit is the one left in the store.
	key := saveKey{original: req.Original, slug: req.Slug, language: req.Language, global: req.IsGlobal}
	q := e.queues[key]
	if q == nil {
		q = &saveQueue{}
		e.queues[key] = q
	}
	prev, done := q.tail, make(chan struct{})
	q.tail = done

	e.pending.Add(1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(done)

		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		err := e.persister.Persist(ctx, req)
		cancel()

		e.mu.Lock()
		if q.tail == done {
			delete(e.queues, key)
		}
		e.mu.Unlock()
		e.pending.Add(-1)

		if err != nil {
			e.logger.Warn("saving translation failed", "original", req.Original, "slug", req.Slug, "error", err)
		} else {
			e.logger.Info("translation saved", "original", req.Original, "slug", req.Slug, "language", req.Language)
		}
		if e.notify != nil {
			e.notify(Result{Change: c, Err: err})
		}
	}()
}

func (e *Editor) insert(s *session, text string) {
	if s.source != nil {
		setAttr(s.target, "value", attrOr(s.target, "value", "")+text)
		return
	}
	appendText(s.target, text)
}

func (e *Editor) setBaseline(n *html.Node, text string) {
	if _, ok := getAttr(n, BaselineAttr); ok {
		return
	}
	setAttr(n, BaselineAttr, text)
	e.baselines[n] = struct{}{}
}

func (e *Editor) forgetBaseline(n *html.Node) {
	removeAttr(n, BaselineAttr)
	delete(e.baselines, n)
}

// suppress swallows native events on n, hiding it when asked.
func (e *Editor) suppress(n *html.Node, hide bool) {
	st, ok := e.suppressed[n]
	if !ok {
		st = &suppression{}
		st.style, st.hadStyle = getAttr(n, "style")
		e.suppressed[n] = st
	}
	st.refs++
	if hide && !st.hidden {
		st.hidden = true
		style := strings.TrimSpace(st.style)
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		setAttr(n, "style", strings.TrimSpace(style+" display: none;"))
	}
}

// release lifts one suppression of n, or all of them when force is set.
func (e *Editor) release(n *html.Node, force bool) {
	st, ok := e.suppressed[n]
	if !ok {
		return
	}
	st.refs--
	if st.refs > 0 && !force {
		return
	}
	if st.hidden {
		if st.hadStyle {
			setAttr(n, "style", st.style)
		} else {
			removeAttr(n, "style")
		}
	}
	delete(e.suppressed, n)
}

// ignored reports whether n lies inside a region the editor never touches.
func (e *Editor) ignored(n *html.Node) bool {
	if n == nil || e.ignore == "" {
		return false
	}
	return e.doc.FindNodes(n).Closest(e.ignore).Length() > 0
}

// apply writes text to the target of a change.
func apply(n *html.Node, attr, text string) {
	if attr != "" {
		setAttr(n, attr, text)
		return
	}
	setEditableText(n, text)
}

func elementOf(n *html.Node) *html.Node {
	if n != nil && n.Type == html.TextNode {
		return n.Parent
	}
	return n
}
