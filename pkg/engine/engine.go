// Package engine orchestrates schema discovery, validation, statement building
// and rendering for one active table. It is the only package the presentation
// layer calls.
//
// Operations are serialized. A failed operation leaves the engine exactly as it
// was: validation errors never reach the session, and session errors are
// returned without retry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/logger"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/query"
	"github.com/redbco/redb-cql/pkg/render"
	"github.com/redbco/redb-cql/pkg/schema"
)

// ErrDisconnected is returned by every operation after Disconnect.
var ErrDisconnected = errors.New("not connected")

// ErrNoOverlayStore is returned by overlay operations when no store is set.
var ErrNoOverlayStore = errors.New("no overlay store configured")

// State is the engine's position in the table workflow.
type State int

const (
	// StateDisconnected has no session.
	StateDisconnected State = iota
	// StateConnected has a session but no table selected.
	StateConnected
	// StateSchemaLoaded has a table selected and nothing fetched.
	StateSchemaLoaded
	// StateBrowsing shows the first page of an unfiltered table.
	StateBrowsing
	// StateFiltering shows the first page of a filtered table.
	StateFiltering
	// StatePaginating shows a later page.
	StatePaginating
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateSchemaLoaded:
		return "schema-loaded"
	case StateBrowsing:
		return "browsing"
	case StateFiltering:
		return "filtering"
	case StatePaginating:
		return "paginating"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ColumnPreferences stores local column annotations per qualified table.
type ColumnPreferences interface {
	HiddenColumns(table string) []string
	SetColumnHidden(table, column string, hidden bool) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverlays enables map column overlays.
func WithOverlays(m *overlay.Manager) Option {
	return func(e *Engine) { e.overlays = m }
}

// WithPreferences persists hidden columns.
func WithPreferences(p ColumnPreferences) Option {
	return func(e *Engine) { e.prefs = p }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRegistry shares an existing schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithPageSize sets the initial page size. It is clamped to query.PageSizes.
func WithPageSize(n int) Option {
	return func(e *Engine) { e.pageSize = query.ClampPageSize(n) }
}

// WithExtendedLimit sets how many rows the extended view shows.
func WithExtendedLimit(n int) Option {
	return func(e *Engine) { e.extendedLimit = n }
}

// Engine is the CRUD workflow over one session.
type Engine struct {
	session       adapter.Session
	registry      *schema.Registry
	overlays      *overlay.Manager
	prefs         ColumnPreferences
	logger        *logger.Logger
	extendedLimit int

	mu    sync.Mutex
	state State
	view  *view
	// hidden holds annotations when no ColumnPreferences is configured
	hidden   map[string]map[string]bool
	pageSize int
}

// view is everything tied to the selected table. It is replaced, never
// modified, so a failed operation can simply keep the previous one.
type view struct {
	base     *schema.TableSchema
	table    *schema.TableSchema
	filters  []query.Filter
	ack      bool
	page     *query.PageState
	pageNum  int
	last     *adapter.ResultSet
	rendered *Page
}

// New creates an engine over an open session.
func New(session adapter.Session, opts ...Option) *Engine {
	e := &Engine{
		session:       session,
		state:         StateConnected,
		hidden:        make(map[string]map[string]bool),
		pageSize:      query.DefaultPageSize,
		extendedLimit: render.DefaultExtendedLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.NewNop()
	}
	if e.registry == nil {
		e.registry = schema.NewRegistry(session, e.logger)
	}
	return e
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Table returns the selected table's schema with hidden flags applied, or nil.
func (e *Engine) Table() *schema.TableSchema {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return nil
	}
	return e.view.table
}

// CurrentPage returns the last fetched page, or nil.
func (e *Engine) CurrentPage() *Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return nil
	}
	return e.view.rendered
}

// PageSize returns the page size used for the next fetch.
func (e *Engine) PageSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

func (e *Engine) connected() error {
	if e.state == StateDisconnected {
		return ErrDisconnected
	}
	return nil
}

func (e *Engine) selected() error {
	if err := e.connected(); err != nil {
		return err
	}
	if e.view == nil {
		return adapter.ErrNoTableSelected
	}
	return nil
}

// Keyspaces lists user keyspaces.
func (e *Engine) Keyspaces(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}
	return e.registry.ListKeyspaces(ctx)
}

// Tables lists the tables of keyspace.
func (e *Engine) Tables(ctx context.Context, keyspace string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}
	return e.registry.ListTables(ctx, keyspace)
}

// SelectTable loads the schema of keyspace.table and makes it the active
// table. Nothing is fetched until Browse.
func (e *Engine) SelectTable(ctx context.Context, keyspace, table string) (*TableView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}

	base, err := e.registry.GetSchema(ctx, keyspace, table)
	if err != nil {
		return nil, err
	}
	v := &view{base: base, table: base.WithHidden(e.hiddenColumns(base.QualifiedName()))}
	tv, err := e.tableView(ctx, v.table)
	if err != nil {
		return nil, err
	}

	e.view = v
	e.state = StateSchemaLoaded
	e.logger.Infof("Selected table %s", base.QualifiedName())
	return tv, nil
}

// Describe returns the active table's view.
func (e *Engine) Describe(ctx context.Context) (*TableView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	return e.tableView(ctx, e.view.table)
}

// Refresh reloads the active table's schema and overlays and returns to
// SchemaLoaded. Without an active table it drops every cached schema.
func (e *Engine) Refresh(ctx context.Context) (*TableView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}
	if e.view == nil {
		e.registry.Clear()
		return nil, nil
	}

	ks, name := e.view.base.Keyspace, e.view.base.Table
	e.registry.Refresh(ks, name)
	e.registry.RefreshKeyspaces()
	if e.overlays != nil {
		e.overlays.Invalidate(e.view.base.QualifiedName())
	}

	base, err := e.registry.GetSchema(ctx, ks, name)
	if err != nil {
		return nil, err
	}
	v := &view{base: base, table: base.WithHidden(e.hiddenColumns(base.QualifiedName()))}
	tv, err := e.tableView(ctx, v.table)
	if err != nil {
		return nil, err
	}
	e.view = v
	e.state = StateSchemaLoaded
	return tv, nil
}

// Disconnect drops all cached state and closes the session when it holds
// resources. The engine cannot be used afterwards.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisconnected {
		return nil
	}
	e.registry.Clear()
	e.view = nil
	e.state = StateDisconnected

	if c, ok := e.session.(adapter.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}
	}
	e.logger.Info("Disconnected")
	return nil
}

// SetColumnHidden marks a column of the active table hidden or visible in
// grid views.
func (e *Engine) SetColumnHidden(column string, hidden bool) (*schema.TableSchema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	if e.view.base.Column(column) == nil {
		return nil, adapter.NewValidationError(column, "unknown column")
	}

	qualified := e.view.base.QualifiedName()
	if e.prefs != nil {
		if err := e.prefs.SetColumnHidden(qualified, column, hidden); err != nil {
			return nil, err
		}
	} else {
		if e.hidden[qualified] == nil {
			e.hidden[qualified] = make(map[string]bool)
		}
		e.hidden[qualified][column] = hidden
	}

	v := *e.view
	v.table = v.base.WithHidden(e.hiddenColumns(qualified))
	if v.rendered != nil {
		v.rendered = e.renderPage(&v, v.last)
	}
	e.view = &v
	return v.table, nil
}

func (e *Engine) hiddenColumns(table string) []string {
	if e.prefs != nil {
		return e.prefs.HiddenColumns(table)
	}
	var out []string
	for column, hidden := range e.hidden[table] {
		if hidden {
			out = append(out, column)
		}
	}
	return out
}

// DefineOverlay declares the shape of a map column of the active table.
func (e *Engine) DefineOverlay(ctx context.Context, o *overlay.Overlay) (*overlay.Overlay, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	if e.overlays == nil {
		return nil, ErrNoOverlayStore
	}
	return e.overlays.Define(ctx, e.view.base, o)
}

// RemoveOverlay deletes the overlay of a column of the active table.
func (e *Engine) RemoveOverlay(ctx context.Context, column string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return err
	}
	if e.overlays == nil {
		return ErrNoOverlayStore
	}
	return e.overlays.Remove(ctx, e.view.base.QualifiedName(), column)
}

// Overlays lists the overlays of the active table.
func (e *Engine) Overlays(ctx context.Context) ([]*overlay.Overlay, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	if e.overlays == nil {
		return nil, nil
	}
	return e.overlays.List(ctx, e.view.base.QualifiedName())
}

func (e *Engine) tableOverlays(ctx context.Context, s *schema.TableSchema) (map[string]*overlay.Overlay, error) {
	if e.overlays == nil {
		return nil, nil
	}
	return e.overlays.ForTable(ctx, s.QualifiedName())
}

// execute runs stmt, wrapping failures as ExecutionError.
func (e *Engine) execute(ctx context.Context, stmt *adapter.Statement) (*adapter.ResultSet, error) {
	e.logger.Debugf("Executing %s", stmt)
	rs, err := e.session.Execute(ctx, stmt)
	if err != nil {
		e.logger.Warnf("Statement failed: %v", err)
		return nil, adapter.WrapExecutionError(stmt.String(), err)
	}
	if rs == nil {
		rs = &adapter.ResultSet{}
	}
	return rs, nil
}
