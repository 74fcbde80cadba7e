package overlay

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/logger"
	"github.com/redbco/redb-cql/pkg/schema"
)

// Manager is a read-through cache over a Store. A table's overlays are loaded
// together on first use and replaced entry by entry on Define and Remove.
type Manager struct {
	store  Store
	logger *logger.Logger

	mu     sync.RWMutex
	tables map[string]map[string]*Overlay
}

// NewManager creates a manager over store.
func NewManager(store Store, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		store:  store,
		logger: log,
		tables: make(map[string]map[string]*Overlay),
	}
}

// ForTable returns the overlays of table ("keyspace.table") keyed by column.
// The returned map must not be modified.
func (m *Manager) ForTable(ctx context.Context, table string) (map[string]*Overlay, error) {
	m.mu.RLock()
	cached, ok := m.tables[table]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	list, err := m.store.List(ctx, table)
	if err != nil {
		return nil, err
	}
	byColumn := make(map[string]*Overlay, len(list))
	for _, o := range list {
		byColumn[o.Column] = o
	}

	m.mu.Lock()
	m.tables[table] = byColumn
	m.mu.Unlock()

	m.logger.Debugf("Loaded %d overlays for %s", len(byColumn), table)
	return byColumn, nil
}

// GetOverlay returns the overlay of one column, or nil when none is defined.
func (m *Manager) GetOverlay(ctx context.Context, table, column string) (*Overlay, error) {
	overlays, err := m.ForTable(ctx, table)
	if err != nil {
		return nil, err
	}
	return overlays[column], nil
}

// List returns the overlays of table sorted by column.
func (m *Manager) List(ctx context.Context, table string) ([]*Overlay, error) {
	overlays, err := m.ForTable(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]*Overlay, 0, len(overlays))
	for _, o := range overlays {
		out = append(out, o)
	}
	sortByColumn(out)
	return out, nil
}

// Define validates o against the column it names in s, saves it and returns
// the stored form. Keys and types are normalized to their canonical text.
func (m *Manager) Define(ctx context.Context, s *schema.TableSchema, o *Overlay) (*Overlay, error) {
	o = o.Clone()
	if err := checkDefinition(s, o); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, o); err != nil {
		return nil, err
	}
	m.replace(o.Table, o.Column, o)

	m.logger.WithFields(map[string]string{
		"table":  o.Table,
		"column": o.Column,
		"keys":   strings.Join(o.Keys(), ","),
	}).Info("Defined map overlay")
	return o, nil
}

// Remove deletes the overlay of one column. Removing a missing overlay is not
// an error.
func (m *Manager) Remove(ctx context.Context, table, column string) error {
	if err := m.store.Delete(ctx, table, column); err != nil {
		return err
	}
	m.replace(table, column, nil)
	m.logger.Infof("Removed map overlay %s.%s", table, column)
	return nil
}

// Invalidate drops the cached overlays of table.
func (m *Manager) Invalidate(table string) {
	m.mu.Lock()
	delete(m.tables, table)
	m.mu.Unlock()
}

// ValidateRow checks every non-empty map value in values against its
// column's overlay.
func (m *Manager) ValidateRow(ctx context.Context, s *schema.TableSchema, values map[string]string) (adapter.ValidationErrors, error) {
	overlays, err := m.ForTable(ctx, s.QualifiedName())
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(overlays))
	for column := range overlays {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var errs adapter.ValidationErrors
	for _, column := range columns {
		col := s.Column(column)
		raw, ok := values[column]
		if col == nil || !ok {
			continue
		}
		errs = append(errs, ValidateInput(overlays[column], col, raw)...)
	}
	return errs, nil
}

// replace swaps one cache entry. The table map is copied so readers holding
// the previous map are unaffected.
func (m *Manager) replace(table, column string, o *Overlay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tables[table]
	if !ok {
		return
	}
	next := make(map[string]*Overlay, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	if o == nil {
		delete(next, column)
	} else {
		next[column] = o
	}
	m.tables[table] = next
}
