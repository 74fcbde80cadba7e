package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/datastax/go-cassandra-native-protocol/primitive"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/query"
	"github.com/redbco/redb-cql/pkg/schema"
)

// Insert writes one row from form values keyed by column name. Blank or
// absent uuid and timeuuid key columns are generated. Every value is checked,
// including map columns against their overlays, before anything executes.
// On success the first page is fetched again.
func (e *Engine) Insert(ctx context.Context, values map[string]string) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	base := e.view.base

	values, generated := fillGenerated(base, values)
	stmt, buildErr := query.BuildInsert(base, values)

	var overlayErrs adapter.ValidationErrors
	if e.overlays != nil {
		var err error
		if overlayErrs, err = e.overlays.ValidateRow(ctx, base, values); err != nil {
			return nil, err
		}
	}
	if err := mergeValidation(buildErr, overlayErrs); err != nil {
		return nil, err
	}

	if _, err := e.execute(ctx, stmt); err != nil {
		return nil, err
	}
	e.logger.Infof("Inserted row into %s", base.QualifiedName())
	return e.afterMutation(ctx, stmt, generated)
}

// Delete removes the row identified by the full primary key given as text.
func (e *Engine) Delete(ctx context.Context, keyValues map[string]string) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	stmt, err := query.BuildDelete(e.view.base, keyValues)
	if err != nil {
		return nil, err
	}
	return e.delete(ctx, stmt)
}

// DeleteRow removes a row as returned in Page.Rows.
func (e *Engine) DeleteRow(ctx context.Context, row adapter.Row) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	stmt, err := query.BuildDeleteRow(e.view.base, row)
	if err != nil {
		return nil, err
	}
	return e.delete(ctx, stmt)
}

func (e *Engine) delete(ctx context.Context, stmt *adapter.Statement) (*MutationResult, error) {
	if _, err := e.execute(ctx, stmt); err != nil {
		return nil, err
	}
	e.logger.Infof("Deleted row from %s", e.view.base.QualifiedName())
	return e.afterMutation(ctx, stmt, nil)
}

// afterMutation drops the page state, which may no longer be valid, and
// fetches the first page with the current filters. If that fetch fails the
// mutation still happened: the result is returned together with the error and
// the engine is left in SchemaLoaded.
func (e *Engine) afterMutation(ctx context.Context, stmt *adapter.Statement, generated map[string]string) (*MutationResult, error) {
	res := &MutationResult{Statement: stmt.String(), Generated: generated}

	reset := *e.view
	reset.page = nil
	reset.pageNum = 0
	reset.last = nil
	reset.rendered = nil

	v, err := e.fetch(ctx, &reset, reset.filters, reset.ack, query.FirstPage(e.pageSize), 1)
	if err != nil {
		e.view = &reset
		e.state = StateSchemaLoaded
		return res, fmt.Errorf("row written but the page could not be reloaded: %w", err)
	}
	e.view = v
	e.state = stateOf(v)
	res.Page = v.rendered
	return res, nil
}

// fillGenerated returns a copy of values with new identifiers for blank uuid
// and timeuuid primary key columns, and the generated values.
func fillGenerated(s *schema.TableSchema, values map[string]string) (map[string]string, map[string]string) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	var generated map[string]string
	for _, name := range s.PrimaryKey() {
		col := s.Column(name)
		if !cqltype.IsUUID(col.Type) || strings.TrimSpace(out[name]) != "" {
			continue
		}
		var id string
		if col.Type.GetDataTypeCode() == primitive.DataTypeCodeTimeuuid {
			id = gocql.TimeUUID().String()
		} else {
			id = uuid.NewString()
		}
		if generated == nil {
			generated = make(map[string]string)
		}
		out[name] = id
		generated[name] = id
	}
	return out, generated
}

// mergeValidation combines builder and overlay errors so a form can show
// every problem at once. Errors other than validation errors win.
func mergeValidation(buildErr error, extra adapter.ValidationErrors) error {
	var all adapter.ValidationErrors
	if buildErr != nil {
		var many adapter.ValidationErrors
		var one *adapter.ValidationError
		switch {
		case errors.As(buildErr, &many):
			all = append(all, many...)
		case errors.As(buildErr, &one):
			all = append(all, one)
		default:
			return buildErr
		}
	}
	all = append(all, extra...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Column < all[j].Column })
	return all.AsError()
}
