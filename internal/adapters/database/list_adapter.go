package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// RowScanner is the part of *sql.Rows a row mapper needs
type RowScanner interface {
	Scan(dest ...any) error
}

// ListDefinition maps a list's filters onto one table
type ListDefinition[T any] struct {
	ListID string
	Table  string
	// Columns are selected in this order and handed to ScanRow
	Columns []string
	// KeyColumn breaks ties so paging is stable
	KeyColumn string
	// SearchColumns are matched case-insensitively against the search term
	SearchColumns []string
	// FacetColumns maps facet keys to columns
	FacetColumns map[string]string
	DateColumn   string
	ValueColumn  string
	// SortColumns maps sort fields to columns
	SortColumns map[string]string
	DefaultSort entities.SortState
	ScanRow     func(RowScanner) (T, error)
}

// FacetKeys returns the facet keys the list accepts
func (d ListDefinition[T]) FacetKeys() []string {
	keys := make([]string, 0, len(d.FacetColumns))
	for k := range d.FacetColumns {
		keys = append(keys, k)
	}
	return keys
}

// SortFields returns the sort fields the list accepts
func (d ListDefinition[T]) SortFields() []string {
	fields := make([]string, 0, len(d.SortColumns))
	for f := range d.SortColumns {
		fields = append(fields, f)
	}
	return fields
}

// ListAdapter serves pages of one list from PostgreSQL
type ListAdapter[T any] struct {
	client  *postgres.Client
	db      *goqu.Database
	def     ListDefinition[T]
	metrics *observability.Metrics
}

// NewListAdapter creates a list adapter
func NewListAdapter[T any](client *postgres.Client, def ListDefinition[T], metrics *observability.Metrics) providers.Fetcher[T] {
	return &ListAdapter[T]{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		def:     def,
		metrics: metrics,
	}
}

// Fetch filters the whole table, counts the matches and returns the requested page
func (a *ListAdapter[T]) Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	ctx, span := observability.StartSpan(ctx, "database.ListAdapter.Fetch")
	defer span.End()

	page, err := a.fetch(ctx, filter.Normalized())
	observability.RecordError(span, err)
	return page, err
}

func (a *ListAdapter[T]) fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	if filter.Page > entities.MaxPage || filter.PageSize > math.MaxInt32 {
		return entities.Page[T]{}, apperrors.NewValidationError("page out of range")
	}

	filtered, err := a.filtered(filter)
	if err != nil {
		return entities.Page[T]{}, err
	}

	countSQL, countArgs, err := filtered.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return entities.Page[T]{}, apperrors.NewInternalError("failed to build count query", err)
	}

	start := time.Now()
	var total int
	err = a.client.DB().QueryRowContext(ctx, countSQL, countArgs...).Scan(&total)
	observability.RecordDBMetric(ctx, a.metrics, a.def.ListID+".count", time.Since(start))
	if err != nil {
		return entities.Page[T]{}, a.queryError(ctx, "failed to count list rows", err)
	}

	columns := make([]interface{}, len(a.def.Columns))
	for i, c := range a.def.Columns {
		columns[i] = c
	}
	sorted := filtered.Select(columns...).Order(a.order(filter.Sort)...)

	sorted = sorted.Limit(uint(filter.PageSize))
	if offset := uint64(filter.Page-1) * uint64(filter.PageSize); offset > 0 {
		sorted = sorted.Offset(uint(offset))
	}

	pageSQL, pageArgs, err := sorted.ToSQL()
	if err != nil {
		return entities.Page[T]{}, apperrors.NewInternalError("failed to build list query", err)
	}

	start = time.Now()
	rows, err := a.client.DB().QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return entities.Page[T]{}, a.queryError(ctx, "failed to query list rows", err)
	}
	defer rows.Close()

	items := make([]T, 0, filter.PageSize)
	for rows.Next() {
		item, err := a.def.ScanRow(rows)
		if err != nil {
			return entities.Page[T]{}, apperrors.NewInternalError("failed to scan list row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return entities.Page[T]{}, a.queryError(ctx, "failed to read list rows", err)
	}
	observability.RecordDBMetric(ctx, a.metrics, a.def.ListID+".page", time.Since(start))

	return entities.Page[T]{
		Items:      items,
		Pagination: entities.NewPagination(filter.Page, filter.PageSize, total, entities.OriginServer),
	}, nil
}

// filtered applies every filter to the whole table, before any paging
func (a *ListAdapter[T]) filtered(filter entities.FilterState) (*goqu.SelectDataset, error) {
	ds := a.db.From(a.def.Table)

	keys := make([]string, 0, len(filter.Facets))
	for key := range filter.Facets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		column, ok := a.def.FacetColumns[key]
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown filter %q", key))
		}
		ds = ds.Where(facetExpressions(column, filter.Facets[key])...)
	}

	if !filter.DateRange.IsZero() {
		if a.def.DateColumn == "" {
			return nil, apperrors.NewValidationError("list has no date filter")
		}
		ds = ds.Where(dateExpressions(a.def.DateColumn, filter.DateRange)...)
	}

	if !filter.NumericRange.IsZero() {
		if a.def.ValueColumn == "" {
			return nil, apperrors.NewValidationError("list has no value filter")
		}
		ds = ds.Where(numericExpressions(a.def.ValueColumn, filter.NumericRange)...)
	}

	if filter.Search != "" && len(a.def.SearchColumns) > 0 {
		pattern := "%" + escapeLike(filter.Search) + "%"
		conditions := make([]exp.Expression, 0, len(a.def.SearchColumns))
		for _, column := range a.def.SearchColumns {
			conditions = append(conditions, goqu.I(column).ILike(pattern))
		}
		ds = ds.Where(goqu.Or(conditions...))
	}

	return ds, nil
}

func (a *ListAdapter[T]) order(state entities.SortState) []exp.OrderedExpression {
	field := state.Field
	if field == "" {
		field = a.def.DefaultSort.Field
	}
	direction := state.Direction
	if direction == "" {
		direction = a.def.DefaultSort.Direction
	}

	var order []exp.OrderedExpression
	if column, ok := a.def.SortColumns[field]; ok {
		if direction.OrDefault() == entities.SortDesc {
			order = append(order, goqu.I(column).Desc())
		} else {
			order = append(order, goqu.I(column).Asc())
		}
	}
	if a.def.KeyColumn != "" {
		order = append(order, goqu.I(a.def.KeyColumn).Asc())
	}
	return order
}

// queryError keeps cancellation and deadlines recognizable to callers
func (a *ListAdapter[T]) queryError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return apperrors.NewInternalError(message, err)
}

func facetExpressions(column string, value entities.FacetValue) []exp.Expression {
	switch value.Kind() {
	case entities.FacetScalar:
		return []exp.Expression{goqu.I(column).Eq(value.Value())}
	case entities.FacetSet:
		return []exp.Expression{goqu.I(column).In(value.Values())}
	case entities.FacetDateRange:
		return dateExpressions(column, value.DateRange())
	case entities.FacetNumericRange:
		return numericExpressions(column, value.NumericRange())
	default:
		return nil
	}
}

// dateExpressions treats both bounds as whole days
func dateExpressions(column string, r entities.DateRange) []exp.Expression {
	var out []exp.Expression
	if r.From != nil {
		out = append(out, goqu.I(column).Gte(*r.From))
	}
	if r.To != nil {
		out = append(out, goqu.I(column).Lt(r.To.AddDate(0, 0, 1)))
	}
	return out
}

func numericExpressions(column string, r entities.NumericRange) []exp.Expression {
	var out []exp.Expression
	if r.Min != nil {
		out = append(out, goqu.I(column).Gte(*r.Min))
	}
	if r.Max != nil {
		out = append(out, goqu.I(column).Lte(*r.Max))
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
