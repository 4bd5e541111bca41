package leads

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLimit     = 20
	defaultSortBy    = "created_at"
	allStatuses      = "All"
	sortAscending    = "asc"
	dateLayout       = "2006-01-02"
	fallbackSortDesc = "id DESC"
)

// ListFilter describes one page of the dashboard lead list.
type ListFilter struct {
	Skip      int
	Limit     int
	Status    string
	Search    string
	Source    string
	SortBy    string
	SortOrder string
	StartDate *time.Time
	EndDate   *time.Time
}

// DefaultListFilter returns the filter used when no query parameters are set.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:     defaultLimit,
		SortBy:    defaultSortBy,
		SortOrder: "desc",
	}
}

// ParseListFilter reads skip, limit, status, search, source, sort_by,
// sort_order, start_date and end_date. Sort parameters are never rejected;
// malformed numbers and dates are.
func ParseListFilter(q url.Values) (ListFilter, error) {
	f := DefaultListFilter()

	if v := strings.TrimSpace(q.Get("skip")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: skip must be a non-negative integer", ErrInvalidFilter)
		}
		f.Skip = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidFilter)
		}
		f.Limit = n
	}

	f.Status = q.Get("status")
	f.Search = q.Get("search")
	f.Source = q.Get("source")
	if v := q.Get("sort_by"); v != "" {
		f.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		f.SortOrder = v
	}

	var err error
	if f.StartDate, err = parseDate(q.Get("start_date"), "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = parseDate(q.Get("end_date"), "end_date"); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(v, field string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidFilter, field)
	}
	return &d, nil
}

func (f ListFilter) statusFilter() string {
	if f.Status == allStatuses {
		return ""
	}
	return f.Status
}

// createdBefore is the exclusive upper bound that makes end_date cover the
// whole day.
func (f ListFilter) createdBefore() *time.Time {
	if f.EndDate == nil {
		return nil
	}
	next := f.EndDate.AddDate(0, 0, 1)
	return &next
}

func (f ListFilter) descending() bool {
	return f.SortOrder != sortAscending
}

// sortKey pairs a lead column with the comparator the in-memory store uses
// for the same ordering.
type sortKey struct {
	column  string
	compare func(a, b *Lead) int
}

func byString(get func(*Lead) string) func(a, b *Lead) int {
	return func(a, b *Lead) int { return cmp.Compare(get(a), get(b)) }
}

// byOptional orders NULLs after every value, as Postgres does.
func byOptional(get func(*Lead) *string) func(a, b *Lead) int {
	return func(a, b *Lead) int {
		av, bv := get(a), get(b)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		return cmp.Compare(*av, *bv)
	}
}

var sortKeys = map[string]sortKey{
	"id":                 {"id", func(a, b *Lead) int { return cmp.Compare(a.ID, b.ID) }},
	"prospect_name":      {"prospect_name", byString(func(l *Lead) string { return l.Name })},
	"email":              {"email", byOptional(func(l *Lead) *string { return l.Email })},
	"phone":              {"phone", byOptional(func(l *Lead) *string { return l.Phone })},
	"source":             {"source", byString(func(l *Lead) string { return l.Source })},
	"integration_source": {"integration_source", byOptional(func(l *Lead) *string { return l.IntegrationSource })},
	"property_name":      {"property_name", byOptional(func(l *Lead) *string { return l.PropertyName })},
	"city":               {"city", byOptional(func(l *Lead) *string { return l.City })},
	"beds":               {"beds", byOptional(func(l *Lead) *string { return l.Beds })},
	"baths":              {"baths", byOptional(func(l *Lead) *string { return l.Baths })},
	"move_in_date":       {"move_in_date", byOptional(func(l *Lead) *string { return l.MoveInDate })},
	"promotion":          {"promotion", byOptional(func(l *Lead) *string { return l.Promotion })},
	"status":             {"status", byString(func(l *Lead) string { return l.Status })},
	"debug_1":            {"debug_1", byOptional(func(l *Lead) *string { return l.Debug1 })},
	"debug_2":            {"debug_2", byOptional(func(l *Lead) *string { return l.Debug2 })},
	"created_at":         {"created_at", func(a, b *Lead) int { return a.CreatedAt.Compare(b.CreatedAt) }},
}

// SortableColumns lists the accepted sort_by values.
func SortableColumns() []string {
	cols := make([]string, 0, len(sortKeys))
	for name := range sortKeys {
		cols = append(cols, name)
	}
	slices.Sort(cols)
	return cols
}

// orderBy resolves the ORDER BY clause. Unknown columns fall back to id DESC.
func (f ListFilter) orderBy() string {
	key, ok := sortKeys[f.SortBy]
	if !ok {
		return fallbackSortDesc
	}
	if f.descending() {
		return key.column + " DESC"
	}
	return key.column + " ASC"
}

// likePattern wraps s for a substring ILIKE match with wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// buildListQuery renders the filter as SQL. Values are always bound as
// parameters; the only interpolated identifiers come from sortKeys.
func buildListQuery(f ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Source != "" {
		where = append(where, "source ILIKE "+bind(likePattern(f.Source)))
	}
	if status := f.statusFilter(); status != "" {
		where = append(where, "status = "+bind(status))
	}
	if f.Search != "" {
		p := bind(likePattern(f.Search))
		where = append(where, "(prospect_name ILIKE "+p+" OR email ILIKE "+p+")")
	}
	if f.StartDate != nil {
		where = append(where, "created_at >= "+bind(*f.StartDate))
	}
	if before := f.createdBefore(); before != nil {
		where = append(where, "created_at < "+bind(*before))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(leadColumns)
	sb.WriteString(" FROM leads")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(f.orderBy())
	sb.WriteString(" OFFSET ")
	sb.WriteString(bind(f.Skip))
	sb.WriteString(" LIMIT ")
	sb.WriteString(bind(f.Limit))
	return sb.String(), args
}

// matches applies the WHERE semantics of buildListQuery to one lead.
func (f ListFilter) matches(l *Lead) bool {
	if f.Source != "" && !containsFold(l.Source, f.Source) {
		return false
	}
	if status := f.statusFilter(); status != "" && l.Status != status {
		return false
	}
	if f.Search != "" && !containsFold(l.Name, f.Search) && !containsFold(deref(l.Email), f.Search) {
		return false
	}
	if f.StartDate != nil && l.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if before := f.createdBefore(); before != nil && !l.CreatedAt.Before(*before) {
		return false
	}
	return true
}

// apply filters, sorts and pages an in-memory slice the same way the SQL
// query does.
func (f ListFilter) apply(all []*Lead) []*Lead {
	out := make([]*Lead, 0, len(all))
	for _, l := range all {
		if f.matches(l) {
			out = append(out, l)
		}
	}

	compare := func(a, b *Lead) int { return cmp.Compare(b.ID, a.ID) }
	if key, ok := sortKeys[f.SortBy]; ok {
		compare = key.compare
		if f.descending() {
			compare = func(a, b *Lead) int { return key.compare(b, a) }
		}
	}
	slices.SortStableFunc(out, compare)

	if f.Skip >= len(out) {
		return []*Lead{}
	}
	if f.Skip > 0 {
		out = out[f.Skip:]
	}
	if f.Limit >= 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
