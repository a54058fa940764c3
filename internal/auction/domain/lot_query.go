package domain

import (
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	DraftAll = "all"
)

type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpIn  Op = "$in"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	// kindInt32 is a number stored in an INTEGER column.
	kindInt32
	kindBool
	kindUUID
)

// filterFields are the only fields a caller may filter on.
var filterFields = map[string]fieldKind{
	"bidding":         kindString,
	"title":           kindString,
	"state":           kindString,
	"platform":        kindString,
	"count":           kindInt32,
	"startPriceCents": kindNumber,
	"draft":           kindBool,
	"auctionId":       kindUUID,
	"createdBy":       kindUUID,
}

// SortFields are the fields a list can be ordered by.
var SortFields = []string{"title", "count", "createdAt", "finishAt", "startPriceCents", "bidding", "state"}

// Condition is one whitelisted filter. Value is a string, int64, bool or
// uuid.UUID, or a slice of one of those for OpIn.
type Condition struct {
	Field string
	Op    Op
	Value any
}

type Visibility int

const (
	// VisibilityAll applies no draft rule.
	VisibilityAll Visibility = iota
	// VisibilityPublic only shows published lots.
	VisibilityPublic
	// VisibilityPublicOrOwn shows published lots and the owner's drafts.
	VisibilityPublicOrOwn
	// VisibilityOwnDrafts only shows the owner's drafts.
	VisibilityOwnDrafts
)

type Sort struct {
	Field string
	Desc  bool
}

// ListParams are the raw list query parameters.
type ListParams struct {
	Filters       string
	Draft         string
	Page          int
	Limit         int
	SortField     string
	SortDirection string
}

// LotQuery is the storage independent description of a lot listing.
type LotQuery struct {
	Conditions []Condition
	Visibility Visibility
	Owner      uuid.UUID
	States     []LotState
	AuctionID  *uuid.UUID
	Page       int
	// Limit 0 means unbounded.
	Limit int
	Sort  *Sort
}

// BuildLotQuery turns request parameters into a LotQuery for viewer, nil
// meaning anonymous. Malformed or unknown filters are dropped. The visibility
// and state rules override caller filters on the same fields.
func BuildLotQuery(p ListParams, viewer *Actor) LotQuery {
	q := LotQuery{
		Conditions: ParseFilters(p.Filters),
		Page:       p.Page,
		Limit:      p.Limit,
		Sort:       parseSort(p.SortField, p.SortDirection),
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if p.Draft == DraftAll {
		q.Visibility = VisibilityAll
		return q
	}

	switch {
	case viewer == nil:
		q.Visibility = VisibilityPublic
		q.Conditions = without(q.Conditions, "draft")
	case draftRequested(p.Draft):
		q.Visibility = VisibilityOwnDrafts
		q.Owner = viewer.ID
		q.Conditions = without(q.Conditions, "draft", "createdBy")
	default:
		q.Visibility = VisibilityPublicOrOwn
		q.Owner = viewer.ID
	}

	q.States = slices.Clone(ActiveStates)
	q.Conditions = without(q.Conditions, "state")
	return q
}

// ForAuction scopes q to one auction and lists it without pagination.
func (q LotQuery) ForAuction(id uuid.UUID) LotQuery {
	q.AuctionID = &id
	q.Conditions = without(q.Conditions, "auctionId")
	q.Page = DefaultPage
	q.Limit = 0
	return q
}

// Historical restricts q to closed lots.
func (q LotQuery) Historical() LotQuery {
	q.States = []LotState{StateClosed}
	q.Conditions = without(q.Conditions, "state")
	return q
}

func (q LotQuery) Offset() int {
	if q.Limit < 1 || q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TotalPages counts an empty result as one page.
func TotalPages(count, limit int) int {
	if limit < 1 {
		return 1
	}
	return int(math.Ceil(float64(max(count, 1)) / float64(limit)))
}

func draftRequested(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0":
		return false
	}
	return true
}

func parseSort(field, direction string) *Sort {
	if !slices.Contains(SortFields, field) {
		return nil
	}
	switch strings.ToLower(direction) {
	case "desc", "-1", "descending":
		return &Sort{Field: field, Desc: true}
	}
	return &Sort{Field: field}
}

func without(conds []Condition, fields ...string) []Condition {
	return slices.DeleteFunc(slices.Clone(conds), func(c Condition) bool {
		return slices.Contains(fields, c.Field)
	})
}

// ParseFilters decodes a JSON object of field -> value or field -> {op: value}.
// Entries with unknown fields, unknown operators or ill-typed values are
// dropped; malformed JSON yields no conditions.
func ParseFilters(raw string) []Condition {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Debug("ignoring malformed filters", zap.Error(err))
		return nil
	}

	fields := make([]string, 0, len(doc))
	for f := range doc {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var conds []Condition
	for _, field := range fields {
		kind, ok := filterFields[field]
		if !ok {
			continue
		}
		conds = append(conds, parseField(field, kind, doc[field])...)
	}
	return conds
}

func parseField(field string, kind fieldKind, raw any) []Condition {
	ops, isObject := raw.(map[string]any)
	if !isObject {
		v, ok := convertValue(kind, raw)
		if !ok {
			return nil
		}
		return []Condition{{Field: field, Op: OpEq, Value: v}}
	}

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var conds []Condition
	for _, name := range names {
		op := Op(name)
		switch op {
		case OpEq, OpNe:
			if v, ok := convertValue(kind, ops[name]); ok {
				conds = append(conds, Condition{Field: field, Op: op, Value: v})
			}
		case OpIn:
			if v, ok := convertList(kind, ops[name]); ok {
				conds = append(conds, Condition{Field: field, Op: op, Value: v})
			}
		case OpGt, OpGte, OpLt, OpLte:
			if kind != kindNumber && kind != kindInt32 {
				continue
			}
			if v, ok := convertValue(kind, ops[name]); ok {
				conds = append(conds, Condition{Field: field, Op: op, Value: v})
			}
		}
	}
	return conds
}

func convertValue(kind fieldKind, raw any) (any, bool) {
	switch kind {
	case kindString:
		s, ok := raw.(string)
		return s, ok
	case kindNumber:
		f, ok := raw.(float64)
		if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, false
		}
		return int64(f), true
	case kindInt32:
		f, ok := raw.(float64)
		if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return nil, false
		}
		return int64(f), true
	case kindBool:
		b, ok := raw.(bool)
		return b, ok
	case kindUUID:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		return id, true
	}
	return nil, false
}

func convertList(kind fieldKind, raw any) (any, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	switch kind {
	case kindString:
		return collect[string](kind, items)
	case kindNumber, kindInt32:
		return collect[int64](kind, items)
	case kindBool:
		return collect[bool](kind, items)
	case kindUUID:
		return collect[uuid.UUID](kind, items)
	}
	return nil, false
}

func collect[T any](kind fieldKind, items []any) (any, bool) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, ok := convertValue(kind, item)
		if !ok {
			return nil, false
		}
		out = append(out, v.(T))
	}
	return out, true
}
