package postgres

import (
	"fmt"
	"strings"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
)

// lotColumns maps API field names to lot columns. Only whitelisted filter
// and sort fields appear here.
var lotColumns = map[string]string{
	"bidding":         "l.bidding",
	"title":           "l.title",
	"state":           "l.state",
	"platform":        "l.platform",
	"count":           "l.lot_count",
	"startPriceCents": "l.start_price_cents",
	"draft":           "l.draft",
	"auctionId":       "l.auction_id",
	"createdBy":       "l.created_by",
	"createdAt":       "l.created_at",
	"finishAt":        "l.finish_at",
}

var comparisons = map[domain.Op]string{
	domain.OpEq:  "=",
	domain.OpNe:  "<>",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

// add appends a predicate; each %s in format is replaced by the
// placeholder of the matching arg.
func (w *where) add(format string, args ...any) {
	placeholders := make([]any, len(args))
	for i, a := range args {
		w.args = append(w.args, a)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf(format, placeholders...))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func buildWhere(q domain.LotQuery) *where {
	w := &where{}

	switch q.Visibility {
	case domain.VisibilityPublic:
		w.add("l.draft = false")
	case domain.VisibilityPublicOrOwn:
		w.add("(l.draft = false OR l.created_by = %s)", q.Owner)
	case domain.VisibilityOwnDrafts:
		w.add("l.draft = true AND l.created_by = %s", q.Owner)
	}

	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, s := range q.States {
			states[i] = string(s)
		}
		w.add("l.state = ANY(%s)", states)
	}
	if q.AuctionID != nil {
		w.add("l.auction_id = %s", *q.AuctionID)
	}

	for _, c := range q.Conditions {
		col, ok := lotColumns[c.Field]
		if !ok {
			continue
		}
		if c.Op == domain.OpIn {
			if ids, isUUIDs := c.Value.([]uuid.UUID); isUUIDs {
				w.add(col+" = ANY(%s::uuid[])", uuidStrings(ids))
				continue
			}
			w.add(col+" = ANY(%s)", c.Value)
			continue
		}
		cmp, ok := comparisons[c.Op]
		if !ok {
			continue
		}
		w.add(col+" "+cmp+" %s", c.Value)
	}
	return w
}

func orderBy(q domain.LotQuery) string {
	if q.Sort == nil {
		return " ORDER BY l.created_at ASC, l.id ASC"
	}
	col, ok := lotColumns[q.Sort.Field]
	if !ok {
		return " ORDER BY l.created_at ASC, l.id ASC"
	}
	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, l.id ASC", col, dir)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
