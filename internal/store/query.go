package store

// Op is a filter comparison operator.
type Op string

// OpEqual is the only comparison the application needs; the type leaves room
// for range operators later.
const OpEqual Op = "=="

// Filter restricts a query to documents whose field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts a query result by a document field.
type Order struct {
	Field string
	Desc  bool
}

// Query is a composable read descriptor over a single collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *Order
	Limit      int
}

// NewQuery returns a query over the named collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of the query with an additional filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order returns a copy of the query sorted by field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = &Order{Field: field, Desc: desc}
	return q
}

// WithLimit returns a copy of the query capped at n documents.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}
