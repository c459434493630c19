package kquery

// BindingCategory identifies the clause a binding belongs to.
type BindingCategory string

const (
	CategorySelect     BindingCategory = "select"
	CategoryFrom       BindingCategory = "from"
	CategoryJoin       BindingCategory = "join"
	CategoryWhere      BindingCategory = "where"
	CategoryGroupBy    BindingCategory = "groupBy"
	CategoryHaving     BindingCategory = "having"
	CategoryOrderBy    BindingCategory = "orderBy"
	CategoryUnion      BindingCategory = "union"
	CategoryUnionOrder BindingCategory = "unionOrder"
	CategoryUpdate     BindingCategory = "update"
	CategoryInsert     BindingCategory = "insert"
)

// bindingOrder is the order in which the categories
// are concatenated by BindingStore.Values()
var bindingOrder = []BindingCategory{
	CategorySelect,
	CategoryFrom,
	CategoryJoin,
	CategoryWhere,
	CategoryGroupBy,
	CategoryHaving,
	CategoryOrderBy,
	CategoryUnion,
	CategoryUnionOrder,
	CategoryUpdate,
	CategoryInsert,
}

// Binding associates a placeholder token with its value.
type Binding struct {
	Token string
	Value interface{}
}

// BindingStore keeps the bindings of a statement grouped by category,
// each category preserving the order in which its bindings were added.
type BindingStore struct {
	seq        *Sequence
	categories map[BindingCategory][]Binding
}

// NewBindingStore instantiates an empty BindingStore that
// allocates its tokens from the input Sequence.
func NewBindingStore(seq *Sequence) *BindingStore {
	return &BindingStore{
		seq:        seq,
		categories: map[BindingCategory][]Binding{},
	}
}

// Add stores a value under a new token and returns the token.
func (s *BindingStore) Add(value interface{}, category BindingCategory) string {
	mustBeValidCategory("BindingStore.Add", category)

	token := s.seq.NextBinder()
	s.categories[category] = append(s.categories[category], Binding{
		Token: token,
		Value: value,
	})
	return token
}

// Remove deletes the binding with the input token from the category,
// it does nothing if the token is not found.
func (s *BindingStore) Remove(token string, category BindingCategory) {
	mustBeValidCategory("BindingStore.Remove", category)

	bindings := s.categories[category]
	for i, b := range bindings {
		if b.Token == token {
			s.categories[category] = append(bindings[:i:i], bindings[i+1:]...)
			return
		}
	}
}

// Merge appends bindings generated by another store into the category,
// keeping their tokens and their relative order.
func (s *BindingStore) Merge(bindings []Binding, category BindingCategory) {
	mustBeValidCategory("BindingStore.Merge", category)

	if len(bindings) == 0 {
		return
	}
	s.categories[category] = append(s.categories[category], bindings...)
}

// Reset removes all bindings of the category.
func (s *BindingStore) Reset(category BindingCategory) {
	mustBeValidCategory("BindingStore.Reset", category)

	delete(s.categories, category)
}

// Category returns a copy of the bindings of a single category.
func (s *BindingStore) Category(category BindingCategory) []Binding {
	mustBeValidCategory("BindingStore.Category", category)

	return append([]Binding(nil), s.categories[category]...)
}

// Values concatenates the bindings of all categories in the order:
// select, from, join, where, groupBy, having, orderBy, union,
// unionOrder, update and insert.
func (s *BindingStore) Values() []Binding {
	var values []Binding
	for _, category := range bindingOrder {
		values = append(values, s.categories[category]...)
	}
	return values
}

// ValueMap returns the bindings indexed by token.
func (s *BindingStore) ValueMap() map[string]interface{} {
	m := map[string]interface{}{}
	for _, bindings := range s.categories {
		for _, b := range bindings {
			m[b.Token] = b.Value
		}
	}
	return m
}

// Len returns the total number of bindings in the store.
func (s *BindingStore) Len() int {
	total := 0
	for _, bindings := range s.categories {
		total += len(bindings)
	}
	return total
}

func (s *BindingStore) clone() *BindingStore {
	c := NewBindingStore(s.seq)
	for category, bindings := range s.categories {
		c.categories[category] = append([]Binding(nil), bindings...)
	}
	return c
}

func mustBeValidCategory(method string, category BindingCategory) {
	for _, c := range bindingOrder {
		if c == category {
			return
		}
	}
	panicArgument(method, category, "unknown binding category")
}
