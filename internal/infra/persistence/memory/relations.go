package memory

import (
	"corpgraph/pkg/domain"
	"sort"
)

// relationIndex stores every maintained relation as (id, id) pairs keyed by
// relation name. Records never reference each other directly; both directions
// of a link live here so that inverse sets cannot drift apart.
type relationIndex struct {
	edges map[domain.Relation]*edgeSet
}

type edgeSet struct {
	forward  map[string]map[string]struct{} // left id -> right ids
	backward map[string]map[string]struct{} // right id -> left ids
}

func newRelationIndex() relationIndex {
	idx := relationIndex{edges: make(map[domain.Relation]*edgeSet)}
	for _, def := range domain.Relations() {
		idx.edges[def.Name] = newEdgeSet()
	}
	return idx
}

func newEdgeSet() *edgeSet {
	return &edgeSet{
		forward:  make(map[string]map[string]struct{}),
		backward: make(map[string]map[string]struct{}),
	}
}

func (idx relationIndex) set(rel domain.Relation) *edgeSet {
	es, ok := idx.edges[rel]
	if !ok {
		es = newEdgeSet()
		idx.edges[rel] = es
	}
	return es
}

// add inserts the pair in both directions. It reports false when the link already existed.
func (idx relationIndex) add(rel domain.Relation, leftID, rightID string) bool {
	es := idx.set(rel)
	if _, ok := es.forward[leftID][rightID]; ok {
		return false
	}
	addMember(es.forward, leftID, rightID)
	addMember(es.backward, rightID, leftID)
	return true
}

// remove deletes the pair from both directions. It reports false when no link existed.
func (idx relationIndex) remove(rel domain.Relation, leftID, rightID string) bool {
	es, ok := idx.edges[rel]
	if !ok {
		return false
	}
	if _, ok := es.forward[leftID][rightID]; !ok {
		return false
	}
	removeMember(es.forward, leftID, rightID)
	removeMember(es.backward, rightID, leftID)
	return true
}

func (idx relationIndex) has(rel domain.Relation, leftID, rightID string) bool {
	es, ok := idx.edges[rel]
	if !ok {
		return false
	}
	_, ok = es.forward[leftID][rightID]
	return ok
}

// rights returns the sorted right-side ids linked to leftID.
func (idx relationIndex) rights(rel domain.Relation, leftID string) []string {
	es, ok := idx.edges[rel]
	if !ok {
		return []string{}
	}
	return sortedKeys(es.forward[leftID])
}

// lefts returns the sorted left-side ids linked to rightID.
func (idx relationIndex) lefts(rel domain.Relation, rightID string) []string {
	es, ok := idx.edges[rel]
	if !ok {
		return []string{}
	}
	return sortedKeys(es.backward[rightID])
}

// cascade removes every link naming ref from every relation that can hold
// its kind and returns the removed links.
func (idx relationIndex) cascade(ref domain.Ref) []domain.Link {
	var removed []domain.Link
	for _, def := range domain.RelationsFor(ref.Kind) {
		es, ok := idx.edges[def.Name]
		if !ok {
			continue
		}
		if def.Left == ref.Kind {
			for rightID := range es.forward[ref.ID] {
				removeMember(es.backward, rightID, ref.ID)
				removed = append(removed, domain.Link{Relation: def.Name, LeftID: ref.ID, RightID: rightID})
			}
			delete(es.forward, ref.ID)
		}
		if def.Right == ref.Kind {
			for leftID := range es.backward[ref.ID] {
				removeMember(es.forward, leftID, ref.ID)
				removed = append(removed, domain.Link{Relation: def.Name, LeftID: leftID, RightID: ref.ID})
			}
			delete(es.backward, ref.ID)
		}
	}
	sortLinks(removed)
	return removed
}

// links returns every stored link ordered by relation, left id and right id.
func (idx relationIndex) links() []domain.Link {
	var out []domain.Link
	for rel, es := range idx.edges {
		for leftID, rights := range es.forward {
			for rightID := range rights {
				out = append(out, domain.Link{Relation: rel, LeftID: leftID, RightID: rightID})
			}
		}
	}
	sortLinks(out)
	return out
}

func (idx relationIndex) clone() relationIndex {
	cloned := relationIndex{edges: make(map[domain.Relation]*edgeSet, len(idx.edges))}
	for rel, es := range idx.edges {
		cp := newEdgeSet()
		for leftID, rights := range es.forward {
			for rightID := range rights {
				addMember(cp.forward, leftID, rightID)
				addMember(cp.backward, rightID, leftID)
			}
		}
		cloned.edges[rel] = cp
	}
	return cloned
}

func addMember(m map[string]map[string]struct{}, key, member string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[member] = struct{}{}
}

func removeMember(m map[string]map[string]struct{}, key, member string) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, member)
	if len(set) == 0 {
		delete(m, key)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortLinks(links []domain.Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].Relation != links[j].Relation {
			return links[i].Relation < links[j].Relation
		}
		if links[i].LeftID != links[j].LeftID {
			return links[i].LeftID < links[j].LeftID
		}
		return links[i].RightID < links[j].RightID
	})
}
