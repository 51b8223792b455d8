package binding

import (
	"slices"

	"github.com/orangejam/knitgraph/internal/component"
)

// CompositeHop is one step through a composite property.
type CompositeHop struct {
	Owner    component.InternalName
	Property string
	Target   component.InternalName
	Public   bool
}

func (h CompositeHop) String() string {
	return string(h.Owner) + "." + h.Property + ":" + string(h.Target)
}

// ComponentRecord is one route through the composition tree to the component Name.
type ComponentRecord struct {
	Name  component.InternalName
	Steps []CompositeHop
}

// CompositeRecords is a multimap of target component name to every route reaching it.
type CompositeRecords struct {
	byName map[component.InternalName][]*ComponentRecord
	names  []component.InternalName
	count  int
}

func newCompositeRecords() *CompositeRecords {
	return &CompositeRecords{byName: map[component.InternalName][]*ComponentRecord{}}
}

func (r *CompositeRecords) add(record *ComponentRecord) {
	if _, ok := r.byName[record.Name]; !ok {
		r.names = append(r.names, record.Name)
	}
	r.byName[record.Name] = append(r.byName[record.Name], record)
	r.count++
}

// Get returns every route to the named component in discovery order.
func (r *CompositeRecords) Get(name component.InternalName) []*ComponentRecord { return r.byName[name] }

// Names returns the reachable component names in discovery order.
func (r *CompositeRecords) Names() []component.InternalName { return r.names }

// Len returns the total number of routes.
func (r *CompositeRecords) Len() int { return r.count }

// FindCompositeRecords enumerates every route through the composite properties of bc.
//
// All composites of bc itself are traversed. Below the first hop only public
// composites are traversed, so private wiring of a nested component is never
// re-exported. A route that would re-enter a component already on the current
// path is abandoned and reported as a [CompositeCycleError].
func FindCompositeRecords(bc *BoundComponent) (*CompositeRecords, []*CompositeCycleError) {
	f := &compositeFinder{root: bc.Name, records: newCompositeRecords()}
	f.walk(bc, nil, []component.InternalName{bc.Name}, true)
	return f.records, f.cycles
}

type compositeFinder struct {
	root    component.InternalName
	records *CompositeRecords
	cycles  []*CompositeCycleError
}

func (f *compositeFinder) walk(owner *BoundComponent, way []CompositeHop, stack []component.InternalName, includePrivate bool) {
	for _, composite := range owner.Composites {
		if !composite.Public && !includePrivate {
			continue
		}
		target := composite.Component
		steps := append(slices.Clip(way), CompositeHop{
			Owner:    owner.Name,
			Property: composite.Property,
			Target:   target.Name,
			Public:   composite.Public,
		})
		if slices.Contains(stack, target.Name) {
			f.cycles = append(f.cycles, &CompositeCycleError{Component: f.root, Owner: target.Name, Path: steps})
			continue
		}
		f.records.add(&ComponentRecord{Name: target.Name, Steps: steps})
		f.walk(target, steps, append(slices.Clip(stack), target.Name), false)
	}
}
