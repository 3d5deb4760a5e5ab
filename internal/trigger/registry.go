package trigger

import "slices"

// KeyFunc maps a source to its comparison key. ok is false for sources the
// engine cannot observe.
type KeyFunc[K comparable] func(src Source) (key K, ok bool)

type entry struct {
	source Source
	detach func()
}

// registry owns the observed sources of one engine, in insertion order.
type registry[K comparable] struct {
	key         KeyFunc[K]
	subscribe   func(Source)
	unsubscribe func(Source)
	role        Role

	entries map[K]*entry
	order   []K
}

func newRegistry[K comparable](key KeyFunc[K], subscribe, unsubscribe func(Source), role Role) *registry[K] {
	return &registry[K]{
		key:         key,
		subscribe:   subscribe,
		unsubscribe: unsubscribe,
		role:        role,
		entries:     make(map[K]*entry),
	}
}

// add registers src. Returns false for duplicates and unkeyable sources.
// onClose is attached as destruction hook when src implements Closer.
func (r *registry[K]) add(src Source, onClose func(Source)) (K, bool) {
	k, ok := r.key(src)
	if !ok {
		return k, false
	}
	if _, seen := r.entries[k]; seen {
		return k, false
	}

	e := &entry{source: src}
	r.entries[k] = e
	r.order = append(r.order, k)

	// Only the authoritative side hooks change notifications; replicas would
	// otherwise propagate the same change twice.
	if r.role == Authoritative && r.subscribe != nil {
		r.subscribe(src)
	}

	if c, ok := src.(Closer); ok && onClose != nil {
		e.detach = c.OnClose(func() { onClose(src) })
	}
	return k, true
}

// remove unregisters src. Returns false if it was not observed.
func (r *registry[K]) remove(src Source) (K, bool) {
	k, ok := r.key(src)
	if !ok {
		return k, false
	}
	e, seen := r.entries[k]
	if !seen {
		return k, false
	}

	delete(r.entries, k)
	if i := slices.Index(r.order, k); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	if r.unsubscribe != nil {
		r.unsubscribe(e.source)
	}
	if e.detach != nil {
		e.detach()
	}
	return k, true
}

func (r *registry[K]) get(k K) (Source, bool) {
	e, ok := r.entries[k]
	if !ok {
		return nil, false
	}
	return e.source, true
}

func (r *registry[K]) len() int {
	return len(r.entries)
}

// each visits sources in insertion order.
func (r *registry[K]) each(fn func(K, Source)) {
	for _, k := range r.order {
		fn(k, r.entries[k].source)
	}
}

func (r *registry[K]) sources() []Source {
	out := make([]Source, 0, len(r.order))
	r.each(func(_ K, src Source) { out = append(out, src) })
	return out
}
