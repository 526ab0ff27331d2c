package dataset

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// StreamList is a read-only view over a large lazily-decoded section.
// Every access goes through the section's entity loader and therefore its
// cache, if one was configured.
type StreamList[T any] struct {
	loader *loader[T]
}

// At returns the record for key: the ordinal for fixed-length kinds, the
// byte offset within the section for variable-length kinds.
func (l *StreamList[T]) At(key int32) (T, error) {
	return l.loader.load(key)
}

// Size returns the record count declared by the section header.
func (l *StreamList[T]) Size() int {
	return int(l.loader.header.Count)
}

// All iterates the section in file order, yielding each record's key and
// value. For variable-length kinds the key advances by each record's
// decoded length, so the keys yielded here are exactly the keys other
// records use to reference these entities.
func (l *StreamList[T]) All() iter.Seq2[int32, T] {
	return func(yield func(int32, T) bool) {
		var pos int32
		for i := uint32(0); i < l.loader.header.Count; i++ {
			item, err := l.loader.load(pos)
			if err != nil {
				return
			}
			if !yield(pos, item) {
				return
			}
			if pos, err = l.loader.nextPosition(pos, item); err != nil {
				return
			}
		}
	}
}

// FixedList is an always-resident list, fully materialised exactly once at
// dataset construction and read lock-free afterwards. The closed flag is
// shared with the owning dataset: once it is closed, At and All fail even
// though the records are still in memory.
type FixedList[T any] struct {
	header  entity.Header
	factory entity.Factory[T]
	closed  *atomic.Bool
	items   []T
}

func newFixedList[T any](header entity.Header, factory entity.Factory[T], closed *atomic.Bool) (*FixedList[T], error) {
	stride, err := factory.Stride()
	if err != nil {
		return nil, err
	}
	if int64(header.Length) != int64(header.Count)*int64(stride) {
		return nil, fmt.Errorf("fixed section length %d != count %d x stride %d: %w",
			header.Length, header.Count, stride, errs.ErrMalformed)
	}

	return &FixedList[T]{header: header, factory: factory, closed: closed}, nil
}

// read materialises every record. The section checksum, when present, is
// verified first.
func (l *FixedList[T]) read(r *reader.Reader) error {
	if err := l.header.Verify(r); err != nil {
		return err
	}
	if err := r.SetPos(l.header.Start()); err != nil {
		return err
	}

	items := make([]T, l.header.Count)
	for i := range items {
		item, err := l.factory.Create(int32(i), r)
		if err != nil {
			return err
		}
		items[i] = item
	}
	if r.Pos() != l.header.End() {
		return fmt.Errorf("fixed section decoded to offset %d, header ends at %d: %w",
			r.Pos(), l.header.End(), errs.ErrMalformed)
	}
	l.items = items

	return nil
}

// At returns the record at ordinal i.
func (l *FixedList[T]) At(i int32) (T, error) {
	var zero T
	if l.closed.Load() {
		return zero, errs.ErrClosed
	}
	if i < 0 || int(i) >= len(l.items) {
		return zero, fmt.Errorf("index %d outside [0, %d): %w", i, len(l.items), errs.ErrIndexOutOfRange)
	}

	return l.items[i], nil
}

// Size returns the record count.
func (l *FixedList[T]) Size() int {
	return len(l.items)
}

// All iterates the materialised records in order. Iteration over a closed
// dataset yields nothing.
func (l *FixedList[T]) All() iter.Seq2[int32, T] {
	return func(yield func(int32, T) bool) {
		for i, item := range l.items {
			if l.closed.Load() {
				return
			}
			if !yield(int32(i), item) {
				return
			}
		}
	}
}

// PropertiesList is the always-resident property list with an additional
// name index, permitting lookup by property name as well as ordinal.
type PropertiesList struct {
	*FixedList[entity.Property]
	byName map[string]int32
}

func newPropertiesList(header entity.Header, factory entity.Factory[entity.Property], closed *atomic.Bool) (*PropertiesList, error) {
	fixed, err := newFixedList(header, factory, closed)
	if err != nil {
		return nil, err
	}

	return &PropertiesList{FixedList: fixed}, nil
}

// index builds the name index; resolve maps a name-string offset to its
// text via the (lazy) strings section.
func (l *PropertiesList) index(resolve func(int32) (string, error)) error {
	byName := make(map[string]int32, len(l.items))
	for i, p := range l.items {
		name, err := resolve(p.NameIndex)
		if err != nil {
			return fmt.Errorf("property %d name: %w", i, err)
		}
		byName[name] = int32(i)
	}
	l.byName = byName

	return nil
}

// ByName returns the property with the given name.
func (l *PropertiesList) ByName(name string) (entity.Property, bool) {
	i, ok := l.byName[name]
	if !ok {
		return entity.Property{}, false
	}

	return l.items[i], true
}

// IndexOf returns the ordinal of the named property, or -1.
func (l *PropertiesList) IndexOf(name string) int32 {
	if i, ok := l.byName[name]; ok {
		return i
	}

	return -1
}

// IntegerList is a lazy view over a packed int32 section. Entries are four
// bytes each, so loads go straight through the pool without a cache.
type IntegerList struct {
	header entity.Header
	pool   *reader.Pool
}

func newIntegerList(header entity.Header, pool *reader.Pool) (*IntegerList, error) {
	if header.Length != header.Count*4 {
		return nil, fmt.Errorf("integer section length %d != count %d x 4: %w",
			header.Length, header.Count, errs.ErrMalformed)
	}

	return &IntegerList{header: header, pool: pool}, nil
}

// At returns the integer at ordinal i.
func (l *IntegerList) At(i int32) (int32, error) {
	vals, err := l.Range(i, 1)
	if err != nil {
		return 0, err
	}

	return vals[0], nil
}

// Range returns count consecutive integers starting at ordinal first,
// reading them in one positioned pass.
func (l *IntegerList) Range(first, count int32) ([]int32, error) {
	if count < 0 || first < 0 || uint32(first)+uint32(count) > l.header.Count {
		return nil, fmt.Errorf("range [%d, %d) outside [0, %d): %w",
			first, first+count, l.header.Count, errs.ErrIndexOutOfRange)
	}
	if count == 0 {
		return nil, nil
	}

	r, err := l.pool.Acquire()
	if err != nil {
		return nil, err
	}
	defer l.pool.Release(r)

	if err := r.SetPos(l.header.Start() + 4*int64(first)); err != nil {
		return nil, err
	}

	vals := make([]int32, count)
	for i := range vals {
		if vals[i], err = r.ReadInt32(); err != nil {
			return nil, err
		}
	}

	return vals, nil
}

// Size returns the integer count.
func (l *IntegerList) Size() int {
	return int(l.header.Count)
}
