package store

import (
	"cmp"
	"slices"
	"sync"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
)

// Op names the mutation that produced a Change.
type Op string

const (
	OpAdd        Op = "add"
	OpAddBatch   Op = "add_batch"
	OpUpdate     Op = "update"
	OpRemove     Op = "remove"
	OpMarkRead   Op = "mark_read"
	OpMarkUnread Op = "mark_unread"
	OpMarkAll    Op = "mark_all_read"
	OpDelete     Op = "delete_selected"
	OpReinsert   Op = "reinsert"
	OpReplace    Op = "replace"
	OpSelection  Op = "selection"
	OpFilter     Op = "filter"
	OpPrefs      Op = "preferences"
	OpPending    Op = "pending"
)

// Change describes one applied mutation.
type Change struct {
	Op          Op
	IDs         []string
	UnreadCount int
	Len         int
}

// Entry is a removed record and the index it occupied, kept so a failed
// optimistic delete can be put back.
type Entry struct {
	Index        int
	Notification notification.Notification
}

// Store is the in-memory notification state. The zero value is not usable;
// call New.
type Store struct {
	mu       sync.RWMutex
	list     []notification.Notification
	unread   int
	selected map[string]struct{}
	filter   query.FilterSpec
	prefs    *preference.Preferences
	pending  map[string]string // notification id -> action id

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		selected: make(map[string]struct{}),
		pending:  make(map[string]string),
		subs:     make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// change builds a Change snapshot. Caller holds s.mu.
func (s *Store) change(op Op, ids []string) Change {
	return Change{Op: op, IDs: ids, UnreadCount: s.unread, Len: len(s.list)}
}

func (s *Store) decUnread(n int) {
	s.unread -= n
	if s.unread < 0 {
		s.unread = 0
	}
}

// indexOf returns the position of id or -1. Caller holds s.mu.
func (s *Store) indexOf(id string) int {
	for i := range s.list {
		if s.list[i].ID == id {
			return i
		}
	}
	return -1
}

// Add prepends n. It does not deduplicate; callers check Has first.
func (s *Store) Add(n notification.Notification) {
	s.mu.Lock()
	s.list = append([]notification.Notification{n.Clone()}, s.list...)
	if !n.IsRead {
		s.unread++
	}
	c := s.change(OpAdd, []string{n.ID})
	s.mu.Unlock()

	s.publish(c)
}

// AddBatch prepends every notification whose id is not already present,
// preserving batch order, and returns the ids that were added.
func (s *Store) AddBatch(ns []notification.Notification) []string {
	s.mu.Lock()
	present := make(map[string]struct{}, len(s.list))
	for i := range s.list {
		present[s.list[i].ID] = struct{}{}
	}

	var survivors []notification.Notification
	var added []string
	for _, n := range ns {
		if _, ok := present[n.ID]; ok {
			continue
		}
		present[n.ID] = struct{}{}
		survivors = append(survivors, n.Clone())
		added = append(added, n.ID)
		if !n.IsRead {
			s.unread++
		}
	}
	if len(survivors) > 0 {
		s.list = append(survivors, s.list...)
	}
	c := s.change(OpAddBatch, added)
	s.mu.Unlock()

	if len(added) > 0 {
		s.publish(c)
	}
	return added
}

// Update merges p into the record with id. It reports false when no record
// matches, in which case nothing changes.
func (s *Store) Update(id string, p notification.Patch) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	wasRead := s.list[i].IsRead
	p.Apply(&s.list[i])
	switch isRead := s.list[i].IsRead; {
	case !wasRead && isRead:
		s.decUnread(1)
	case wasRead && !isRead:
		s.unread++
	}
	c := s.change(OpUpdate, []string{id})
	s.mu.Unlock()

	s.publish(c)
	return true
}

// Remove deletes the record with id and returns it with its former index.
func (s *Store) Remove(id string) (Entry, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Entry{}, false
	}
	e := Entry{Index: i, Notification: s.list[i]}
	s.list = append(s.list[:i:i], s.list[i+1:]...)
	if !e.Notification.IsRead {
		s.decUnread(1)
	}
	delete(s.selected, id)
	delete(s.pending, id)
	c := s.change(OpRemove, []string{id})
	s.mu.Unlock()

	s.publish(c)
	return e, true
}

// MarkAsRead sets isRead on every listed record and returns the ids whose
// state actually changed.
func (s *Store) MarkAsRead(ids []string) []string {
	return s.setRead(ids, true)
}

// MarkAsUnread clears isRead on every listed record and returns the ids whose
// state actually changed.
func (s *Store) MarkAsUnread(ids []string) []string {
	return s.setRead(ids, false)
}

func (s *Store) setRead(ids []string, read bool) []string {
	want := toSet(ids)

	s.mu.Lock()
	var changed []string
	for i := range s.list {
		n := &s.list[i]
		if _, ok := want[n.ID]; !ok || n.IsRead == read {
			continue
		}
		n.IsRead = read
		changed = append(changed, n.ID)
	}
	op := OpMarkUnread
	if read {
		op = OpMarkRead
		s.decUnread(len(changed))
	} else {
		s.unread += len(changed)
	}
	c := s.change(op, changed)
	s.mu.Unlock()

	if len(changed) > 0 {
		s.publish(c)
	}
	return changed
}

// MarkAllAsRead marks every record read, resets the counter and returns the
// ids that were unread.
func (s *Store) MarkAllAsRead() []string {
	s.mu.Lock()
	var changed []string
	for i := range s.list {
		if !s.list[i].IsRead {
			s.list[i].IsRead = true
			changed = append(changed, s.list[i].ID)
		}
	}
	s.unread = 0
	c := s.change(OpMarkAll, changed)
	s.mu.Unlock()

	s.publish(c)
	return changed
}

// DeleteSelected removes every selected record, clears the selection and
// returns the removed entries in list order.
func (s *Store) DeleteSelected() []Entry {
	s.mu.Lock()
	var removed []Entry
	kept := s.list[:0:0]
	for i, n := range s.list {
		if _, ok := s.selected[n.ID]; ok {
			removed = append(removed, Entry{Index: i, Notification: n})
			if !n.IsRead {
				s.decUnread(1)
			}
			delete(s.pending, n.ID)
			continue
		}
		kept = append(kept, n)
	}
	s.list = kept
	s.selected = make(map[string]struct{})
	c := s.change(OpDelete, entryIDs(removed))
	s.mu.Unlock()

	s.publish(c)
	return removed
}

// Reinsert restores entries at their former indexes, lowest index first.
// Entries whose id is already present are skipped.
func (s *Store) Reinsert(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	sorted := append([]Entry(nil), entries...)
	sortEntries(sorted)

	s.mu.Lock()
	var ids []string
	for _, e := range sorted {
		if s.indexOf(e.Notification.ID) >= 0 {
			continue
		}
		i := min(max(e.Index, 0), len(s.list))
		s.list = append(s.list, notification.Notification{})
		copy(s.list[i+1:], s.list[i:])
		s.list[i] = e.Notification.Clone()
		if !e.Notification.IsRead {
			s.unread++
		}
		ids = append(ids, e.Notification.ID)
	}
	c := s.change(OpReinsert, ids)
	s.mu.Unlock()

	if len(ids) > 0 {
		s.publish(c)
	}
}

// Replace swaps the whole list, typically after a REST fetch, and recounts
// unread. Selection entries and pending markers for vanished ids are dropped.
func (s *Store) Replace(ns []notification.Notification) {
	s.mu.Lock()
	s.list = make([]notification.Notification, len(ns))
	present := make(map[string]struct{}, len(ns))
	for i, n := range ns {
		s.list[i] = n.Clone()
		present[n.ID] = struct{}{}
	}
	s.unread = notification.CountUnread(s.list)
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
	for id := range s.pending {
		if _, ok := present[id]; !ok {
			delete(s.pending, id)
		}
	}
	c := s.change(OpReplace, nil)
	s.mu.Unlock()

	s.publish(c)
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (notification.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return notification.Notification{}, false
	}
	return s.list[i].Clone(), true
}

func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// List returns a deep copy of the records, newest first.
func (s *Store) List() []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notification.Notification, len(s.list))
	for i := range s.list {
		out[i] = s.list[i].Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func entryIDs(es []Entry) []string {
	ids := make([]string, len(es))
	for i, e := range es {
		ids[i] = e.Notification.ID
	}
	return ids
}

func sortEntries(es []Entry) {
	slices.SortStableFunc(es, func(a, b Entry) int { return cmp.Compare(a.Index, b.Index) })
}
