package store

import (
	"slices"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/query"
)

// Select adds ids to the selection set. Ids need not exist in the list.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
	c := s.change(OpSelection, ids)
	s.mu.Unlock()
	s.publish(c)
}

func (s *Store) Deselect(ids ...string) {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.selected, id)
	}
	c := s.change(OpSelection, ids)
	s.mu.Unlock()
	s.publish(c)
}

// Toggle flips the selection state of id and reports the new state.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	_, on := s.selected[id]
	if on {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	c := s.change(OpSelection, []string{id})
	s.mu.Unlock()
	s.publish(c)
	return !on
}

// SelectAll selects ids, or every record when ids is empty.
func (s *Store) SelectAll(ids ...string) {
	s.mu.Lock()
	if len(ids) == 0 {
		for i := range s.list {
			s.selected[s.list[i].ID] = struct{}{}
		}
	} else {
		for _, id := range ids {
			s.selected[id] = struct{}{}
		}
	}
	c := s.change(OpSelection, nil)
	s.mu.Unlock()
	s.publish(c)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	c := s.change(OpSelection, nil)
	s.mu.Unlock()
	s.publish(c)
}

// Selected returns the selected ids in sorted order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// SetFilter replaces the active filter.
func (s *Store) SetFilter(f query.FilterSpec) {
	s.mu.Lock()
	s.filter = f
	c := s.change(OpFilter, nil)
	s.mu.Unlock()
	s.publish(c)
}

func (s *Store) Filter() query.FilterSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Visible returns the records matching the active filter.
func (s *Store) Visible() []notification.Notification {
	return query.Filter(s.List(), s.Filter())
}

func (s *Store) SetPreferences(p preference.Preferences) {
	cp := p.Clone()
	s.mu.Lock()
	s.prefs = &cp
	c := s.change(OpPrefs, nil)
	s.mu.Unlock()
	s.publish(c)
}

// Preferences returns the stored preferences, or preference.Defaults when
// none have been loaded yet.
func (s *Store) Preferences() preference.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prefs == nil {
		return preference.Defaults()
	}
	return s.prefs.Clone()
}

// HasPreferences reports whether SetPreferences has been called.
func (s *Store) HasPreferences() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs != nil
}

// SetPending marks an action as in flight for a notification.
func (s *Store) SetPending(notificationID, actionID string) {
	s.mu.Lock()
	s.pending[notificationID] = actionID
	c := s.change(OpPending, []string{notificationID})
	s.mu.Unlock()
	s.publish(c)
}

func (s *Store) ClearPending(notificationID string) {
	s.mu.Lock()
	delete(s.pending, notificationID)
	c := s.change(OpPending, []string{notificationID})
	s.mu.Unlock()
	s.publish(c)
}

// IsPending reports whether an action is in flight for notificationID and
// returns its id.
func (s *Store) IsPending(notificationID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.pending[notificationID]
	return a, ok
}
