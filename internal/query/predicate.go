package query

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Predicate is a compiled filter condition.
//
// This is a sealed interface: only types in this package implement it, so a
// type switch over the variants below is exhaustive.
type Predicate interface {
	Match(n *notification.Notification) bool
	predicateNode()
}

// All matches every notification. It is what an empty FilterSpec compiles to.
type All struct{}

// Contains matches when the folded Text occurs in the title or the message.
type Contains struct {
	Text string // already folded; see foldText
}

// TypeIn matches notifications whose type is in the set.
type TypeIn struct {
	Types map[notification.Type]struct{}
}

// PriorityIn matches notifications whose priority is in the set.
type PriorityIn struct {
	Priorities map[notification.Priority]struct{}
}

// ReadIs matches on exact read state.
type ReadIs struct {
	Read bool
}

// CreatedBetween matches createdAt within [From, To]. A zero bound is open.
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

// And matches when every predicate matches.
type And struct {
	Predicates []Predicate
}

func (All) predicateNode()            {}
func (Contains) predicateNode()       {}
func (TypeIn) predicateNode()         {}
func (PriorityIn) predicateNode()     {}
func (ReadIs) predicateNode()         {}
func (CreatedBetween) predicateNode() {}
func (And) predicateNode()            {}

func (All) Match(*notification.Notification) bool { return true }

func (p Contains) Match(n *notification.Notification) bool {
	return strings.Contains(foldText(n.Title), p.Text) ||
		strings.Contains(foldText(n.Message), p.Text)
}

func (p TypeIn) Match(n *notification.Notification) bool {
	_, ok := p.Types[n.Type]
	return ok
}

func (p PriorityIn) Match(n *notification.Notification) bool {
	_, ok := p.Priorities[n.Priority]
	return ok
}

func (p ReadIs) Match(n *notification.Notification) bool {
	return n.IsRead == p.Read
}

func (p CreatedBetween) Match(n *notification.Notification) bool {
	if !p.From.IsZero() && n.CreatedAt.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && n.CreatedAt.After(p.To) {
		return false
	}
	return true
}

func (p And) Match(n *notification.Notification) bool {
	for _, sub := range p.Predicates {
		if !sub.Match(n) {
			return false
		}
	}
	return true
}

// foldText normalises s for case-insensitive comparison: NFC composition
// followed by Unicode case folding.
func foldText(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
