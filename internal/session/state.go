package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/results"
)

// ManufacturerKey identifies one manufacturer section within one group.
// Expansion state is keyed on the pair so equal manufacturer names under
// different groups stay independent.
type ManufacturerKey struct {
	GroupID      string
	Manufacturer string
}

// State is everything the presentation layer needs to draw one search
// cycle: the result tree, the loading/error/empty flags, and which parts
// of the tree the user has expanded. At most one group is expanded at a
// time; manufacturer sections expand independently underneath it.
type State struct {
	Query         string
	Groups        []results.DrugGroup
	Metrics       *api.Metrics
	QueryInfo     *api.QueryInfo
	Loading       bool
	ErrorMessage  string
	EmptyMessage  string
	LastUpdatedAt time.Time

	ExpandedGroupID       string
	ExpandedManufacturers map[ManufacturerKey]struct{}
}

// NewState returns an idle state with no results.
func NewState() *State {
	return &State{ExpandedManufacturers: make(map[ManufacturerKey]struct{})}
}

// BeginSearch optimistically clears the previous cycle and marks the
// state loading. Expansion is result-derived, so it resets here too.
func (s *State) BeginSearch(query string) {
	s.Query = query
	s.Loading = true
	s.ErrorMessage = ""
	s.EmptyMessage = ""
	s.Groups = nil
	s.Metrics = nil
	s.QueryInfo = nil
	s.ResetExpansion()
}

// ApplySuccess installs a successful response's result tree. An empty
// tree is not an error: the empty-state message prefers the backend's own
// wording and falls back to a generic one naming the query.
func (s *State) ApplySuccess(resp *api.SearchResponse, groups []results.DrugGroup, now time.Time) {
	s.Loading = false
	s.ErrorMessage = ""
	s.EmptyMessage = ""
	s.Groups = groups
	s.Metrics = resp.Metrics
	s.QueryInfo = resp.QueryInfo
	s.LastUpdatedAt = now
	if len(groups) == 0 {
		s.EmptyMessage = EmptyMessage(resp, s.Query)
	}
}

// Fail records a failed cycle: the message becomes visible and all result
// state clears.
func (s *State) Fail(message string) {
	s.Loading = false
	s.ErrorMessage = message
	s.EmptyMessage = ""
	s.Groups = nil
	s.Metrics = nil
	s.QueryInfo = nil
	s.ResetExpansion()
}

// ToggleGroup expands the group, replacing any previously expanded one.
// Toggling the expanded group closed clears every manufacturer expansion;
// switching straight to another group leaves them untouched.
func (s *State) ToggleGroup(groupID string) {
	if s.ExpandedGroupID == groupID {
		s.ExpandedGroupID = ""
		clear(s.ExpandedManufacturers)
		return
	}
	s.ExpandedGroupID = groupID
}

// ToggleManufacturer flips one manufacturer section open or closed.
func (s *State) ToggleManufacturer(key ManufacturerKey) {
	if s.ExpandedManufacturers == nil {
		s.ExpandedManufacturers = make(map[ManufacturerKey]struct{})
	}
	if _, ok := s.ExpandedManufacturers[key]; ok {
		delete(s.ExpandedManufacturers, key)
		return
	}
	s.ExpandedManufacturers[key] = struct{}{}
}

// ResetExpansion collapses the expanded group and every manufacturer
// section.
func (s *State) ResetExpansion() {
	s.ExpandedGroupID = ""
	clear(s.ExpandedManufacturers)
}

// GroupExpanded reports whether the given group is the open one.
func (s *State) GroupExpanded(groupID string) bool {
	return s.ExpandedGroupID == groupID
}

// ManufacturerExpanded reports whether one manufacturer section is open.
func (s *State) ManufacturerExpanded(key ManufacturerKey) bool {
	_, ok := s.ExpandedManufacturers[key]
	return ok
}

// EmptyMessage picks the text for a zero-result response: the backend's
// message wins, then the query-info message, then a generic line naming
// the submitted query.
func EmptyMessage(resp *api.SearchResponse, query string) string {
	if m := strings.TrimSpace(resp.Message); m != "" {
		return m
	}
	if resp.QueryInfo != nil {
		if m := strings.TrimSpace(resp.QueryInfo.Message); m != "" {
			return m
		}
	}
	return fmt.Sprintf("No matches for %q.", query)
}
