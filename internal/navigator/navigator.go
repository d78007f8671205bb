package navigator

import (
	"errors"
	"sync"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/store"

	"github.com/google/uuid"
)

// ErrEnd signals that the current section is the last one.
var ErrEnd = errors.New("no further sections")

type SectionState string

const (
	StateUntouched  SectionState = "untouched"
	StateInProgress SectionState = "in_progress"
	StateComplete   SectionState = "complete"
	StateInvalid    SectionState = "invalid"
)

// Progress is the per-document navigation summary used by dashboards.
type Progress struct {
	States    map[string]SectionState `json:"states"`
	Order     []string                `json:"order"`
	Complete  int                     `json:"complete"`
	Total     int                     `json:"total"`
	CanSubmit bool                    `json:"can_submit"`
}

// Navigator drives section-to-section movement. Navigation is never
// gated; users may visit sections in any order, which is why each
// section carries its own state instead of a linear progress counter.
type Navigator struct {
	store    *store.DocumentStore
	resolver store.RegistryResolver

	mu      sync.Mutex
	invalid map[uuid.UUID]map[string]bool
}

func New(docStore *store.DocumentStore, resolver store.RegistryResolver) *Navigator {
	return &Navigator{
		store:    docStore,
		resolver: resolver,
		invalid:  make(map[uuid.UUID]map[string]bool),
	}
}

// MarkInvalid records a failed validation for a section, moving it to
// the invalid state until a subsequent write succeeds.
func (n *Navigator) MarkInvalid(documentId uuid.UUID, sectionKey string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.invalid[documentId] == nil {
		n.invalid[documentId] = make(map[string]bool)
	}
	n.invalid[documentId][sectionKey] = true
}

func (n *Navigator) ClearInvalid(documentId uuid.UUID, sectionKey string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.invalid[documentId], sectionKey)
}

// Forget drops navigation state for a removed document.
func (n *Navigator) Forget(documentId uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.invalid, documentId)
}

func (n *Navigator) descriptors(report *entity.Report) ([]registry.Descriptor, error) {
	reg, err := n.resolver.RegistryFor(report.TemplateId, report.TemplateVersion)
	if err != nil {
		return nil, err
	}
	return reg.Describe(), nil
}

func (n *Navigator) sectionState(documentId uuid.UUID, report *entity.Report, key string) SectionState {
	n.mu.Lock()
	flagged := n.invalid[documentId][key]
	n.mu.Unlock()
	if flagged {
		return StateInvalid
	}

	// Presence in Sections means a write committed; even an empty value
	// moves the section past untouched.
	sec, ok := report.Sections[key]
	if !ok {
		return StateUntouched
	}
	if sec.Complete {
		return StateComplete
	}
	return StateInProgress
}

// SectionStates returns the state of every non-orphaned section in
// navigation order.
func (n *Navigator) SectionStates(documentId uuid.UUID) (map[string]SectionState, error) {
	report, err := n.store.Load(documentId)
	if err != nil {
		return nil, err
	}
	descriptors, err := n.descriptors(report)
	if err != nil {
		return nil, err
	}

	states := make(map[string]SectionState, len(descriptors))
	for _, d := range descriptors {
		states[d.Key] = n.sectionState(documentId, report, d.Key)
	}
	return states, nil
}

// Next returns the section following currentSectionKey in descriptor
// order, or ErrEnd past the last one.
func (n *Navigator) Next(documentId uuid.UUID, currentSectionKey string) (string, error) {
	report, err := n.store.Load(documentId)
	if err != nil {
		return "", err
	}
	descriptors, err := n.descriptors(report)
	if err != nil {
		return "", err
	}

	for i, d := range descriptors {
		if d.Key == currentSectionKey {
			if i+1 < len(descriptors) {
				return descriptors[i+1].Key, nil
			}
			return "", ErrEnd
		}
	}
	return "", ErrEnd
}

// JumpTo is allowed unconditionally; it only verifies the target exists.
func (n *Navigator) JumpTo(documentId uuid.UUID, sectionKey string) (registry.Descriptor, error) {
	report, err := n.store.Load(documentId)
	if err != nil {
		return registry.Descriptor{}, err
	}
	reg, err := n.resolver.RegistryFor(report.TemplateId, report.TemplateVersion)
	if err != nil {
		return registry.Descriptor{}, err
	}
	return reg.Resolve(sectionKey)
}

// CanSubmit is true only when every non-orphaned section is complete.
func (n *Navigator) CanSubmit(documentId uuid.UUID) (bool, error) {
	states, err := n.SectionStates(documentId)
	if err != nil {
		return false, err
	}
	for _, state := range states {
		if state != StateComplete {
			return false, nil
		}
	}
	return true, nil
}

func (n *Navigator) Progress(documentId uuid.UUID) (*Progress, error) {
	report, err := n.store.Load(documentId)
	if err != nil {
		return nil, err
	}
	descriptors, err := n.descriptors(report)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		States: make(map[string]SectionState, len(descriptors)),
		Order:  make([]string, 0, len(descriptors)),
		Total:  len(descriptors),
	}
	for _, d := range descriptors {
		state := n.sectionState(documentId, report, d.Key)
		p.States[d.Key] = state
		p.Order = append(p.Order, d.Key)
		if state == StateComplete {
			p.Complete++
		}
	}
	p.CanSubmit = p.Complete == p.Total && p.Total > 0
	return p, nil
}
