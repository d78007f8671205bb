package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/registry"

	"github.com/google/uuid"
)

// RegistryResolver yields the section registry governing a document.
// The fixed PRF and fetched templates both resolve through this.
type RegistryResolver interface {
	RegistryFor(templateId string, version int) (*registry.Registry, error)
}

// EventPublisher receives a serialized event after every committed write.
type EventPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// SectionWrittenEvent is published on every successful section commit.
// Subscribers filter on ReportId/SectionKey, so editors of unrelated
// sections never react.
type SectionWrittenEvent struct {
	ReportId   uuid.UUID `json:"report_id"`
	SectionKey string    `json:"section_key"`
	Complete   bool      `json:"complete"`
	WrittenAt  time.Time `json:"written_at"`
}

// Summary is the dashboard row for a document.
type Summary struct {
	Id               uuid.UUID           `json:"id"`
	OwnerId          uuid.UUID           `json:"owner_id"`
	TemplateId       string              `json:"template_id"`
	Status           entity.ReportStatus `json:"status"`
	LastModified     time.Time           `json:"last_modified"`
	CompleteSections int                 `json:"complete_sections"`
	TotalSections    int                 `json:"total_sections"`
	PendingSync      bool                `json:"pending_sync"`
}

type record struct {
	report *entity.Report
	epoch  uint64
}

// DocumentStore is the single source of truth for all in-progress
// documents in the current session. Writes are section-scoped and
// all-or-nothing; every successful write bumps the document's epoch and
// emits a SectionWrittenEvent so the flusher and any mounted editor can
// react.
type DocumentStore struct {
	mu        sync.RWMutex
	user      uuid.UUID
	docs      map[uuid.UUID]*record
	notes     map[uuid.UUID]string
	resolver  RegistryResolver
	publisher EventPublisher
	logger    logger.ILogger
}

func NewDocumentStore(resolver RegistryResolver, publisher EventPublisher, log logger.ILogger) *DocumentStore {
	return &DocumentStore{
		docs:      make(map[uuid.UUID]*record),
		notes:     make(map[uuid.UUID]string),
		resolver:  resolver,
		publisher: publisher,
		logger:    log,
	}
}

// SetUser binds the working set to an identity. ClearAll on logout keeps
// state from leaking across identities.
func (s *DocumentStore) SetUser(userId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = userId
}

func (s *DocumentStore) User() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Load returns a copy of the current in-memory document.
// apperr.ErrNotFound signals the caller to run the reconciler.
func (s *DocumentStore) Load(documentId uuid.UUID) (*entity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.docs[documentId]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return rec.report.Clone(), nil
}

// Put materializes a document (new or reconciled) in the store.
// Completeness flags are recomputed against the registry.
func (s *DocumentStore) Put(report *entity.Report) error {
	reg, err := s.resolver.RegistryFor(report.TemplateId, report.TemplateVersion)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := report.Clone()
	recomputeCompleteness(clone, reg)

	rec, ok := s.docs[report.Id]
	if !ok {
		rec = &record{}
		s.docs[report.Id] = rec
	}
	rec.report = clone
	return nil
}

// WriteSection validates and commits a single section value. On a
// validation failure the document is left byte-for-byte unchanged and
// the field violations are returned.
func (s *DocumentStore) WriteSection(ctx context.Context, documentId uuid.UUID, sectionKey string, value map[string]interface{}) error {
	s.mu.Lock()

	rec, ok := s.docs[documentId]
	if !ok {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	if rec.report.Status == entity.ReportStatusSubmitted {
		s.mu.Unlock()
		return apperr.ErrImmutable
	}

	reg, err := s.resolver.RegistryFor(rec.report.TemplateId, rec.report.TemplateVersion)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	descriptor, err := reg.Resolve(sectionKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if violations := descriptor.Schema.Validate(value); len(violations) > 0 {
		s.mu.Unlock()
		return &apperr.ValidationError{SectionKey: sectionKey, Violations: violations}
	}

	now := time.Now()
	section := &entity.Section{
		Value:     value,
		Complete:  descriptor.Schema.Complete(value),
		UpdatedAt: now,
	}
	if rec.report.Sections == nil {
		rec.report.Sections = make(map[string]*entity.Section)
	}
	rec.report.Sections[sectionKey] = section
	rec.report.LastModified = now
	// A document that had reached synced goes dirty on its next edit.
	if rec.report.Status == entity.ReportStatusSynced {
		rec.report.Status = entity.ReportStatusDirty
	}
	rec.report.PendingSync = true
	rec.epoch++

	event := SectionWrittenEvent{
		ReportId:   documentId,
		SectionKey: sectionKey,
		Complete:   section.Complete,
		WrittenAt:  now,
	}
	publisher := s.publisher
	s.mu.Unlock()

	if publisher != nil {
		payload, _ := json.Marshal(event)
		if err := publisher.Publish(ctx, payload); err != nil && s.logger != nil {
			s.logger.Warn("DocumentStore", "Failed to publish section event", map[string]interface{}{
				"report_id": documentId.String(),
				"section":   sectionKey,
				"error":     err.Error(),
			})
		}
	}
	return nil
}

// List returns document summaries ordered by last modification,
// newest first.
func (s *DocumentStore) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.docs))
	for _, rec := range s.docs {
		out = append(out, s.summarize(rec.report))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out
}

func (s *DocumentStore) summarize(report *entity.Report) Summary {
	total := 0
	if reg, err := s.resolver.RegistryFor(report.TemplateId, report.TemplateVersion); err == nil {
		total = reg.Len()
	}
	complete := 0
	for _, sec := range report.Sections {
		if sec.Complete && !sec.Orphaned {
			complete++
		}
	}
	return Summary{
		Id:               report.Id,
		OwnerId:          report.OwnerId,
		TemplateId:       report.TemplateId,
		Status:           report.Status,
		LastModified:     report.LastModified,
		CompleteSections: complete,
		TotalSections:    total,
		PendingSync:      report.PendingSync,
	}
}

func (s *DocumentStore) Remove(documentId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentId)
	delete(s.notes, documentId)
}

// ClearAll wipes the whole working set. Called on logout; nothing from
// the previous identity must remain loadable.
func (s *DocumentStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[uuid.UUID]*record)
	s.notes = make(map[uuid.UUID]string)
	s.user = uuid.Nil
}

// Reset is the explicit lifecycle entry point for a fresh session.
func (s *DocumentStore) Reset() {
	s.ClearAll()
}

// Epoch returns the write epoch of a document, 0 when absent. The
// reconciler captures it before fetching; writes landing mid-flight
// keep the document marked pending after the merge.
func (s *DocumentStore) Epoch(documentId uuid.UUID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.docs[documentId]; ok {
		return rec.epoch
	}
	return 0
}

// ApplyRemote merges a resolved remote document on top of local state.
// Committed local sections always survive; a remote section replaces a
// local one only when it is strictly newer. The remote copy is taken
// wholesale only when no local copy exists at all.
func (s *DocumentStore) ApplyRemote(remote *entity.Report, sinceEpoch uint64) (*entity.Report, error) {
	reg, err := s.resolver.RegistryFor(remote.TemplateId, remote.TemplateVersion)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[remote.Id]
	if !ok {
		clone := remote.Clone()
		recomputeCompleteness(clone, reg)
		s.docs[remote.Id] = &record{report: clone}
		return clone.Clone(), nil
	}

	merged := remote.Clone()
	for key, local := range rec.report.Sections {
		remoteSec, exists := merged.Sections[key]
		if !exists || !remoteSec.UpdatedAt.After(local.UpdatedAt) {
			merged.Sections[key] = local.Clone()
		}
	}
	if rec.report.LastModified.After(merged.LastModified) {
		merged.LastModified = rec.report.LastModified
		merged.Status = rec.report.Status
	}
	// Local edits that never reached the remote keep the document
	// pending, whatever the fetched copy claims.
	if rec.report.PendingSync || rec.epoch > sinceEpoch {
		merged.PendingSync = true
	}
	recomputeCompleteness(merged, reg)
	rec.report = merged
	return merged.Clone(), nil
}

// MarkSynced clears the pending flag after a successful remote save and
// records the given status.
func (s *DocumentStore) MarkSynced(documentId uuid.UUID, status entity.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[documentId]
	if !ok {
		return apperr.ErrNotFound
	}
	rec.report.PendingSync = false
	rec.report.Status = status
	return nil
}

func (s *DocumentStore) SetStatus(documentId uuid.UUID, status entity.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[documentId]
	if !ok {
		return apperr.ErrNotFound
	}
	rec.report.Status = status
	return nil
}

// Notes: independent lifecycle from the document sections.

func (s *DocumentStore) Note(documentId uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes[documentId]
}

func (s *DocumentStore) SetNote(documentId uuid.UUID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[documentId] = text
}

func (s *DocumentStore) ClearNote(documentId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, documentId)
}

func recomputeCompleteness(report *entity.Report, reg *registry.Registry) {
	for key, sec := range report.Sections {
		descriptor, err := reg.Resolve(key)
		if err != nil {
			sec.Orphaned = true
			sec.Complete = false
			continue
		}
		sec.Complete = descriptor.Schema.Complete(sec.Value)
	}
}

// persistedState is the serialized blob layout. Field names are part of
// the storage compatibility contract.
type persistedState struct {
	User              uuid.UUID            `json:"user"`
	Documents         []*entity.Report     `json:"documents"`
	NotesByDocumentId map[uuid.UUID]string `json:"notesByDocumentId"`
}

// Snapshot serializes the full working set.
func (s *DocumentStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := persistedState{
		User:              s.user,
		Documents:         make([]*entity.Report, 0, len(s.docs)),
		NotesByDocumentId: make(map[uuid.UUID]string, len(s.notes)),
	}
	for _, rec := range s.docs {
		state.Documents = append(state.Documents, rec.report.Clone())
	}
	sort.Slice(state.Documents, func(i, j int) bool {
		return state.Documents[i].LastModified.After(state.Documents[j].LastModified)
	})
	for id, text := range s.notes {
		state.NotesByDocumentId[id] = text
	}
	return json.Marshal(state)
}

// Restore loads a snapshot back. Completeness flags are recomputed
// against the registry; for a clean snapshot they match what was stored.
func (s *DocumentStore) Restore(blob []byte) error {
	var state persistedState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("corrupt snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = state.User
	s.docs = make(map[uuid.UUID]*record, len(state.Documents))
	for _, report := range state.Documents {
		if reg, err := s.resolver.RegistryFor(report.TemplateId, report.TemplateVersion); err == nil {
			recomputeCompleteness(report, reg)
		}
		s.docs[report.Id] = &record{report: report}
	}
	s.notes = make(map[uuid.UUID]string, len(state.NotesByDocumentId))
	for id, text := range state.NotesByDocumentId {
		s.notes[id] = text
	}
	return nil
}
