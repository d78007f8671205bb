package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type prfResolver struct{}

func (prfResolver) RegistryFor(templateId string, version int) (*registry.Registry, error) {
	return registry.PRF(), nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []SectionWrittenEvent
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var event SectionWrittenEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestStore(publisher EventPublisher) *DocumentStore {
	return NewDocumentStore(prfResolver{}, publisher, nil)
}

func newDraft(owner uuid.UUID) *entity.Report {
	now := time.Now()
	return &entity.Report{
		Id:              uuid.New(),
		OwnerId:         owner,
		TemplateId:      "prf",
		TemplateVersion: 1,
		Status:          entity.ReportStatusDraft,
		Sections:        map[string]*entity.Section{},
		LastModified:    now,
		CreatedAt:       now,
	}
}

func TestWriteSectionCommitsAndPublishes(t *testing.T) {
	publisher := &capturePublisher{}
	s := newTestStore(publisher)
	owner := uuid.New()
	s.SetUser(owner)

	draft := newDraft(owner)
	assert.NoError(t, s.Put(draft))
	before := s.Epoch(draft.Id)

	err := s.WriteSection(context.Background(), draft.Id, "patient-details", map[string]interface{}{
		"name": "Jan Kowalski",
	})
	assert.NoError(t, err)

	loaded, err := s.Load(draft.Id)
	assert.NoError(t, err)
	section := loaded.Sections["patient-details"]
	assert.NotNil(t, section)
	assert.True(t, section.Complete)
	assert.True(t, loaded.PendingSync)
	assert.Equal(t, entity.ReportStatusDraft, loaded.Status)
	assert.Equal(t, before+1, s.Epoch(draft.Id))

	assert.Len(t, publisher.events, 1)
	assert.Equal(t, draft.Id, publisher.events[0].ReportId)
	assert.Equal(t, "patient-details", publisher.events[0].SectionKey)
	assert.True(t, publisher.events[0].Complete)
}

func TestWriteSectionPartialIsNotComplete(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))

	err := s.WriteSection(context.Background(), draft.Id, "vital-signs", map[string]interface{}{
		"pulse": 72,
	})
	assert.NoError(t, err)

	loaded, _ := s.Load(draft.Id)
	assert.False(t, loaded.Sections["vital-signs"].Complete)
}

func TestWriteSectionValidationLeavesDocumentUnchanged(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	before := s.Epoch(draft.Id)

	err := s.WriteSection(context.Background(), draft.Id, "vital-signs", map[string]interface{}{
		"pulse":            -10,
		"respiratory_rate": 14,
	})

	var validationErr *apperr.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "vital-signs", validationErr.SectionKey)
	assert.NotEmpty(t, validationErr.Violations)

	loaded, _ := s.Load(draft.Id)
	assert.Nil(t, loaded.Sections["vital-signs"])
	assert.False(t, loaded.PendingSync)
	assert.Equal(t, before, s.Epoch(draft.Id))
}

func TestWriteSectionUnknownKey(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))

	err := s.WriteSection(context.Background(), draft.Id, "no-such-section", map[string]interface{}{"a": 1})
	assert.ErrorIs(t, err, apperr.ErrUnknownSection)
}

func TestSubmittedReportIsImmutable(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.SetStatus(draft.Id, entity.ReportStatusSubmitted))

	err := s.WriteSection(context.Background(), draft.Id, "notes", map[string]interface{}{"text": "late edit"})
	assert.ErrorIs(t, err, apperr.ErrImmutable)
}

func TestSyncedReportGoesDirtyOnEdit(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.MarkSynced(draft.Id, entity.ReportStatusSynced))

	err := s.WriteSection(context.Background(), draft.Id, "notes", map[string]interface{}{"text": "follow-up"})
	assert.NoError(t, err)

	loaded, _ := s.Load(draft.Id)
	assert.Equal(t, entity.ReportStatusDirty, loaded.Status)
	assert.True(t, loaded.PendingSync)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestStore(nil)
	owner := uuid.New()

	older := newDraft(owner)
	older.LastModified = time.Now().Add(-time.Hour)
	newer := newDraft(owner)
	newer.LastModified = time.Now()

	assert.NoError(t, s.Put(older))
	assert.NoError(t, s.Put(newer))

	summaries := s.List()
	assert.Len(t, summaries, 2)
	assert.Equal(t, newer.Id, summaries[0].Id)
	assert.Equal(t, older.Id, summaries[1].Id)
	assert.Equal(t, 14, summaries[0].TotalSections)
}

func TestLoadReturnsCopy(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "patient-details", map[string]interface{}{
		"name": "Jan Kowalski",
	}))

	first, _ := s.Load(draft.Id)
	first.Sections["patient-details"].Value["name"] = "tampered"

	second, _ := s.Load(draft.Id)
	assert.Equal(t, "Jan Kowalski", second.Sections["patient-details"].Value["name"])
}

func TestApplyRemoteTakesRemoteSectionsWhenNoLocalEdits(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	captured := s.Epoch(draft.Id)

	remote := draft.Clone()
	remote.Status = entity.ReportStatusSynced
	remote.Sections = map[string]*entity.Section{
		"notes": {Value: map[string]interface{}{"text": "from server"}, UpdatedAt: time.Now()},
	}

	merged, err := s.ApplyRemote(remote, captured)
	assert.NoError(t, err)
	assert.Equal(t, "from server", merged.Sections["notes"].Value["text"])
	assert.Equal(t, entity.ReportStatusSynced, merged.Status)
}

func TestApplyRemoteKeepsFasterLocalEdits(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	captured := s.Epoch(draft.Id)

	// Local edit lands while the remote fetch is in flight.
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "notes", map[string]interface{}{
		"text": "local wins",
	}))

	remote := draft.Clone()
	remote.Sections = map[string]*entity.Section{
		"notes":           {Value: map[string]interface{}{"text": "stale server copy"}, UpdatedAt: time.Now().Add(-time.Hour)},
		"patient-details": {Value: map[string]interface{}{"name": "Jan Kowalski"}, UpdatedAt: time.Now().Add(-time.Hour)},
	}

	merged, err := s.ApplyRemote(remote, captured)
	assert.NoError(t, err)
	assert.Equal(t, "local wins", merged.Sections["notes"].Value["text"])
	assert.Equal(t, "Jan Kowalski", merged.Sections["patient-details"].Value["name"])
	assert.True(t, merged.PendingSync)
}

func TestApplyRemoteOlderRemoteKeepsCommittedLocalEdits(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))

	// Committed before the reconcile captured the epoch, e.g. right
	// after a snapshot restore.
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "patient-details", map[string]interface{}{
		"name": "Jane Doe",
	}))
	captured := s.Epoch(draft.Id)

	remote := draft.Clone()
	remote.Status = entity.ReportStatusSynced
	remote.Sections = map[string]*entity.Section{
		"notes": {Value: map[string]interface{}{"text": "from server"}, UpdatedAt: time.Now().Add(-time.Hour)},
	}

	merged, err := s.ApplyRemote(remote, captured)
	assert.NoError(t, err)
	section := merged.Sections["patient-details"]
	assert.NotNil(t, section)
	assert.Equal(t, "Jane Doe", section.Value["name"])
	assert.Equal(t, "from server", merged.Sections["notes"].Value["text"])
	assert.True(t, merged.PendingSync)
}

func TestApplyRemoteNewerRemoteSectionWins(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "notes", map[string]interface{}{
		"text": "local",
	}))
	captured := s.Epoch(draft.Id)

	remote := draft.Clone()
	remote.Sections = map[string]*entity.Section{
		"notes": {Value: map[string]interface{}{"text": "edited elsewhere"}, UpdatedAt: time.Now().Add(time.Hour)},
	}

	merged, err := s.ApplyRemote(remote, captured)
	assert.NoError(t, err)
	assert.Equal(t, "edited elsewhere", merged.Sections["notes"].Value["text"])
}

func TestApplyRemoteMarksOrphans(t *testing.T) {
	s := newTestStore(nil)
	remote := newDraft(uuid.New())
	remote.Sections = map[string]*entity.Section{
		"retired-section": {Value: map[string]interface{}{"legacy": true}, UpdatedAt: time.Now()},
	}

	merged, err := s.ApplyRemote(remote, 0)
	assert.NoError(t, err)
	assert.True(t, merged.Sections["retired-section"].Orphaned)
	assert.False(t, merged.Sections["retired-section"].Complete)
}

func TestMarkSynced(t *testing.T) {
	s := newTestStore(nil)
	draft := newDraft(uuid.New())
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "notes", map[string]interface{}{"text": "x"}))

	assert.NoError(t, s.MarkSynced(draft.Id, entity.ReportStatusSynced))
	loaded, _ := s.Load(draft.Id)
	assert.False(t, loaded.PendingSync)
	assert.Equal(t, entity.ReportStatusSynced, loaded.Status)

	assert.ErrorIs(t, s.MarkSynced(uuid.New(), entity.ReportStatusSynced), apperr.ErrNotFound)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestStore(nil)
	owner := uuid.New()
	s.SetUser(owner)

	draft := newDraft(owner)
	assert.NoError(t, s.Put(draft))
	assert.NoError(t, s.WriteSection(context.Background(), draft.Id, "transportation", map[string]interface{}{
		"mode": "ambulance",
	}))
	s.SetNote(draft.Id, "handover pending")

	blob, err := s.Snapshot()
	assert.NoError(t, err)

	restored := newTestStore(nil)
	assert.NoError(t, restored.Restore(blob))

	assert.Equal(t, owner, restored.User())
	loaded, err := restored.Load(draft.Id)
	assert.NoError(t, err)
	assert.Equal(t, "ambulance", loaded.Sections["transportation"].Value["mode"])
	assert.True(t, loaded.Sections["transportation"].Complete)
	assert.True(t, loaded.PendingSync)
	assert.Equal(t, "handover pending", restored.Note(draft.Id))
}

func TestRestoreRejectsCorruptBlob(t *testing.T) {
	s := newTestStore(nil)
	assert.Error(t, s.Restore([]byte("{not json")))
}

func TestClearAllWipesWorkingSet(t *testing.T) {
	s := newTestStore(nil)
	owner := uuid.New()
	s.SetUser(owner)
	draft := newDraft(owner)
	assert.NoError(t, s.Put(draft))
	s.SetNote(draft.Id, "private")

	s.ClearAll()

	assert.Equal(t, uuid.Nil, s.User())
	_, err := s.Load(draft.Id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, s.Note(draft.Id))
	assert.Empty(t, s.List())
}

func TestNotesLifecycle(t *testing.T) {
	s := newTestStore(nil)
	id := uuid.New()

	assert.Empty(t, s.Note(id))
	s.SetNote(id, "check allergies")
	assert.Equal(t, "check allergies", s.Note(id))
	s.ClearNote(id)
	assert.Empty(t, s.Note(id))
}
