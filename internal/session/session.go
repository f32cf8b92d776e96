// Package session holds the stateful edit session for the condition set of
// one device type: the last saved snapshot, the working copy and the derived
// validation state. Pure rules live in internal/condition.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/types"
)

/*
 * Edit session state machine.
 *
 * States:
 *   - Clean:   working copy equals the snapshot
 *   - Dirty:   any content difference; Save enabled only if also valid
 *   - Loading: fetch in flight, working copy stale until resolved
 *
 * Every mutating method ends with recompute(), which re-runs ValidateSet and
 * the dirty check. Derived state is never updated anywhere else.
 *
 * Snapshot and working copy own independent deep copies. Accessors return
 * clones so callers cannot reach into either.
 *
 * Gateway I/O runs without the lock held. A busy flag rejects a second Save
 * or Delete while the first is awaited.
 */

// State is the coarse session state.
type State int

const (
	StateClean State = iota
	StateDirty
	StateLoading
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Session edits the condition set of one device type.
type Session struct {
	objectID types.ObjectID
	gateway  Gateway
	logger   *zap.Logger

	mu         sync.Mutex
	catalog    condition.Catalog
	original   []entry
	editing    []entry
	validation condition.SetResult
	dirty      bool
	loading    bool
	busy       bool
	nextKey    int
}

// New creates an empty session. Call Load to fetch the persisted set.
// A nil logger discards output.
func New(objectID types.ObjectID, gateway Gateway, catalog condition.Catalog, logger *zap.Logger) (*Session, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		objectID: objectID,
		gateway:  gateway,
		logger:   logger.With(zap.String("object_id", objectID)),
		catalog:  catalog,
	}
	s.recompute()
	return s, nil
}

// ObjectID returns the device type this session edits.
func (s *Session) ObjectID() types.ObjectID {
	return s.objectID
}

// Load fetches the persisted set and resyncs. An empty objectID is a no-op.
// On failure the session keeps its prior state.
func (s *Session) Load(ctx context.Context) error {
	if s.objectID == "" {
		return nil
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.gateway.FetchConditions(ctx, s.objectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.Warn("failed to fetch conditions", zap.Error(err))
		return fmt.Errorf("failed to fetch conditions: %w", err)
	}

	s.resyncLocked(list)
	s.logger.Debug("conditions loaded", zap.Int("count", len(list)))
	return nil
}

// Resync replaces snapshot and working copy with list. Unsaved edits are
// discarded.
func (s *Session) Resync(list []types.EventCondition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resyncLocked(list)
}

func (s *Session) resyncLocked(list []types.EventCondition) {
	entries := make([]entry, len(list))
	for i, c := range list {
		entries[i] = s.newEntry(c.Clone())
	}
	s.original = sortEntries(entries)
	s.editing = cloneEntries(s.original)
	s.recompute()
}

// newEntry keys c by id, or by a fresh synthetic key when c is new.
func (s *Session) newEntry(c types.EventCondition) entry {
	if !c.IsNew() {
		return entry{key: persistedKey(c.ID), cond: c}
	}
	s.nextKey++
	return entry{key: fmt.Sprintf("new-%d", s.nextKey), cond: c}
}

// SetCatalog replaces the field catalog and revalidates.
func (s *Session) SetCatalog(catalog condition.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
	s.recompute()
}

// Catalog returns the current field catalog.
func (s *Session) Catalog() condition.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Add prepends a default record.
func (s *Session) Add() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = append([]entry{s.newEntry(condition.NewDefault(s.objectID))}, s.editing...)
	s.recompute()
}

// Remove drops the record at index from the working copy. Nothing is sent to
// the gateway; Cancel brings it back.
func (s *Session) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.editing) {
		return types.ErrIndexOutOfRange
	}
	s.editing = append(s.editing[:index:index], s.editing[index+1:]...)
	s.recompute()
	return nil
}

// Import replaces the working copy with list. Records are forced onto this
// session's objectID and shown in display order. The snapshot is untouched,
// so the result is a regular dirty edit.
func (s *Session) Import(list []types.EventCondition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]entry, len(list))
	for i, c := range list {
		c = c.Clone()
		c.ObjectID = s.objectID
		entries[i] = s.newEntry(c)
	}
	s.editing = sortEntries(entries)
	s.recompute()
}

// Cancel restores the working copy from the snapshot.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = cloneEntries(s.original)
	s.recompute()
}

// Delete removes a persisted record through the gateway, then reloads.
// Unlike Remove this is immediate and cannot be cancelled.
func (s *Session) Delete(ctx context.Context, id types.ConditionID) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.gateway.DeleteCondition(ctx, id, s.objectID); err != nil {
		s.logger.Warn("failed to delete condition", zap.String("condition_id", string(id)), zap.Error(err))
		return fmt.Errorf("failed to delete condition: %w", err)
	}
	s.logger.Info("condition deleted", zap.String("condition_id", string(id)))

	return s.Load(ctx)
}

// Save sends the whole working copy to the gateway. On success the response
// becomes the new snapshot; when the gateway returns no body the set is
// refetched. On failure the working copy is left exactly as it was.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.saveGateLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	payload := conditionsOf(s.editing)
	s.busy = true
	s.mu.Unlock()
	defer s.release()

	saved, err := s.gateway.ReplaceAllConditions(ctx, s.objectID, payload)
	if err != nil {
		s.logger.Warn("failed to save conditions", zap.Int("count", len(payload)), zap.Error(err))
		return fmt.Errorf("failed to save conditions: %w", err)
	}
	s.logger.Info("conditions saved", zap.Int("count", len(payload)))

	if saved == nil {
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("conditions saved but reload failed: %w", err)
		}
		return nil
	}

	s.Resync(saved)
	return nil
}

func (s *Session) saveGateLocked() error {
	switch {
	case !s.dirty:
		return ErrNothingToSave
	case !s.validation.HasConditions:
		return ErrNoConditions
	case !s.validation.IsValid:
		return ErrInvalidConditions
	default:
		return nil
	}
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// recompute refreshes validation and the dirty flag. Caller holds mu.
func (s *Session) recompute() {
	s.validation = condition.ValidateSet(s.editingConditions(), s.catalog)
	s.dirty = changed(s.original, s.editing)
}

// editingConditions returns the working copy without cloning. Caller holds mu
// and must not retain the result.
func (s *Session) editingConditions() []types.EventCondition {
	out := make([]types.EventCondition, len(s.editing))
	for i, e := range s.editing {
		out[i] = e.cond
	}
	return out
}

// Conditions returns a copy of the working copy in display order.
func (s *Session) Conditions() []types.EventCondition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conditionsOf(s.editing)
}

// Original returns a copy of the last saved snapshot.
func (s *Session) Original() []types.EventCondition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conditionsOf(s.original)
}

// HasUnsavedChanges reports whether the working copy differs from the snapshot.
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Validation returns the set result for the working copy.
func (s *Session) Validation() condition.SetResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validation
}

// CanSave is hasUnsavedChanges && isValid && hasConditions.
func (s *Session) CanSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveGateLocked() == nil
}

// State returns the coarse session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.loading:
		return StateLoading
	case s.dirty:
		return StateDirty
	default:
		return StateClean
	}
}

// RequiredFieldsStatus reports which inputs of the record at index need attention.
func (s *Session) RequiredFieldsStatus(index int) (condition.FieldStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.editing) {
		return condition.FieldStatus{}, types.ErrIndexOutOfRange
	}
	return condition.RequiredFieldsStatus(s.editing[index].cond, s.catalog), nil
}
