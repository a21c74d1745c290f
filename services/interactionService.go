package services

import (
	"context"
	"log"
	"sync"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/doug-martin/goqu/v9"
)

// toggleState tracks where one request id sits in the optimistic-update
// cycle. A toggle flips local state before the backend write and returns to
// synced either on confirmation or after rolling the flip back.
type toggleState int

const (
	stateSynced toggleState = iota
	stateApplied
	stateRollingBack
)

// InteractionStore holds one signed-in user's rendered view of prayer
// requests: the list itself, which requests the user has prayed for, and the
// prayer/comment counts. Local mutations apply here first and reconcile with
// the backend afterward.
type InteractionStore struct {
	userID string

	mu            sync.Mutex
	items         []models.FeedItem
	prayed        map[string]bool
	prayerCounts  map[string]int
	commentCounts map[string]int
	states        map[string]toggleState
	owners        map[string]string

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func newInteractionStore(userID string) *InteractionStore {
	return &InteractionStore{
		userID:        userID,
		prayed:        make(map[string]bool),
		prayerCounts:  make(map[string]int),
		commentCounts: make(map[string]int),
		states:        make(map[string]toggleState),
		owners:        make(map[string]string),
		locks:         make(map[string]*sync.Mutex),
	}
}

// Seed replaces the store's list and counts from a fresh fetch. prayedIDs is
// the set of request ids the user has already prayed for.
func (s *InteractionStore) Seed(items []models.FeedItem, prayedIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]models.FeedItem, len(items))
	copy(s.items, items)

	s.prayed = make(map[string]bool, len(prayedIDs))
	for _, id := range prayedIDs {
		s.prayed[id] = true
	}

	s.prayerCounts = make(map[string]int, len(items))
	s.commentCounts = make(map[string]int, len(items))
	s.owners = make(map[string]string, len(items))
	for _, item := range items {
		s.prayerCounts[item.ID] = item.Prayer_Count
		s.commentCounts[item.ID] = item.Comment_Count
		s.owners[item.ID] = item.User_ID
	}
}

// EnsureItem registers a request the store has not seen through a feed fetch,
// so detail-screen toggles reconcile against real counts.
func (s *InteractionStore) EnsureItem(requestID, ownerID string, prayerCount int, hasPrayed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[requestID]; ok {
		return
	}
	s.owners[requestID] = ownerID
	s.prayerCounts[requestID] = prayerCount
	if hasPrayed {
		s.prayed[requestID] = true
	}
}

// Items returns the rendered list with the store's membership and counts
// applied over the fetched rows.
func (s *InteractionStore) Items() []models.FeedItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.FeedItem, len(s.items))
	for i, item := range s.items {
		item.Prayer_Count = s.prayerCounts[item.ID]
		item.Comment_Count = s.commentCounts[item.ID]
		item.Has_Prayed = s.prayed[item.ID]
		out[i] = item
	}
	return out
}

func (s *InteractionStore) HasPrayed(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prayed[requestID]
}

func (s *InteractionStore) PrayerCount(requestID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prayerCounts[requestID]
}

// OwnerOf reports the author of a request the store has seen.
func (s *InteractionStore) OwnerOf(requestID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[requestID]
	return owner, ok
}

// RemoveItem filters a request out of the rendered list immediately,
// independent of whatever deletion path eventually succeeds against the
// backend. A later refetch reconciles.
func (s *InteractionStore) RemoveItem(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != requestID {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
}

// BumpCommentCount raises the rendered comment count after a successful
// comment write; the next refetch replaces it with the derived value.
func (s *InteractionStore) BumpCommentCount(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentCounts[requestID]++
}

// Toggle flips the user's "praying" state for a request. The membership flip
// and count delta apply before the backend write; a failed write rolls both
// back and reports the error. A successful insert additionally sends a
// best-effort notification to the request owner, whose failure never unwinds
// the toggle. Toggles for one request id are serialized, so a rapid second
// toggle waits for the first write to settle instead of racing it.
func (s *InteractionStore) Toggle(ctx context.Context, requestID, ownerID, actorUsername string) (bool, int, error) {
	lock := s.lockFor(requestID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	hadPrayed := s.prayed[requestID]
	s.applyLocked(requestID, !hadPrayed)
	s.states[requestID] = stateApplied
	s.mu.Unlock()

	// Exactly one mutation, chosen by the pre-toggle state.
	var err error
	if hadPrayed {
		_, err = initializers.DB.Delete("prayer_interactions").
			Where(goqu.Ex{"user_id": s.userID, "prayer_request_id": requestID}).
			Executor().ExecContext(ctx)
	} else {
		_, err = initializers.DB.Insert("prayer_interactions").
			Rows(goqu.Record{"user_id": s.userID, "prayer_request_id": requestID}).
			Executor().ExecContext(ctx)
	}

	s.mu.Lock()
	if err != nil {
		s.states[requestID] = stateRollingBack
		s.applyLocked(requestID, hadPrayed)
	}
	s.states[requestID] = stateSynced
	nowPrayed := s.prayed[requestID]
	count := s.prayerCounts[requestID]
	s.mu.Unlock()

	if err != nil {
		return nowPrayed, count, err
	}

	if !hadPrayed {
		if nErr := NotifyPrayerSupport(ctx, ownerID, s.userID, actorUsername, requestID); nErr != nil {
			log.Printf("prayer notification for request %s: %v", requestID, nErr)
		}
	}

	return nowPrayed, count, nil
}

// applyLocked sets membership and keeps the count in step. Caller holds mu.
func (s *InteractionStore) applyLocked(requestID string, praying bool) {
	if s.prayed[requestID] == praying {
		return
	}
	if praying {
		s.prayed[requestID] = true
		s.prayerCounts[requestID]++
	} else {
		delete(s.prayed, requestID)
		s.prayerCounts[requestID]--
	}
}

func (s *InteractionStore) lockFor(requestID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.locks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[requestID] = lock
	}
	return lock
}

// InteractionService hands out one InteractionStore per signed-in user. The
// store outlives any single connection, so an in-flight write resolving after
// a screen disconnects still lands in a live structure.
type InteractionService struct {
	mu     sync.Mutex
	stores map[string]*InteractionStore
}

var interactionService *InteractionService

func InitInteractionService() {
	interactionService = NewInteractionService()
}

func GetInteractionService() *InteractionService {
	return interactionService
}

func NewInteractionService() *InteractionService {
	return &InteractionService{stores: make(map[string]*InteractionStore)}
}

func (s *InteractionService) StoreFor(userID string) *InteractionStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[userID]
	if !ok {
		store = newInteractionStore(userID)
		s.stores[userID] = store
	}
	return store
}

// Reset drops all per-user stores. Intended for tests.
func (s *InteractionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = make(map[string]*InteractionStore)
}
