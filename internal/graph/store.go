// Package graph maintains the typed, directed dependency graph of project
// artifacts for a room: durable edges in SQLite fronted by an in-memory
// adjacency cache.
package graph

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
	"mend/internal/storage"
)

// adjacencyCacheSize bounds the number of cached adjacency lists.
// Evicted entries are re-filled from the store on the next lookup.
const adjacencyCacheSize = 4096

// EdgeStore is the durable edge persistence the graph store writes through to
type EdgeStore interface {
	Upsert(edge *storage.DependencyEdge) error
	ListByTarget(roomID, targetType, targetID string) ([]*storage.DependencyEdge, error)
	ListBySource(roomID, sourceType, sourceID string) ([]*storage.DependencyEdge, error)
	Count(roomID string) (int, error)
}

// TrackRequest describes one edge to track
type TrackRequest struct {
	SourceType       string                 `json:"sourceType"`
	SourceID         string                 `json:"sourceId"`
	TargetType       string                 `json:"targetType"`
	TargetID         string                 `json:"targetId"`
	RelationshipType RelationshipType       `json:"relationshipType"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Store owns all mutation of the dependency graph. The durable store is the
// single source of truth; the adjacency cache (keyed by the target node's
// "type:id") is strictly write-through — a failed durable write never leaves
// the cache holding an edge absent from storage.
type Store struct {
	roomID string
	edges  EdgeStore
	logger *logging.Logger

	// mu guards the get-then-add sequences on the cache; the LRU alone
	// only makes individual calls safe. gen counts durable writes so a
	// miss-fill is discarded when a write landed during its store read.
	mu    sync.RWMutex
	gen   uint64
	cache *lru.Cache[string, []*storage.DependencyEdge]
}

// NewStore creates a graph store for one room
func NewStore(roomID string, edges EdgeStore, logger *logging.Logger) (*Store, error) {
	cache, err := lru.New[string, []*storage.DependencyEdge](adjacencyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create adjacency cache: %w", err)
	}
	return &Store{
		roomID: roomID,
		edges:  edges,
		cache:  cache,
		logger: logger,
	}, nil
}

// RoomID returns the room this store serves
func (s *Store) RoomID() string {
	return s.roomID
}

// TrackDependency upserts an edge, computing its coupling strength from the
// relationship type and metadata flags. The durable write happens first;
// the cache is only touched once it succeeds.
func (s *Store) TrackDependency(ctx context.Context, req TrackRequest) (*storage.DependencyEdge, error) {
	if req.SourceType == "" || req.SourceID == "" || req.TargetType == "" || req.TargetID == "" {
		return nil, mendErrors.New(mendErrors.RelationshipInvalid,
			"edge source and target must both be set", nil)
	}
	if !KnownRelationship(req.RelationshipType) {
		return nil, mendErrors.New(mendErrors.RelationshipInvalid,
			fmt.Sprintf("unsupported relationship type %q", req.RelationshipType), nil)
	}

	edge := &storage.DependencyEdge{
		RoomID:           s.roomID,
		SourceType:       req.SourceType,
		SourceID:         req.SourceID,
		TargetType:       req.TargetType,
		TargetID:         req.TargetID,
		RelationshipType: string(req.RelationshipType),
		CouplingStrength: ComputeCouplingStrength(req.RelationshipType, req.Metadata),
		Metadata:         req.Metadata,
	}

	if err := s.edges.Upsert(edge); err != nil {
		return nil, mendErrors.New(mendErrors.StoreFailed, "failed to persist dependency edge", err)
	}

	s.cacheEdge(edge)

	s.logger.Debug("Tracked dependency", map[string]interface{}{
		"source":       edge.SourceKey(),
		"target":       edge.TargetKey(),
		"relationship": edge.RelationshipType,
		"strength":     edge.CouplingStrength,
	})

	return edge, nil
}

// Dependents returns the edges pointing at the given node, i.e. its direct
// dependents, serving from the adjacency cache when possible.
func (s *Store) Dependents(ctx context.Context, nodeType, nodeID string) ([]*storage.DependencyEdge, error) {
	key := nodeType + ":" + nodeID

	s.mu.RLock()
	cached, ok := s.cache.Get(key)
	gen := s.gen
	s.mu.RUnlock()
	if ok {
		out := make([]*storage.DependencyEdge, len(cached))
		copy(out, cached)
		return out, nil
	}

	edges, err := s.edges.ListByTarget(s.roomID, nodeType, nodeID)
	if err != nil {
		return nil, mendErrors.New(mendErrors.StoreFailed, "failed to load dependents", err)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(key, edges)
	}
	s.mu.Unlock()

	out := make([]*storage.DependencyEdge, len(edges))
	copy(out, edges)
	return out, nil
}

// Dependencies returns the edges originating at the given node
func (s *Store) Dependencies(ctx context.Context, nodeType, nodeID string) ([]*storage.DependencyEdge, error) {
	edges, err := s.edges.ListBySource(s.roomID, nodeType, nodeID)
	if err != nil {
		return nil, mendErrors.New(mendErrors.StoreFailed, "failed to load dependencies", err)
	}
	return edges, nil
}

// EdgeCount returns the number of edges in the room's graph
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	count, err := s.edges.Count(s.roomID)
	if err != nil {
		return 0, mendErrors.New(mendErrors.StoreFailed, "failed to count edges", err)
	}
	return count, nil
}

// cacheEdge merges a freshly written edge into the target node's cached
// adjacency list. Cache-miss entries are left absent and filled on demand.
func (s *Store) cacheEdge(edge *storage.DependencyEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++

	key := edge.TargetKey()
	cached, ok := s.cache.Get(key)
	if !ok {
		return
	}

	updated := make([]*storage.DependencyEdge, 0, len(cached)+1)
	replaced := false
	for _, existing := range cached {
		if existing.SourceKey() == edge.SourceKey() &&
			existing.RelationshipType == edge.RelationshipType {
			updated = append(updated, edge)
			replaced = true
			continue
		}
		updated = append(updated, existing)
	}
	if !replaced {
		updated = append(updated, edge)
	}

	s.cache.Add(key, updated)
}
