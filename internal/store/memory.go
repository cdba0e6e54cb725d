package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type document map[string]json.RawMessage

// MemoryStore keeps JSON documents in process. Batches are applied to a
// staged copy under one lock and swapped in only when every op succeeded.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]document)}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string, dst interface{}) error {
	s.mu.RLock()
	doc, ok := s.docs[collection][id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(b, dst)
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, v interface{}) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = doc
	return nil
}

func (s *MemoryStore) Batch() Batch {
	return NewBatch(s.commit)
}

func (s *MemoryStore) commit(_ context.Context, ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ collection, id string }
	staged := make(map[key]document)
	lookup := func(k key) (document, bool) {
		if d, ok := staged[k]; ok {
			return d, d != nil
		}
		d, ok := s.docs[k.collection][k.id]
		return d, ok
	}

	for _, op := range ops {
		k := key{op.Collection, op.ID}
		switch op.Kind {
		case OpSet, OpCreate:
			if _, exists := lookup(k); exists && op.Kind == OpCreate {
				return fmt.Errorf("%w: %s/%s", ErrExists, op.Collection, op.ID)
			}
			doc, err := toDocument(op.Doc)
			if err != nil {
				return err
			}
			staged[k] = doc
		case OpDelete:
			staged[k] = nil
		case OpUpdate:
			cur, exists := lookup(k)
			if !exists {
				return fmt.Errorf("%w: %s/%s", ErrNotFound, op.Collection, op.ID)
			}
			next := cur.clone()
			for f, v := range op.Fields {
				raw, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("store: encode field %s of %s/%s: %w", f, op.Collection, op.ID, err)
				}
				next[f] = raw
			}
			staged[k] = next
		case OpUnion, OpRemove:
			cur, exists := lookup(k)
			if !exists {
				return fmt.Errorf("%w: %s/%s", ErrNotFound, op.Collection, op.ID)
			}
			var list []string
			if raw, ok := cur[op.Field]; ok && string(raw) != "null" {
				if err := json.Unmarshal(raw, &list); err != nil {
					return fmt.Errorf("store: field %s of %s/%s is not a list: %w", op.Field, op.Collection, op.ID, err)
				}
			}
			raw, err := json.Marshal(ApplyArrayOp(list, op.Kind, op.Values))
			if err != nil {
				return err
			}
			next := cur.clone()
			next[op.Field] = raw
			staged[k] = next
		default:
			return fmt.Errorf("store: unknown op %q", op.Kind)
		}
	}

	for k, doc := range staged {
		if doc == nil {
			delete(s.collection(k.collection), k.id)
			continue
		}
		s.collection(k.collection)[k.id] = doc
	}
	return nil
}

func (s *MemoryStore) collection(name string) map[string]document {
	c, ok := s.docs[name]
	if !ok {
		c = make(map[string]document)
		s.docs[name] = c
	}
	return c
}

func (d document) clone() document {
	out := make(document, len(d)+1)
	for f, v := range d {
		out[f] = v
	}
	return out
}

func toDocument(v interface{}) (document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("store: document must be an object: %w", err)
	}
	return doc, nil
}
