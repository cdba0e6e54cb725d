package store

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and ids directly onto Firestore documents.
type FirestoreStore struct {
	client *firestore.Client
	l      *zap.Logger
}

func NewFirestoreStore(client *firestore.Client, l *zap.Logger) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		l:      l,
	}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string, dst interface{}) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		s.l.Debug("failed to get document", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("store: firestore get error: %w", err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("store: failed to decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, doc); err != nil {
		s.l.Debug("failed to set document", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("store: firestore set error: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Batch() Batch {
	return NewBatch(s.commit)
}

func (s *FirestoreStore) commit(ctx context.Context, ops []Op) error {
	wb := s.client.Batch()
	for _, op := range ops {
		ref := s.client.Collection(op.Collection).Doc(op.ID)
		switch op.Kind {
		case OpSet:
			wb.Set(ref, op.Doc)
		case OpCreate:
			wb.Create(ref, op.Doc)
		case OpDelete:
			wb.Delete(ref)
		case OpUpdate:
			wb.Update(ref, toUpdates(op.Fields))
		case OpUnion:
			wb.Update(ref, []firestore.Update{{Path: op.Field, Value: firestore.ArrayUnion(toInterfaces(op.Values)...)}})
		case OpRemove:
			wb.Update(ref, []firestore.Update{{Path: op.Field, Value: firestore.ArrayRemove(toInterfaces(op.Values)...)}})
		default:
			return fmt.Errorf("store: unknown op %q", op.Kind)
		}
	}

	results, err := wb.Commit(ctx)
	if err != nil {
		s.l.Debug("failed to commit batch", zap.Int("ops", len(ops)), zap.Error(err))
		switch status.Code(err) {
		case codes.AlreadyExists:
			return fmt.Errorf("%w: %v", ErrExists, err)
		case codes.NotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("store: firestore batch commit error: %w", err)
	}
	s.l.Debug("firestore batch committed", zap.Int("writes", len(results)))
	return nil
}

// toUpdates sorts by path so the same fields always produce the same write.
func toUpdates(fields map[string]interface{}) []firestore.Update {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	updates := make([]firestore.Update, 0, len(paths))
	for _, path := range paths {
		updates = append(updates, firestore.Update{Path: path, Value: fields[path]})
	}
	return updates
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
