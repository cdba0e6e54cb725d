// Package store is the document store used for profiles and username
// reservations. A Store reads and overwrites single documents and commits
// batches of writes atomically: either every write in a batch applies or none
// does.
package store

import (
	"context"
	"errors"
	"slices"
)

var (
	ErrNotFound = errors.New("store: document not found")
	ErrExists   = errors.New("store: document already exists")
)

type Store interface {
	// Get decodes the document collection/id into dst, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst interface{}) error
	// Set overwrites the document collection/id.
	Set(ctx context.Context, collection, id string, doc interface{}) error
	Batch() Batch
}

// Batch collects writes until Commit. Update, ArrayUnion and ArrayRemove
// require the target document to exist; Create requires it not to.
type Batch interface {
	Set(collection, id string, doc interface{})
	Create(collection, id string, doc interface{})
	Delete(collection, id string)
	// Update assigns the given top-level fields and leaves the rest intact.
	Update(collection, id string, fields map[string]interface{})
	ArrayUnion(collection, id, field string, values ...string)
	ArrayRemove(collection, id, field string, values ...string)
	Commit(ctx context.Context) error
}

type OpKind string

const (
	OpSet    OpKind = "set"
	OpCreate OpKind = "create"
	OpDelete OpKind = "delete"
	OpUpdate OpKind = "update"
	OpUnion  OpKind = "union"
	OpRemove OpKind = "remove"
)

// Op is a single recorded batch write.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Doc        interface{}
	Fields     map[string]interface{}
	Field      string
	Values     []string
}

// CommitFunc applies recorded ops atomically.
type CommitFunc func(ctx context.Context, ops []Op) error

type opBatch struct {
	ops    []Op
	commit CommitFunc
}

// NewBatch returns a Batch that records writes and hands them to commit.
func NewBatch(commit CommitFunc) Batch {
	return &opBatch{commit: commit}
}

func (b *opBatch) Set(collection, id string, doc interface{}) {
	b.ops = append(b.ops, Op{Kind: OpSet, Collection: collection, ID: id, Doc: doc})
}

func (b *opBatch) Create(collection, id string, doc interface{}) {
	b.ops = append(b.ops, Op{Kind: OpCreate, Collection: collection, ID: id, Doc: doc})
}

func (b *opBatch) Delete(collection, id string) {
	b.ops = append(b.ops, Op{Kind: OpDelete, Collection: collection, ID: id})
}

func (b *opBatch) Update(collection, id string, fields map[string]interface{}) {
	b.ops = append(b.ops, Op{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields})
}

func (b *opBatch) ArrayUnion(collection, id, field string, values ...string) {
	b.ops = append(b.ops, Op{Kind: OpUnion, Collection: collection, ID: id, Field: field, Values: values})
}

func (b *opBatch) ArrayRemove(collection, id, field string, values ...string) {
	b.ops = append(b.ops, Op{Kind: OpRemove, Collection: collection, ID: id, Field: field, Values: values})
}

func (b *opBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.commit(ctx, b.ops)
}

// ApplyArrayOp computes the new value of an array field. Union appends values
// not yet present; remove drops every occurrence of the values.
func ApplyArrayOp(list []string, kind OpKind, values []string) []string {
	out := make([]string, 0, len(list)+len(values))
	switch kind {
	case OpUnion:
		out = append(out, list...)
		for _, v := range values {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	case OpRemove:
		for _, v := range list {
			if !slices.Contains(values, v) {
				out = append(out, v)
			}
		}
	default:
		out = append(out, list...)
	}
	return out
}
