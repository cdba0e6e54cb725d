package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tarantool/go-tarantool"
	"go.uber.org/zap"
)

// commitLua applies a batch inside one Tarantool transaction. It returns "ok",
// or "exists"/"missing" followed by the offending key after rolling back.
const commitLua = `
local json = require('json')
local ops = ...

local function contains(list, v)
    for _, x in ipairs(list) do
        if x == v then return true end
    end
    return false
end

local function apply(op)
    local kind, space, id = op[1], box.space[op[2]], op[3]
    if space == nil then
        error('unknown space ' .. op[2])
    end
    if kind == 'set' then
        space:replace({ id, op[4] })
    elseif kind == 'create' then
        if space:get(id) ~= nil then return 'exists' end
        space:insert({ id, op[4] })
    elseif kind == 'delete' then
        space:delete(id)
    elseif kind == 'update' then
        local t = space:get(id)
        if t == nil then return 'missing' end
        local doc = json.decode(t[2])
        for field, value in pairs(json.decode(op[4])) do
            doc[field] = value
        end
        space:replace({ id, json.encode(doc) })
    else
        local t = space:get(id)
        if t == nil then return 'missing' end
        local doc = json.decode(t[2])
        local out = setmetatable({}, { __serialize = 'seq' })
        for _, v in ipairs(doc[op[4]] or {}) do
            if not (kind == 'remove' and contains(op[5], v)) then
                table.insert(out, v)
            end
        end
        if kind == 'union' then
            for _, v in ipairs(op[5]) do
                if not contains(out, v) then table.insert(out, v) end
            end
        end
        doc[op[4]] = out
        space:replace({ id, json.encode(doc) })
    end
    return nil
end

box.begin()
for _, op in ipairs(ops) do
    local ok, res = pcall(apply, op)
    if not ok then
        box.rollback()
        error(res)
    end
    if res ~= nil then
        box.rollback()
        return res, op[2] .. '/' .. op[3]
    end
end
box.commit()
return 'ok'
`

// TarantoolStore keeps documents as {id, json} tuples, one space per
// collection.
type TarantoolStore struct {
	db *tarantool.Connection
	l  *zap.Logger
}

func NewTarantoolStore(db *tarantool.Connection, l *zap.Logger) *TarantoolStore {
	return &TarantoolStore{
		db: db,
		l:  l,
	}
}

func (s *TarantoolStore) Get(_ context.Context, collection, id string, dst interface{}) error {
	resp, err := s.db.Select(collection, "primary", 0, 1, tarantool.IterEq, []interface{}{id})
	if err != nil {
		s.l.Debug("failed to select document", zap.String("collection", collection), zap.Error(err))
		return fmt.Errorf("store: database select error: %w", err)
	}
	s.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.Any("resp", resp.Data),
		zap.String("error", resp.Error))
	if len(resp.Data) == 0 {
		return ErrNotFound
	}
	tuple, ok := resp.Data[0].([]interface{})
	if !ok || len(tuple) < 2 {
		return fmt.Errorf("store: unexpected tuple %v in %s", resp.Data[0], collection)
	}
	raw, ok := tuple[1].(string)
	if !ok {
		return fmt.Errorf("store: unexpected document type %T in %s/%s", tuple[1], collection, id)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("store: failed to unmarshal %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *TarantoolStore) Set(_ context.Context, collection, id string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: json marshal error: %w", err)
	}
	resp, err := s.db.Replace(collection, []interface{}{id, string(b)})
	if err != nil {
		s.l.Debug("failed to replace document", zap.String("collection", collection), zap.Error(err))
		return fmt.Errorf("store: database replace error: %w", err)
	}
	s.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.String("error", resp.Error))
	return nil
}

func (s *TarantoolStore) Batch() Batch {
	return NewBatch(s.commit)
}

func (s *TarantoolStore) commit(_ context.Context, ops []Op) error {
	args, err := encodeOps(ops)
	if err != nil {
		return err
	}
	resp, err := s.db.Eval(commitLua, []interface{}{args})
	if err != nil {
		s.l.Debug("failed to commit batch", zap.Int("ops", len(ops)), zap.Error(err))
		return fmt.Errorf("store: batch commit error: %w", err)
	}
	s.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.Any("resp", resp.Data))
	return commitResult(resp.Data)
}

// encodeOps turns ops into the {kind, space, id, payload, values} tuples
// commitLua reads. The payload is the JSON document for set/create, the JSON
// field map for update and the field name for array ops.
func encodeOps(ops []Op) ([]interface{}, error) {
	args := make([]interface{}, 0, len(ops))
	for _, op := range ops {
		var payload interface{} = ""
		switch op.Kind {
		case OpSet, OpCreate:
			b, err := json.Marshal(op.Doc)
			if err != nil {
				return nil, fmt.Errorf("store: json marshal error: %w", err)
			}
			payload = string(b)
		case OpUpdate:
			b, err := json.Marshal(op.Fields)
			if err != nil {
				return nil, fmt.Errorf("store: json marshal error: %w", err)
			}
			payload = string(b)
		case OpUnion, OpRemove:
			payload = op.Field
		case OpDelete:
		default:
			return nil, fmt.Errorf("store: unknown op %q", op.Kind)
		}
		values := op.Values
		if values == nil {
			values = []string{}
		}
		args = append(args, []interface{}{string(op.Kind), op.Collection, op.ID, payload, values})
	}
	return args, nil
}

// commitResult maps the values returned by commitLua onto store errors.
func commitResult(data []interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("store: empty batch commit response")
	}
	status, _ := data[0].(string)
	var where string
	if len(data) > 1 {
		where, _ = data[1].(string)
	}
	switch status {
	case "ok":
		return nil
	case "exists":
		return fmt.Errorf("%w: %s", ErrExists, where)
	case "missing":
		return fmt.Errorf("%w: %s", ErrNotFound, where)
	default:
		return fmt.Errorf("store: unexpected batch commit status %v", data[0])
	}
}
