package preferences

import (
	"context"
	"errors"
	"maps"
)

// Repository defines the key-value operations the alarm store depends on.
type Repository interface {
	// Load returns a snapshot of every stored value.
	Load(ctx context.Context) (Values, error)
	// Edit starts a batch of changes applied atomically by Editor.Commit.
	Edit() Editor
	// Close releases backend resources.
	Close() error
}

// Editor buffers changes until Commit.
type Editor interface {
	PutString(key, value string) Editor
	PutInt(key string, value int) Editor
	PutBool(key string, value bool) Editor
	Remove(key string) Editor
	// Commit applies every buffered change or none of them.
	Commit(ctx context.Context) error
}

// ErrClosed is returned by operations on a closed repository.
var ErrClosed = errors.New("preferences repository is closed")

// Kind is the primitive type of a stored value.
type Kind int

// Supported value kinds.
const (
	KindString Kind = iota + 1
	KindInt
	KindBool
)

// Value is a single typed preference value.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Bool bool
}

// StringValue wraps s.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue wraps n.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Values is a read-only snapshot of the store.
// Getters return the default when the key is missing or holds another kind.
type Values map[string]Value

// Contains reports whether key is present.
func (v Values) Contains(key string) bool {
	_, ok := v[key]

	return ok
}

// GetString returns the string stored under key.
func (v Values) GetString(key, def string) string {
	if value, ok := v[key]; ok && value.Kind == KindString {
		return value.Str
	}

	return def
}

// GetInt returns the integer stored under key.
func (v Values) GetInt(key string, def int) int {
	if value, ok := v[key]; ok && value.Kind == KindInt {
		return int(value.Int)
	}

	return def
}

// GetBool returns the boolean stored under key.
func (v Values) GetBool(key string, def bool) bool {
	if value, ok := v[key]; ok && value.Kind == KindBool {
		return value.Bool
	}

	return def
}

// Changes is the set of modifications collected by an Editor.
type Changes struct {
	// Puts maps keys to their new values.
	Puts map[string]Value
	// Removes holds keys to delete.
	Removes map[string]struct{}
}

// Empty reports whether there is nothing to apply.
func (c *Changes) Empty() bool {
	return len(c.Puts) == 0 && len(c.Removes) == 0
}

// Apply returns a copy of values with the changes applied.
func (c *Changes) Apply(values Values) Values {
	result := make(Values, len(values)+len(c.Puts))
	maps.Copy(result, values)

	for key := range c.Removes {
		delete(result, key)
	}

	maps.Copy(result, c.Puts)

	return result
}

// applyFunc persists a batch of changes atomically.
type applyFunc func(ctx context.Context, changes *Changes) error

// editor is the Editor shared by every backend.
type editor struct {
	// changes accumulates the pending modifications.
	changes Changes
	// apply hands the batch to the backend.
	apply applyFunc
}

// newEditor creates an editor committing through apply.
func newEditor(apply applyFunc) *editor {
	return &editor{
		changes: Changes{
			Puts:    make(map[string]Value),
			Removes: make(map[string]struct{}),
		},
		apply: apply,
	}
}

func (e *editor) put(key string, value Value) Editor {
	delete(e.changes.Removes, key)
	e.changes.Puts[key] = value

	return e
}

// PutString buffers a string value.
func (e *editor) PutString(key, value string) Editor { return e.put(key, StringValue(value)) }

// PutInt buffers an integer value.
func (e *editor) PutInt(key string, value int) Editor { return e.put(key, IntValue(int64(value))) }

// PutBool buffers a boolean value.
func (e *editor) PutBool(key string, value bool) Editor { return e.put(key, BoolValue(value)) }

// Remove buffers a deletion. A later put of the same key wins.
func (e *editor) Remove(key string) Editor {
	delete(e.changes.Puts, key)
	e.changes.Removes[key] = struct{}{}

	return e
}

// Commit applies the buffered changes.
func (e *editor) Commit(ctx context.Context) error {
	if e.changes.Empty() {
		return nil
	}

	return e.apply(ctx, &e.changes)
}
