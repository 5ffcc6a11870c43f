package preferences

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// filePermissions restricts the preferences document to its owner.
const filePermissions = 0o600

// FileRepository persists preferences as a JSON document on disk.
// JSON is produced and consumed via protojson over structpb.Struct, so numbers
// and booleans keep their type through a round trip.
type FileRepository struct {
	// path is the filesystem location of the JSON document.
	path string
	// lastSeen holds the bytes this repository last read or wrote.
	lastSeen []byte
	// mu serializes reads and writes of the document.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
// The file does not have to exist yet.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the document.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the document. A missing file is an empty store.
func (r *FileRepository) Load(_ context.Context) (Values, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, contents, err := r.read()
	if err != nil {
		return nil, err
	}

	r.lastSeen = contents

	return values, nil
}

// Edit starts a batch of changes.
func (r *FileRepository) Edit() Editor {
	return newEditor(r.apply)
}

// Close is a no-op; the document is never held open.
func (r *FileRepository) Close() error {
	return nil
}

// Modified reports whether the document changed since this repository last read or wrote it.
// It lets the watcher tell out-of-band edits apart from our own commits.
func (r *FileRepository) Modified(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read preferences file: %w", err)
	}

	return !bytes.Equal(contents, r.lastSeen), nil
}

// apply merges changes into the current document and atomically replaces it.
func (r *FileRepository) apply(_ context.Context, changes *Changes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, _, err := r.read()
	if err != nil {
		return err
	}

	document, err := toStruct(changes.Apply(current))
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	if err = writeFileAtomic(r.path, data); err != nil {
		return err
	}

	r.lastSeen = data

	return nil
}

// read loads and decodes the document without locking.
func (r *FileRepository) read() (Values, []byte, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(Values), nil, nil
		}

		return nil, nil, fmt.Errorf("read preferences file: %w", err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		return make(Values), contents, nil
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, nil, fmt.Errorf("decode preferences file: %w", err)
	}

	return fromStruct(&document), contents, nil
}

// writeFileAtomic writes data to a temporary sibling and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary preferences file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write preferences file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync preferences file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close preferences file: %w", err)
	}

	if err = os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("chmod preferences file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace preferences file: %w", err)
	}

	return nil
}

// fromStruct converts the protobuf document into typed values.
// Values of other JSON kinds (null, lists, objects) are skipped.
func fromStruct(document *structpb.Struct) Values {
	values := make(Values, len(document.GetFields()))

	for key, field := range document.GetFields() {
		switch kind := field.GetKind().(type) {
		case *structpb.Value_StringValue:
			values[key] = StringValue(kind.StringValue)
		case *structpb.Value_NumberValue:
			values[key] = IntValue(int64(math.Round(kind.NumberValue)))
		case *structpb.Value_BoolValue:
			values[key] = BoolValue(kind.BoolValue)
		}
	}

	return values
}

// toStruct converts typed values into the protobuf document.
func toStruct(values Values) (*structpb.Struct, error) {
	document := &structpb.Struct{
		Fields: make(map[string]*structpb.Value, len(values)),
	}

	for key, value := range values {
		switch value.Kind {
		case KindString:
			document.Fields[key] = structpb.NewStringValue(value.Str)
		case KindInt:
			document.Fields[key] = structpb.NewNumberValue(float64(value.Int))
		case KindBool:
			document.Fields[key] = structpb.NewBoolValue(value.Bool)
		default:
			return nil, fmt.Errorf("encode preference %q: unknown kind %d", key, value.Kind)
		}
	}

	return document, nil
}
