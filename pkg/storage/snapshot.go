package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

var snapshotMagic = []byte("SYSCAT\x00\x01")

const snapshotFormat = 1

type snapshotDoc struct {
	Format   int             `msgpack:"format"`
	EngineID string          `msgpack:"engine_id"`
	SavedAt  int64           `msgpack:"saved_at"`
	Tables   []tableSnapshot `msgpack:"tables"`
}

type tableSnapshot struct {
	OID       uint32           `msgpack:"oid"`
	Name      string           `msgpack:"name"`
	Columns   []columnSnapshot `msgpack:"columns"`
	Indexes   []indexSnapshot  `msgpack:"indexes"`
	NextRowID uint64           `msgpack:"next_row_id"`
	Rows      []rowSnapshot    `msgpack:"rows"`
}

type columnSnapshot struct {
	Name    string `msgpack:"name"`
	Type    int    `msgpack:"type"`
	Primary bool   `msgpack:"primary,omitempty"`
	NotNull bool   `msgpack:"not_null,omitempty"`
}

type indexSnapshot struct {
	OID        uint32   `msgpack:"oid"`
	Name       string   `msgpack:"name"`
	Columns    []uint32 `msgpack:"columns"`
	Constraint int      `msgpack:"constraint"`
	Kind       string   `msgpack:"kind"`
}

type rowSnapshot struct {
	RowID uint64         `msgpack:"id"`
	Cells []cellSnapshot `msgpack:"cells"`
}

// cellSnapshot holds one value; which member is meaningful follows from the
// column type.
type cellSnapshot struct {
	Null  bool   `msgpack:"n,omitempty"`
	Int   int64  `msgpack:"i,omitempty"`
	Str   string `msgpack:"s,omitempty"`
	Bool  bool   `msgpack:"b,omitempty"`
	Bytes []byte `msgpack:"x,omitempty"`
}

// SnapshotInfo summarises a saved snapshot.
type SnapshotInfo struct {
	EngineID       uuid.UUID
	SavedAt        time.Time
	Tables         int
	Rows           int
	EncodedBytes   int
	CompressedSize int
}

// Save writes the committed state of every table. Rows inserted by a live
// transaction are skipped; rows a live transaction deleted are kept.
func (e *Engine) Save(w io.Writer) (SnapshotInfo, error) {
	doc := snapshotDoc{
		Format:   snapshotFormat,
		EngineID: e.id.String(),
		SavedAt:  time.Now().UTC().UnixMicro(),
	}
	info := SnapshotInfo{EngineID: e.id, SavedAt: time.UnixMicro(doc.SavedAt).UTC()}

	for _, t := range e.Tables() {
		ts := snapshotTable(t)
		info.Rows += len(ts.Rows)
		doc.Tables = append(doc.Tables, ts)
	}
	info.Tables = len(doc.Tables)

	payload, err := msgpack.Marshal(&doc)
	if err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "failed to encode snapshot")
	}
	info.EncodedBytes = len(payload)

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "failed to create zstd encoder")
	}
	defer encoder.Close()
	compressed := encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
	info.CompressedSize = len(snapshotMagic) + len(compressed)

	if _, err := w.Write(snapshotMagic); err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "failed to write snapshot")
	}
	if _, err := w.Write(compressed); err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "failed to write snapshot")
	}

	e.log.Info("snapshot saved", "tables", info.Tables, "rows", info.Rows, "bytes", info.CompressedSize)
	return info, nil
}

func snapshotTable(t *Table) tableSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ts := tableSnapshot{
		OID:       uint32(t.oid),
		Name:      t.name,
		NextRowID: uint64(t.nextRowID),
	}
	for _, c := range t.schema.Columns {
		ts.Columns = append(ts.Columns, columnSnapshot{
			Name:    c.Name,
			Type:    int(c.FieldType),
			Primary: c.IsPrimary,
			NotNull: c.NotNull,
		})
	}
	for _, ix := range t.indexes {
		cols := make([]uint32, len(ix.desc.Columns))
		for i, c := range ix.desc.Columns {
			cols[i] = uint32(c)
		}
		ts.Indexes = append(ts.Indexes, indexSnapshot{
			OID:        uint32(ix.desc.OID),
			Name:       ix.desc.Name,
			Columns:    cols,
			Constraint: int(ix.desc.Constraint),
			Kind:       string(ix.desc.Kind),
		})
	}
	t.rows.Ascend(func(v *version) bool {
		if v.xmin != noTxn {
			return true
		}
		row := rowSnapshot{RowID: uint64(v.rowID), Cells: make([]cellSnapshot, v.tup.NumFields())}
		for i := range row.Cells {
			f, _ := v.tup.GetField(i)
			row.Cells[i] = encodeCell(f)
		}
		ts.Rows = append(ts.Rows, row)
		return true
	})
	return ts
}

func encodeCell(f types.Field) cellSnapshot {
	switch v := f.(type) {
	case nil:
		return cellSnapshot{Null: true}
	case *types.IntField:
		return cellSnapshot{Int: v.Value}
	case *types.StringField:
		return cellSnapshot{Str: v.Value}
	case *types.BoolField:
		return cellSnapshot{Bool: v.Value}
	case *types.BinaryField:
		return cellSnapshot{Bytes: v.Value}
	case *types.TimestampField:
		return cellSnapshot{Int: v.Micros()}
	default:
		return cellSnapshot{Null: true}
	}
}

func decodeCell(c cellSnapshot, typ types.Type) (types.Field, error) {
	if c.Null {
		return nil, nil
	}
	switch typ {
	case types.IntType:
		return types.NewIntField(c.Int), nil
	case types.StringType:
		return types.NewVarcharField(c.Str), nil
	case types.BoolType:
		return types.NewBoolField(c.Bool), nil
	case types.BinaryType:
		if c.Bytes == nil {
			return types.NewBinaryField([]byte{}), nil
		}
		return types.NewBinaryField(c.Bytes), nil
	case types.TimestampType:
		return types.NewTimestampFieldFromMicros(c.Int), nil
	default:
		return nil, errors.Newf("unknown column type %d in snapshot", typ)
	}
}

// Load rebuilds an engine from a snapshot written by Save.
func Load(r io.Reader, opts Options) (*Engine, SnapshotInfo, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "failed to read snapshot")
	}
	if !bytes.HasPrefix(raw, snapshotMagic) {
		return nil, SnapshotInfo{}, errors.New("not a catalog snapshot")
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "failed to create zstd decoder")
	}
	defer decoder.Close()

	payload, err := decoder.DecodeAll(raw[len(snapshotMagic):], nil)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "failed to decompress snapshot")
	}

	var doc snapshotDoc
	if err := msgpack.Unmarshal(payload, &doc); err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "failed to decode snapshot")
	}
	if doc.Format != snapshotFormat {
		return nil, SnapshotInfo{}, errors.Newf("unsupported snapshot format %d", doc.Format)
	}
	id, err := uuid.Parse(doc.EngineID)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "snapshot engine id")
	}

	e := NewEngine(opts)
	e.id = id
	info := SnapshotInfo{
		EngineID:       id,
		SavedAt:        time.UnixMicro(doc.SavedAt).UTC(),
		Tables:         len(doc.Tables),
		EncodedBytes:   len(payload),
		CompressedSize: len(raw),
	}

	for _, ts := range doc.Tables {
		n, err := e.restoreTable(ts)
		if err != nil {
			return nil, SnapshotInfo{}, errors.Wrapf(err, "restore table %s", ts.Name)
		}
		info.Rows += n
	}

	e.log.Info("snapshot loaded", "engine_id", id.String(), "tables", info.Tables, "rows", info.Rows)
	return e, info, nil
}

func (e *Engine) restoreTable(ts tableSnapshot) (int, error) {
	b := schema.NewSchemaBuilder(primitives.OID(ts.OID), ts.Name)
	for _, c := range ts.Columns {
		typ := types.Type(c.Type)
		switch {
		case c.Primary:
			b.AddPrimaryKey(c.Name, typ)
		case c.NotNull:
			b.AddNotNullColumn(c.Name, typ)
		default:
			b.AddColumn(c.Name, typ)
		}
	}
	sch, err := b.Build()
	if err != nil {
		return 0, err
	}

	t, err := e.addTable(primitives.OID(ts.OID), ts.Name, sch)
	if err != nil {
		return 0, err
	}
	for _, is := range ts.Indexes {
		cols := make([]primitives.ColumnID, len(is.Columns))
		for i, c := range is.Columns {
			cols[i] = primitives.ColumnID(c)
		}
		err := t.addIndex(IndexDescriptor{
			OID:        primitives.OID(is.OID),
			Name:       is.Name,
			Columns:    cols,
			Constraint: primitives.IndexConstraint(is.Constraint),
			Kind:       primitives.IndexKind(is.Kind),
		})
		if err != nil {
			return 0, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range ts.Rows {
		if len(row.Cells) != t.schema.NumFields() {
			return 0, errors.Newf("row %d has %d cells, want %d", row.RowID, len(row.Cells), t.schema.NumFields())
		}
		tup := tuple.NewTuple(t.schema.TupleDesc)
		for i, c := range row.Cells {
			f, err := decodeCell(c, t.schema.Columns[i].FieldType)
			if err != nil {
				return 0, err
			}
			if err := tup.SetField(i, f); err != nil {
				return 0, err
			}
		}
		t.insertVersion(&version{rowID: primitives.RowID(row.RowID), tup: tup})
	}
	t.nextRowID = primitives.RowID(ts.NextRowID)
	return len(ts.Rows), nil
}

// SaveFile writes a snapshot to path atomically through a temporary file.
func (e *Engine) SaveFile(path string) (SnapshotInfo, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return SnapshotInfo{}, errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "create temporary snapshot")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	info, err := e.Save(tmp)
	if err != nil {
		_ = tmp.Close()
		return SnapshotInfo{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return SnapshotInfo{}, errors.Wrap(err, "sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return SnapshotInfo{}, errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return SnapshotInfo{}, errors.Wrapf(err, "install snapshot %s", path)
	}
	return info, nil
}

// LoadFile reads a snapshot written by SaveFile.
func LoadFile(path string, opts Options) (*Engine, SnapshotInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrapf(err, "open snapshot %s", path)
	}
	defer f.Close()
	return Load(f, opts)
}
