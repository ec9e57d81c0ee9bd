package plink

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

const indexSchema = `
CREATE TABLE Metadata (
	filename TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	last_write_time INTEGER NOT NULL,
	first_1000_bytes BLOB NOT NULL,
	index_creation_time INTEGER NOT NULL,
	n_variants INTEGER NOT NULL,
	n_samples INTEGER NOT NULL,
	layout INTEGER NOT NULL
);
CREATE TABLE Variant (
	variant_index INTEGER PRIMARY KEY,
	contig TEXT NULL,
	position INTEGER NOT NULL,
	variant_id TEXT NOT NULL,
	allele1 TEXT NOT NULL,
	allele2 TEXT NOT NULL,
	file_start_position INTEGER NULL,
	size_in_bytes INTEGER NULL
);
CREATE INDEX variant_region ON Variant (contig, position);
CREATE INDEX variant_id_lookup ON Variant (variant_id);
`

// BIMIndex is a SQLite index of a fileset's variants, keyed by region and
// identifier, so callers can find the variants-axis positions to slice
// without scanning the .bim.
type BIMIndex struct {
	DB       *sqlx.DB
	Metadata *IndexMetadata
}

// IndexMetadata conforms to the single row of the "Metadata" table.
type IndexMetadata struct {
	Filename           string `db:"filename"`
	FileSize           int64  `db:"file_size"`
	LastWriteTime      Time   `db:"last_write_time"`
	FirstThousandBytes []byte `db:"first_1000_bytes"`
	IndexCreationTime  Time   `db:"index_creation_time"`
	NVariants          int    `db:"n_variants"`
	NSamples           int    `db:"n_samples"`
	Layout             Layout `db:"layout"`
}

// VariantIndex conforms to the rows of the "Variant" table. FileStartPosition
// and SizeInBytes locate the variant's block in variant-major .bed files and
// are null otherwise.
type VariantIndex struct {
	VariantIndex      int            `db:"variant_index"`
	Contig            sql.NullString `db:"contig"`
	Position          int32          `db:"position"`
	VariantID         string         `db:"variant_id"`
	Allele1           string         `db:"allele1"`
	Allele2           string         `db:"allele2"`
	FileStartPosition sql.NullInt64  `db:"file_start_position"`
	SizeInBytes       sql.NullInt64  `db:"size_in_bytes"`
}

// WhichSQLiteDriver names the database/sql driver indexes are opened with.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}

func (b *BIMIndex) Close() error {
	return b.DB.Close()
}

// indexURI turns a path into the URI filename form SQLite expects.
func indexURI(path string) string {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
	// URI filenames without the file: prefix, but that is not standard.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path
}

// OpenIndex opens an index written by BuildIndex.
func OpenIndex(path string) (*BIMIndex, error) {
	idx := &BIMIndex{
		Metadata: &IndexMetadata{},
	}

	db, err := connectIndex(indexURI(path))
	if err != nil {
		return nil, err
	}
	idx.DB = db

	if err := idx.DB.Get(idx.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("%s is not a variant index: %w", path, err))
	}

	return idx, nil
}

// BuildIndex writes a new index of ds to path. It fails if path already
// holds an index.
func BuildIndex(ds *Dataset, path string) (*BIMIndex, error) {
	variants, err := ds.Variants()
	if err != nil {
		return nil, err
	}

	db, err := connectIndex(indexURI(path))
	if err != nil {
		return nil, err
	}

	meta, err := indexMetadata(ds.bed)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := populateIndex(db, meta, ds.bed, variants); err != nil {
		db.Close()
		return nil, err
	}

	return &BIMIndex{DB: db, Metadata: meta}, nil
}

func indexMetadata(b *BedReader) (*IndexMetadata, error) {
	head := make([]byte, min(b.size, 1000))
	if err := b.readAt(head, 0); err != nil {
		return nil, pfx.Err(err)
	}

	meta := &IndexMetadata{
		Filename:           b.FilePath,
		FileSize:           b.size,
		FirstThousandBytes: head,
		IndexCreationTime:  Time(time.Now().Truncate(time.Second)),
		NVariants:          b.NVariants,
		NSamples:           b.NSamples,
		Layout:             b.Layout,
	}
	if fi, err := os.Stat(b.FilePath); err == nil {
		meta.LastWriteTime = Time(fi.ModTime().Truncate(time.Second))
	}

	return meta, nil
}

func populateIndex(db *sqlx.DB, meta *IndexMetadata, b *BedReader, variants []Variant) error {
	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(indexSchema); err != nil {
		return pfx.Err(err)
	}

	if _, err := tx.Exec(`INSERT INTO Metadata VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Filename, meta.FileSize, meta.LastWriteTime.Unix(), meta.FirstThousandBytes,
		meta.IndexCreationTime.Unix(), meta.NVariants, meta.NSamples, int(meta.Layout)); err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO Variant VALUES (:variant_index, :contig, :position, :variant_id, :allele1, :allele2, :file_start_position, :size_in_bytes)`)
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i, v := range variants {
		row := VariantIndex{
			VariantIndex: i,
			Contig:       v.Contig,
			Position:     v.Position,
			VariantID:    v.ID,
			Allele1:      v.Allele1,
			Allele2:      v.Allele2,
		}
		if start, size, ok := b.VariantOffset(i); ok {
			row.FileStartPosition = sql.NullInt64{Int64: start, Valid: true}
			row.SizeInBytes = sql.NullInt64{Int64: size, Valid: true}
		}
		if _, err := stmt.Exec(row); err != nil {
			return pfx.Err(err)
		}
	}

	return pfx.Err(tx.Commit())
}

// Region returns the variants on contig with start <= position <= end, in
// file order.
func (b *BIMIndex) Region(contig string, start, end int32) ([]VariantIndex, error) {
	var out []VariantIndex
	err := b.DB.Select(&out, `SELECT * FROM Variant WHERE contig = ? AND position BETWEEN ? AND ? ORDER BY variant_index`, contig, start, end)
	return out, pfx.Err(err)
}

// Lookup returns every variant whose identifier is id, in file order.
func (b *BIMIndex) Lookup(id string) ([]VariantIndex, error) {
	var out []VariantIndex
	err := b.DB.Select(&out, `SELECT * FROM Variant WHERE variant_id = ? ORDER BY variant_index`, id)
	return out, pfx.Err(err)
}

// SelectVariants turns index rows into a variants-axis Index for slicing.
func SelectVariants(rows []VariantIndex) Index {
	bm := roaring.New()
	for _, row := range rows {
		bm.Add(uint32(row.VariantIndex))
	}
	return Bitmap(bm)
}
