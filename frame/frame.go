// Package frame implements the columnar, chunked dataset storage consumed
// by the kmeans training core. It realizes the Frame/Vec/Chunk interfaces
// described by the core's external-collaborator contract: per-column
// mean/sigma/cardinality, row-indexed value access, a column swap used to
// permute categorical columns to the front, and chunking into contiguous
// row ranges for map/reduce.
package frame

import (
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/btree"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// FrameReader is the read-side contract the training core depends on. It
// never assumes a particular storage layout beyond "F columns, N rows,
// chunkable into contiguous row ranges."
type FrameReader interface {
	NumRows() int
	NumCols() int
	Names() []string
	Mean(col int) float64
	Sigma(col int) float64
	Cardinality(col int) int
	At(col int, row int64) float64
	Swap(i, j int)
	Chunks(chunkSize int) []Chunk
	// ChunkContaining returns the bounds of the chunk that owns row. Used
	// by the training core's empty-cluster rescue to identify which
	// worker-owned chunk the worst row belongs to before fetching it.
	ChunkContaining(row int64) (start, end int64, ok bool)
	// Row returns the raw values of a single row across all columns, with
	// NaN at positions where that column is missing. Used by the training
	// core's empty-cluster rescue to pull a specific row out-of-band,
	// outside of any map phase.
	Row(row int64) []float64
}

// Chunk is a contiguous row-range slice of every column, owned by a single
// worker during a map phase.
type Chunk interface {
	Len() int
	Start() int64
	At0(col int, localRow int) float64
}

// column is the concrete per-column storage: raw float64 values (categorical
// columns store integer level codes as doubles, matching the wire format the
// distance kernel expects) plus a roaring bitmap flagging which row ids are
// NA. cardinality is -1 for numeric columns, >= 0 for categorical.
type column struct {
	name        string
	values      []float64
	na          *roaring.Bitmap
	cardinality int
	mean        float64
	sigma       float64
}

// Frame is the concrete, in-process FrameReader/Chunk backing used by tests
// and the CLI. It is built once from a gota DataFrame (CSV ingestion) and
// then owns its own columnar arrays plus a btree index of chunk boundaries.
type Frame struct {
	cols      []*column
	numRows   int
	chunkTree *btree.BTree
}

// chunkItem implements btree.Item, ordering chunks by start row id so that
// "which chunk owns row r" resolves in O(log N) during empty-cluster rescue.
type chunkItem struct {
	start int64
	end   int64 // exclusive
}

func (c chunkItem) Less(than btree.Item) bool {
	return c.start < than.(chunkItem).start
}

// New builds a Frame directly from in-memory columns. numeric columns pass
// cardinality -1; categorical columns pass their level count. Missing
// values are represented as math.NaN().
func New(names []string, cardinalities []int, cols [][]float64) (*Frame, error) {
	if len(names) != len(cardinalities) || len(names) != len(cols) {
		return nil, fmt.Errorf("frame: names, cardinalities and cols must have equal length")
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame: frame must have at least one column")
	}
	n := len(cols[0])
	fr := &Frame{numRows: n}
	for i, raw := range cols {
		if len(raw) != n {
			return nil, fmt.Errorf("frame: column %d has %d rows, want %d", i, len(raw), n)
		}
		fr.cols = append(fr.cols, buildColumn(names[i], cardinalities[i], raw))
	}
	fr.reindexChunks(1000)
	return fr, nil
}

// FromCSV loads a Frame from r using gota for CSV parsing, treating the
// listed column indices as categorical (with the given cardinalities) and
// all others as numeric.
func FromCSV(r io.Reader, catCols []int, catCardinalities []int) (*Frame, error) {
	df := dataframe.ReadCSV(r, dataframe.DetectTypes(true))
	if df.Err != nil {
		return nil, fmt.Errorf("frame: reading csv: %w", df.Err)
	}
	isCat := make(map[int]int, len(catCols))
	for i, c := range catCols {
		isCat[c] = catCardinalities[i]
	}

	names := df.Names()
	cols := make([][]float64, len(names))
	cardinalities := make([]int, len(names))
	for i := range names {
		s := df.Col(names[i])
		raw := make([]float64, s.Len())
		for row := 0; row < s.Len(); row++ {
			raw[row] = seriesFloatAt(s, row)
		}
		if card, ok := isCat[i]; ok {
			cardinalities[i] = card
		} else {
			cardinalities[i] = -1
		}
		cols[i] = raw
	}
	return New(names, cardinalities, cols)
}

func seriesFloatAt(s series.Series, row int) float64 {
	v := s.Elem(row)
	if v.IsNA() {
		return math.NaN()
	}
	f := v.Float()
	if math.IsNaN(f) {
		return math.NaN()
	}
	return f
}

func buildColumn(name string, cardinality int, raw []float64) *column {
	col := &column{name: name, cardinality: cardinality, na: roaring.New(), values: make([]float64, len(raw))}
	copy(col.values, raw)

	var sum float64
	var count int
	for i, v := range raw {
		if math.IsNaN(v) {
			col.na.Add(uint32(i))
			continue
		}
		sum += v
		count++
	}
	if count > 0 {
		col.mean = sum / float64(count)
	}
	var sqDiff float64
	for i, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		_ = i
		d := v - col.mean
		sqDiff += d * d
	}
	if count > 1 {
		col.sigma = math.Sqrt(sqDiff / float64(count-1))
	}
	return col
}

func (f *Frame) NumRows() int { return f.numRows }
func (f *Frame) NumCols() int { return len(f.cols) }

func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

func (f *Frame) Mean(col int) float64        { return f.cols[col].mean }
func (f *Frame) Sigma(col int) float64        { return f.cols[col].sigma }
func (f *Frame) Cardinality(col int) int      { return f.cols[col].cardinality }

func (f *Frame) At(col int, row int64) float64 {
	c := f.cols[col]
	if c.na.Contains(uint32(row)) {
		return math.NaN()
	}
	return c.values[row]
}

// Swap exchanges the identity of two columns (values, NA bitmap, statistics,
// name) in place. The training core calls this once before training to
// permute categorical columns to the front. The chunk index is left as it
// is: it is keyed by row ranges, which a column swap does not change.
func (f *Frame) Swap(i, j int) {
	f.cols[i], f.cols[j] = f.cols[j], f.cols[i]
}

// Chunks partitions the frame into contiguous row ranges of at most
// chunkSize rows each, registers their bounds in the btree index, and
// returns them in row order.
func (f *Frame) Chunks(chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = f.numRows
	}
	f.reindexChunks(chunkSize)

	var out []Chunk
	for start := 0; start < f.numRows; start += chunkSize {
		end := start + chunkSize
		if end > f.numRows {
			end = f.numRows
		}
		out = append(out, &frameChunk{fr: f, start: int64(start), end: int64(end)})
	}
	return out
}

func (f *Frame) reindexChunks(chunkSize int) {
	f.chunkTree = btree.New(8)
	if chunkSize <= 0 {
		chunkSize = f.numRows
	}
	for start := 0; start < f.numRows; start += chunkSize {
		end := start + chunkSize
		if end > f.numRows {
			end = f.numRows
		}
		f.chunkTree.ReplaceOrInsert(chunkItem{start: int64(start), end: int64(end)})
	}
}

// ChunkContaining returns the (start, end) row bounds of the chunk that owns
// row, using the btree index rather than re-deriving chunk boundaries. Used
// by empty-cluster rescue to fetch a specific row's raw values directly.
func (f *Frame) ChunkContaining(row int64) (start, end int64, ok bool) {
	var found chunkItem
	hit := false
	f.chunkTree.DescendLessOrEqual(chunkItem{start: row}, func(item btree.Item) bool {
		ci := item.(chunkItem)
		if row < ci.end {
			found = ci
			hit = true
		}
		return false
	})
	if !hit {
		return 0, 0, false
	}
	return found.start, found.end, true
}

// Row returns the raw values of a single row across all columns, with NaN
// for positions flagged in that column's NA bitmap.
func (f *Frame) Row(row int64) []float64 {
	out := make([]float64, len(f.cols))
	for i, c := range f.cols {
		if c.na.Contains(uint32(row)) {
			out[i] = math.NaN()
		} else {
			out[i] = c.values[row]
		}
	}
	return out
}

// IsNA reports whether column col is missing at row.
func (f *Frame) IsNA(col int, row int64) bool {
	return f.cols[col].na.Contains(uint32(row))
}

type frameChunk struct {
	fr    *Frame
	start int64
	end   int64
}

func (c *frameChunk) Len() int     { return int(c.end - c.start) }
func (c *frameChunk) Start() int64 { return c.start }

func (c *frameChunk) At0(col int, localRow int) float64 {
	row := c.start + int64(localRow)
	column := c.fr.cols[col]
	if column.na.Contains(uint32(row)) {
		return math.NaN()
	}
	return column.values[row]
}
