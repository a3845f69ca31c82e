package vectorindex

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

const (
	indexFileName    = "index.bin"
	metadataFileName = "metadata.json"
	versionPrefix    = "index_"
	stagingPrefix    = ".staging-"
	timestampLayout  = "20060102_150405"
	formatVersion    = 1
)

var fileMagic = [4]byte{'C', 'R', 'V', 'I'}

var errTruncated = errors.New("truncated index file")

// fileHeader precedes the little-endian float32 vectors in index.bin.
type fileHeader struct {
	Magic     [4]byte
	Format    uint32
	Dimension uint32
	Count     uint64
}

// metadataFile is the JSON document stored next to index.bin.
type metadataFile struct {
	Name      string         `json:"name"`
	Dimension int            `json:"dimension"`
	Count     int            `json:"count"`
	CreatedAt time.Time      `json:"created_at"`
	Chunks    []domain.Chunk `json:"chunks"`
}

func versionName(t time.Time) string {
	return fmt.Sprintf("%s%s_%09d", versionPrefix, t.Format(timestampLayout), t.Nanosecond())
}

func isVersionName(name string) bool {
	return strings.HasPrefix(name, versionPrefix) && len(name) > len(versionPrefix)
}

func parseVersionName(name string) (time.Time, bool) {
	rest := strings.TrimPrefix(name, versionPrefix)
	// Names without the nanosecond suffix.
	if t, err := time.ParseInLocation(timestampLayout, rest, time.UTC); err == nil {
		return t, true
	}
	cut := strings.LastIndexByte(rest, '_')
	if cut <= 0 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, rest[:cut], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	nanos, err := strconv.Atoi(rest[cut+1:])
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(time.Duration(nanos)), true
}

// persist writes v into a staging directory and renames it into place.
// An existing version directory is never overwritten.
func (i *Index) persist(v *Version) error {
	if err := os.MkdirAll(i.baseDir, 0o755); err != nil {
		return fmt.Errorf("vectorindex: create base directory: %w", err)
	}

	target := filepath.Join(i.baseDir, v.name)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("vectorindex: version %s already exists", v.name)
	}

	staging := filepath.Join(i.baseDir, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("vectorindex: create staging directory: %w", err)
	}
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := writeFile(filepath.Join(staging, indexFileName), func(w io.Writer) error {
		return writeVectors(w, v)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(staging, metadataFileName), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metadataFile{
			Name:      v.name,
			Dimension: v.dimension,
			Count:     v.TotalCount(),
			CreatedAt: v.createdAt,
			Chunks:    v.chunks,
		})
	}); err != nil {
		return err
	}

	if err := os.Rename(staging, target); err != nil {
		return fmt.Errorf("vectorindex: publish %s: %w", v.name, err)
	}
	cleanup = false
	syncDir(i.baseDir)

	logger.Info("Saved index version %s (%d vectors)", v.name, v.TotalCount())
	return nil
}

// writeFile creates path, streams content through a buffer and fsyncs.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("vectorindex: create %s: %w", filepath.Base(path), err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		_ = f.Close()
		return fmt.Errorf("vectorindex: write %s: %w", filepath.Base(path), err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("vectorindex: write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("vectorindex: sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func writeVectors(w io.Writer, v *Version) error {
	h := fileHeader{
		Magic:     fileMagic,
		Format:    formatVersion,
		Dimension: uint32(v.dimension),
		Count:     uint64(v.TotalCount()),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if len(v.vectors) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, v.vectors)
}

func decodeHeader(r io.Reader) (fileHeader, error) {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if h.Magic != fileMagic {
		return h, errors.New("not an index file")
	}
	if h.Format != formatVersion {
		return h, fmt.Errorf("unsupported format version %d", h.Format)
	}
	return h, nil
}

func readHeader(path string) (fileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileHeader{}, err
	}
	defer f.Close()
	return decodeHeader(bufio.NewReader(f))
}

// readVersion loads the index.bin/metadata.json pair in dir.
func readVersion(ctx context.Context, dir, name string) (*Version, error) {
	f, err := os.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open %s: %w", name, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := decodeHeader(r)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("vectorindex: stat %s: %w", name, err)
	}
	// The header is untrusted until the body it announces fits in the file.
	body := uint64(max(info.Size()-int64(binary.Size(h)), 0))
	if h.Dimension > 0 && h.Count > body/(4*uint64(h.Dimension)) {
		return nil, fmt.Errorf("vectorindex: %s: header announces %d vectors of %d dimensions in a %d byte body: %w",
			name, h.Count, h.Dimension, body, errTruncated)
	}
	vectors := make([]float32, int(h.Count)*int(h.Dimension))
	if len(vectors) > 0 {
		if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
			return nil, fmt.Errorf("vectorindex: %s: read vectors: %w", name, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: read %s metadata: %w", name, err)
	}
	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("vectorindex: parse %s metadata: %w", name, err)
	}
	if len(meta.Chunks) != int(h.Count) {
		return nil, fmt.Errorf("%w: version %s has %d vectors and %d chunks",
			domain.ErrDimensionMismatch, name, h.Count, len(meta.Chunks))
	}

	created := meta.CreatedAt
	if created.IsZero() {
		created = info.ModTime()
	}

	return &Version{
		name:      name,
		dimension: int(h.Dimension),
		vectors:   vectors,
		chunks:    meta.Chunks,
		createdAt: created,
	}, nil
}
