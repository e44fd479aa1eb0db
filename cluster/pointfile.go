package cluster

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Uncompressed memory-mapped point files: faster to reload than zstd
// snapshots at the cost of disk space. Same logical content as
// SaveCompressedPoints.

// MMapWriter handles writing to memory-mapped files
type MMapWriter struct {
	data   mmap.MMap
	offset int
}

func NewMMapWriter(data mmap.MMap) *MMapWriter {
	return &MMapWriter{data: data}
}

func (w *MMapWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *MMapWriter) WriteFloat64(v float64) {
	binary.LittleEndian.PutUint64(w.data[w.offset:], math.Float64bits(v))
	w.offset += 8
}

func (w *MMapWriter) WriteBytes(b []byte) {
	copy(w.data[w.offset:], b)
	w.offset += len(b)
}

// MMapReader handles reading from memory-mapped files
type MMapReader struct {
	data   mmap.MMap
	offset int
}

func NewMMapReader(data mmap.MMap) *MMapReader {
	return &MMapReader{data: data}
}

func (r *MMapReader) ReadUint32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v
}

func (r *MMapReader) ReadFloat64() float64 {
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return math.Float64frombits(v)
}

func (r *MMapReader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, r.data[r.offset:r.offset+n])
	r.offset += n
	return b
}

// pointFileSize calculates the file size needed for the point set, with
// every source payload pre-marshalled so the write pass can reuse them.
func pointFileSize(points []Point) (int64, [][]byte, error) {
	size := int64(4) // point count

	sources := make([][]byte, len(points))
	for i, p := range points {
		sourceBytes, err := json.Marshal(p.Source)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal source payload: %v", err)
		}
		sources[i] = sourceBytes

		size += 16 // latitude + longitude
		size += 4 + int64(len(p.ID))
		size += 4 + int64(len(p.Category))
		size += 4 + int64(len(sourceBytes))
	}

	return size, sources, nil
}

// SavePointsMMap writes an uncompressed point file through a memory map.
func SavePointsMMap(filename string, points []Point) error {
	size, sources, err := pointFileSize(points)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate file: %v", err)
	}

	mmapData, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %v", err)
	}
	defer mmapData.Unmap()

	writer := NewMMapWriter(mmapData)
	writer.WriteUint32(uint32(len(points)))

	for i, p := range points {
		writer.WriteFloat64(p.Latitude)
		writer.WriteFloat64(p.Longitude)

		writer.WriteUint32(uint32(len(p.ID)))
		writer.WriteBytes([]byte(p.ID))

		writer.WriteUint32(uint32(len(p.Category)))
		writer.WriteBytes([]byte(p.Category))

		writer.WriteUint32(uint32(len(sources[i])))
		writer.WriteBytes(sources[i])
	}

	return mmapData.Flush()
}

// LoadPointsMMap reads a point file written by SavePointsMMap.
func LoadPointsMMap(filename string) ([]Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	mmapData, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %v", err)
	}
	defer mmapData.Unmap()

	reader := NewMMapReader(mmapData)
	count := reader.ReadUint32()

	points := make([]Point, count)
	for i := range points {
		points[i].Latitude = reader.ReadFloat64()
		points[i].Longitude = reader.ReadFloat64()

		idLen := reader.ReadUint32()
		points[i].ID = string(reader.ReadBytes(int(idLen)))

		catLen := reader.ReadUint32()
		points[i].Category = Category(reader.ReadBytes(int(catLen)))

		sourceLen := reader.ReadUint32()
		sourceBytes := reader.ReadBytes(int(sourceLen))
		if err := json.Unmarshal(sourceBytes, &points[i].Source); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source payload: %v", err)
		}
	}

	return points, nil
}
