package cluster

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// SaveCompressedPoints writes a zstd-compressed snapshot of a point set.
// Snapshots hold only the normalized points; the engine itself stays
// in-memory and the caller decides when to persist.
func SaveCompressedPoints(filename string, points []Point) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}
	defer enc.Close()

	if err := binary.Write(enc, binary.LittleEndian, uint32(len(points))); err != nil {
		return fmt.Errorf("failed to write point count: %v", err)
	}

	for _, p := range points {
		binary.Write(enc, binary.LittleEndian, p.Latitude)
		binary.Write(enc, binary.LittleEndian, p.Longitude)

		if err := writeString(enc, p.ID); err != nil {
			return err
		}
		if err := writeString(enc, string(p.Category)); err != nil {
			return err
		}

		sourceBytes, err := json.Marshal(p.Source)
		if err != nil {
			return fmt.Errorf("failed to marshal source payload: %v", err)
		}
		if err := writeBytes(enc, sourceBytes); err != nil {
			return err
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %v", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %v", err)
	}

	return nil
}

// LoadCompressedPoints reads a snapshot written by SaveCompressedPoints.
func LoadCompressedPoints(filename string) ([]Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(bufio.NewReaderSize(file, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	var count uint32
	if err := binary.Read(dec, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read point count: %v", err)
	}

	points := make([]Point, 0, count)
	for i := uint32(0); i < count; i++ {
		var p Point
		if err := binary.Read(dec, binary.LittleEndian, &p.Latitude); err != nil {
			return nil, fmt.Errorf("failed to read latitude: %v", err)
		}
		if err := binary.Read(dec, binary.LittleEndian, &p.Longitude); err != nil {
			return nil, fmt.Errorf("failed to read longitude: %v", err)
		}

		id, err := readString(dec)
		if err != nil {
			return nil, err
		}
		p.ID = id

		category, err := readString(dec)
		if err != nil {
			return nil, err
		}
		p.Category = Category(category)

		sourceBytes, err := readBytesLen(dec)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sourceBytes, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source payload: %v", err)
		}

		points = append(points, p)
	}

	return points, nil
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return fmt.Errorf("failed to write length: %v", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write bytes: %v", err)
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	b, err := readBytesLen(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readBytesLen(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read length: %v", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("failed to read bytes: %v", err)
	}
	return b, nil
}
