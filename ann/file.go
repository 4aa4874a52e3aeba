package ann

import (
	"fmt"
	"os"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

const (
	indexFileMagic   = "mishkat-ann"
	indexFileVersion = 1
)

// vectorsSer encodes the flat vector block with a length prefix, so the
// file is self-describing together with the dimension field.
var vectorsSer = ord.NewSliceSer[float32](raw.Float32)

// Save writes the index to path. The format is a MUS stream: magic
// string, format version, dimension, then the length-prefixed flat
// vector block.
func (x *FlatIndex) Save(path string) error {
	size := ord.String.Size(indexFileMagic) +
		varint.Int.Size(indexFileVersion) +
		varint.Int.Size(x.dim) +
		vectorsSer.Size(x.vectors)

	buf := make([]byte, size)
	n := ord.String.Marshal(indexFileMagic, buf)
	n += varint.Int.Marshal(indexFileVersion, buf[n:])
	n += varint.Int.Marshal(x.dim, buf[n:])
	vectorsSer.Marshal(x.vectors, buf[n:])

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	magic, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIndexFile, err)
	}
	if magic != indexFileMagic {
		return nil, fmt.Errorf("%w: unexpected magic %q", ErrBadIndexFile, magic)
	}

	version, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIndexFile, err)
	}
	n += m
	if version != indexFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadIndexFile, version)
	}

	dim, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIndexFile, err)
	}
	n += m
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension %d", ErrBadIndexFile, dim)
	}

	vectors, _, err := vectorsSer.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIndexFile, err)
	}
	if len(vectors)%dim != 0 {
		return nil, fmt.Errorf("%w: %d floats not divisible by dimension %d",
			ErrBadIndexFile, len(vectors), dim)
	}

	return &FlatIndex{dim: dim, vectors: vectors}, nil
}
