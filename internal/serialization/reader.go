package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/structgp/internal/tensor"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Read decodes a .born stream into a state dict and its header.
func Read(r io.Reader, opts ReaderOptions) (map[string]*tensor.RawTensor, Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, Header{}, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, fixed[0:4], MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[12:20])
	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	pad := padding(int64(FixedHeaderSize) + int64(headerSize))
	if _, err := io.CopyN(io.Discard, r, pad); err != nil {
		return nil, Header{}, fmt.Errorf("failed to skip padding: %w", err)
	}

	var data bytes.Buffer
	if _, err := data.ReadFrom(r); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(&header, int64(data.Len()), opts.ValidationLevel); err != nil {
		return nil, Header{}, err
	}
	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data.Bytes()), stored); err != nil {
			return nil, Header{}, err
		}
	}

	state := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		raw, err := decodeTensor(meta, data.Bytes())
		if err != nil {
			return nil, Header{}, err
		}
		state[meta.Name] = raw
	}
	return state, header, nil
}

func decodeTensor(meta TensorMeta, data []byte) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q has %s", ErrUnsupportedDType, meta.Name, meta.DType)
	}
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}
	if want, ok := byteSize(shape, dtype); !ok || want != meta.Size {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("shape %v of %s does not fill %d bytes", meta.Shape, meta.DType, meta.Size),
		}
	}
	if meta.Offset < 0 || meta.Offset > int64(len(data)) || meta.Size > int64(len(data))-meta.Offset {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("offset %d + size %d > data_size %d", meta.Offset, meta.Size, len(data)),
		}
	}
	raw := tensor.MustRaw(shape, dtype, tensor.CPU)
	copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
	return raw, nil
}

// byteSize is the storage size of shape, false on overflow.
func byteSize(shape tensor.Shape, dtype tensor.DataType) (int64, bool) {
	n := int64(dtype.Size())
	for _, dim := range shape {
		if dim != 0 && n > math.MaxInt64/int64(dim) {
			return 0, false
		}
		n *= int64(dim)
	}
	return n, true
}
