package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/born-ml/structgp/internal/tensor"
)

// Options fills the descriptive part of the header.
type Options struct {
	Version    string            // Version of the program writing the file
	ModelType  string            // e.g. "multitask_exact_gp"
	Metadata   map[string]string // Free-form key/value pairs
	Checkpoint *CheckpointMeta   // Training state, nil for a plain parameter dump
	CreatedAt  time.Time         // Zero means now
}

// Write encodes state as a .born stream.
func Write(w io.Writer, state map[string]*tensor.RawTensor, opts Options) error {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	created := opts.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	header := Header{
		FormatVersion: FormatVersion,
		Version:       opts.Version,
		ModelType:     opts.ModelType,
		CreatedAt:     created,
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      opts.Metadata,
		Checkpoint:    opts.Checkpoint,
	}

	hasher := sha256.New()
	var offset int64
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		raw := state[name]
		dtype, ok := dtypeToString(raw.DType())
		if !ok {
			return fmt.Errorf("%w: tensor %q has %s", ErrUnsupportedDType, name, raw.DType())
		}
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  raw.Shape().Clone(),
			Offset: offset,
			Size:   size,
		})
		hasher.Write(raw.Data())
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var flags uint32
	if opts.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}
	if len(opts.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], hasher.Sum(nil))

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	pad := padding(int64(FixedHeaderSize + len(headerJSON)))
	if pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	for _, name := range names {
		if _, err := w.Write(state[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}
