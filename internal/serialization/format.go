package serialization

import (
	"time"

	"github.com/born-ml/structgp/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 1    // Current (and only) checkpoint layout
	FixedHeaderSize = 64   // Bytes before the JSON header
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum position in the fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Flags for the .born format.
const (
	FlagHasCheckpoint uint32 = 1 << 0 // header carries training state
	FlagHasMetadata   uint32 = 1 << 1 // header carries custom metadata
)

// Header is the JSON header of a checkpoint.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Version       string            `json:"structgp_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta records the training state a checkpoint was taken at.
type CheckpointMeta struct {
	Iteration       int                `json:"iteration"`
	Loss            float64            `json:"loss"`
	OptimizerType   string             `json:"optimizer_type,omitempty"`
	OptimizerConfig map[string]float64 `json:"optimizer_config,omitempty"`
}

// TensorMeta describes one stored tensor.
type TensorMeta struct {
	Name   string `json:"name"`   // Registry name (e.g. "covar.data.log_lengthscale")
	DType  string `json:"dtype"`  // "float32" or "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Byte offset from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

func dtypeToString(dt tensor.DataType) (string, bool) {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32, true
	case tensor.Float64:
		return DTypeFloat64, true
	default:
		return "", false
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}

// padding returns the bytes needed to move pos to the next aligned offset.
func padding(pos int64) int64 {
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
