package serialization

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Save writes every parameter in reg to w.
func Save[B tensor.Backend](w io.Writer, reg *nn.Registry[B], opts Options) error {
	return Write(w, reg.StateDict(), opts)
}

// Load reads a checkpoint from r into reg. Every registered parameter
// must be present with its current shape; extra tensors are ignored.
func Load[B tensor.Backend](r io.Reader, reg *nn.Registry[B]) (Header, error) {
	state, header, err := Read(r, ReaderOptions{})
	if err != nil {
		return Header{}, err
	}
	if err := reg.LoadStateDict(state); err != nil {
		return Header{}, err
	}
	return header, nil
}

// SaveFile writes a checkpoint to path. The file is written next to path
// and renamed into place, so a failed save leaves any old file intact.
func SaveFile[B tensor.Backend](path string, reg *nn.Registry[B], opts Options) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Save(tmp, reg, opts); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move checkpoint into place: %w", err)
	}
	return nil
}

// LoadFile reads the checkpoint at path into reg.
func LoadFile[B tensor.Backend](path string, reg *nn.Registry[B]) (Header, error) {
	//nolint:gosec // G304: user-supplied checkpoint path
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer f.Close()
	return Load(f, reg)
}
