package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/backend/cpu"
	"github.com/born-ml/structgp/nn"
	"github.com/born-ml/structgp/tensor"
)

type scalarModule struct {
	reg *nn.Registry[*cpu.Backend]
	p   *nn.Parameter[*cpu.Backend]
}

func (m *scalarModule) Registry() *nn.Registry[*cpu.Backend] { return m.reg }

func newScalarModule(t *testing.T, v float64) *scalarModule {
	t.Helper()
	b := cpu.New()
	p := nn.NewParameter("w", tensor.Full[float64](tensor.Shape{1}, v, b))
	reg := nn.NewRegistry[*cpu.Backend]()
	require.NoError(t, reg.Register("w", p, nn.NewNormalPrior(0, 1)))
	return &scalarModule{reg: reg, p: p}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.born")
	src := newScalarModule(t, 2.5)
	require.NoError(t, nn.Save[*cpu.Backend](src, path, "scalar", map[string]string{"k": "v"}))

	dst := newScalarModule(t, 0)
	hdr, err := nn.Load[*cpu.Backend](path, dst)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, dst.p.Data())
	assert.Equal(t, "scalar", hdr.ModelType)
	assert.Equal(t, "v", hdr.Metadata["k"])
	assert.Len(t, nn.Parameters[*cpu.Backend](dst), 1)
}

func TestRegistryDuplicateName(t *testing.T) {
	m := newScalarModule(t, 1)
	other := nn.NewParameter("w", tensor.Zeros[float64](tensor.Shape{1}, cpu.New()))
	assert.ErrorIs(t, m.reg.Register("w", other, nil), nn.ErrConfig)
}
