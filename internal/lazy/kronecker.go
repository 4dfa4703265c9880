// Package lazy holds structured covariance operators that are kept in
// factored form during training.
package lazy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/tensor"
)

// Kronecker is the covariance Data ⊗ Task of a multitask process.
//
// Data has shape [*batch, N, N] and Task has shape [*batch, T, T]; the two
// batch shapes broadcast against each other. Rows and columns of the joint
// [*batch, N*T, N*T] matrix are point-major: row = point*T + task. The joint
// matrix is only built by Dense, one batch element at a time.
type Kronecker[B tensor.Backend] struct {
	Data *tensor.Tensor[float64, B]
	Task *tensor.Tensor[float64, B]

	batch     tensor.Shape
	dataIndex *tensor.BatchIndexer
	taskIndex *tensor.BatchIndexer
}

// NewKronecker validates the factors and resolves their batch shapes.
func NewKronecker[B tensor.Backend](data, task *tensor.Tensor[float64, B]) (*Kronecker[B], error) {
	if err := checkSquare("kronecker data", data.Shape()); err != nil {
		return nil, err
	}
	if err := checkSquare("kronecker task", task.Shape()); err != nil {
		return nil, err
	}
	dataBatch := data.Shape().Batch(2)
	taskBatch := task.Shape().Batch(2)
	batch, err := tensor.ResolveBatchShape(dataBatch, taskBatch)
	if err != nil {
		return nil, err
	}
	dataIndex, err := tensor.NewBatchIndexer(dataBatch, batch)
	if err != nil {
		return nil, err
	}
	taskIndex, err := tensor.NewBatchIndexer(taskBatch, batch)
	if err != nil {
		return nil, err
	}
	return &Kronecker[B]{
		Data:      data,
		Task:      task,
		batch:     batch,
		dataIndex: dataIndex,
		taskIndex: taskIndex,
	}, nil
}

func checkSquare(op string, s tensor.Shape) error {
	n := len(s)
	if n < 2 || s[n-1] != s[n-2] {
		return &tensor.ShapeError{Op: op, Left: s.Clone(), Axis: -1, Reason: "expected [*batch, M, M]"}
	}
	return nil
}

// BatchShape returns the resolved batch shape of the operator.
func (k *Kronecker[B]) BatchShape() tensor.Shape {
	return k.batch.Clone()
}

// NumPoints returns N.
func (k *Kronecker[B]) NumPoints() int {
	return k.Data.Dim(-1)
}

// NumTasks returns T.
func (k *Kronecker[B]) NumTasks() int {
	return k.Task.Dim(-1)
}

// Shape returns the shape of the joint matrix, [*batch, N*T, N*T].
func (k *Kronecker[B]) Shape() tensor.Shape {
	nt := k.NumPoints() * k.NumTasks()
	return k.batch.Concat(nt, nt)
}

// Index returns the joint row of (task, point).
func (k *Kronecker[B]) Index(task, point int) int {
	return point*k.NumTasks() + task
}

// Locate is the inverse of Index.
func (k *Kronecker[B]) Locate(row int) (task, point int) {
	t := k.NumTasks()
	return row % t, row / t
}

// DataBlock returns the data factor of batch element b as a gonum matrix
// sharing the tensor's memory.
func (k *Kronecker[B]) DataBlock(b int) *mat.SymDense {
	return block(k.Data, k.dataIndex.Index(b))
}

// TaskBlock returns the task factor of batch element b as a gonum matrix
// sharing the tensor's memory.
func (k *Kronecker[B]) TaskBlock(b int) *mat.SymDense {
	return block(k.Task, k.taskIndex.Index(b))
}

// DataBatchIndex maps batch element b to the flat batch index of Data.
func (k *Kronecker[B]) DataBatchIndex(b int) int {
	return k.dataIndex.Index(b)
}

// TaskBatchIndex maps batch element b to the flat batch index of Task.
func (k *Kronecker[B]) TaskBatchIndex(b int) int {
	return k.taskIndex.Index(b)
}

func block[B tensor.Backend](t *tensor.Tensor[float64, B], idx int) *mat.SymDense {
	n := t.Dim(-1)
	if n == 0 {
		return nil
	}
	size := n * n
	return mat.NewSymDense(n, t.Data()[idx*size:(idx+1)*size])
}

// At returns entry (row, col) of batch element b of the joint matrix.
func (k *Kronecker[B]) At(b, row, col int) float64 {
	n, t := k.NumPoints(), k.NumTasks()
	if b < 0 || b >= k.dataIndex.Len() || row < 0 || col < 0 || row >= n*t || col >= n*t {
		panic(fmt.Sprintf("kronecker: index (%d, %d, %d) out of range for %v", b, row, col, k.Shape()))
	}
	ti, pi := k.Locate(row)
	tj, pj := k.Locate(col)
	data := k.Data.Data()[k.dataIndex.Index(b)*n*n:]
	task := k.Task.Data()[k.taskIndex.Index(b)*t*t:]
	return data[pi*n+pj] * task[ti*t+tj]
}

// Dense materializes batch element b of the joint matrix. It returns nil
// when the operator has no points.
func (k *Kronecker[B]) Dense(b int) *mat.SymDense {
	if k.NumPoints() == 0 {
		return nil
	}
	return KroneckerDense(k.DataBlock(b), k.TaskBlock(b))
}

// KroneckerDense returns data ⊗ task in point-major order.
func KroneckerDense(data, task mat.Symmetric) *mat.SymDense {
	n, t := data.SymmetricDim(), task.SymmetricDim()
	out := mat.NewSymDense(n*t, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := data.At(i, j)
			for a := 0; a < t; a++ {
				for c := 0; c < t; c++ {
					row, col := i*t+a, j*t+c
					if row <= col {
						out.SetSym(row, col, d*task.At(a, c))
					}
				}
			}
		}
	}
	return out
}
