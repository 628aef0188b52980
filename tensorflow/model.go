// Package tensorflow wraps a frozen-graph Tensorflow model behind a lazy
// loader. The pipeline owns the loaded session exclusively; Unload releases
// the graph and session resources.
package tensorflow

import (
	"os"
	"runtime"

	tf "github.com/kiteco/tensorflow/tensorflow/go"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/lazy"
)

var sessionOptions *tf.SessionOptions

func init() {
	SetThreadpoolSize(runtime.NumCPU())
}

// SetThreadpoolSize changes the number of threads tensorflow uses for model
// evaluation. Call before loading a model.
func SetThreadpoolSize(size int) {
	if size < 1 {
		size = 1
	}
	if size > 127 {
		// keep the single-byte varint encoding below valid
		size = 127
	}
	// ConfigProto{intra_op_parallelism_threads: N, inter_op_parallelism_threads: N},
	// serialized by hand to avoid carrying the generated proto package for two
	// varint fields (tags 2 and 5).
	cfg := []byte{0x10, byte(size), 0x28, byte(size)}
	sessionOptions = &tf.SessionOptions{Config: cfg}
}

// Model wraps a Tensorflow model
type Model struct {
	*lazy.Loader
	session *tf.Session
	graph   *tf.Graph
}

// NewModel loads a Tensorflow model (serialized as a frozen GraphDef proto,
// with variables replaced by constants) from the given path. The graph is
// loaded lazily on first use.
func NewModel(path string) (*Model, error) {
	m := &Model{}

	load := func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "error reading graph definition")
		}

		graph := tf.NewGraph()
		if err := graph.Import(data, ""); err != nil {
			graph.Delete()
			return errors.Wrapf(err, "error importing graph")
		}

		sess, err := tf.NewSession(graph, sessionOptions)
		if err != nil {
			graph.Delete()
			return errors.Wrapf(err, "error creating session")
		}

		m.graph = graph
		m.session = sess
		return nil
	}

	unload := func() {
		if m.session != nil {
			m.session.Close()
		}
		if m.graph != nil {
			m.graph.Delete()
		}
		m.session = nil
		m.graph = nil
	}

	m.Loader = lazy.NewLoader(load, unload)

	return m, nil
}

// Unload the model
func (m *Model) Unload() {
	m.Loader.Unload()
}

// Run takes in a map of feed tensors, keyed by the operation names, as well as
// a slice of operations to fetch. As output, it returns a map of output
// operation names to the resulting output tensors.
func (m *Model) Run(feeds map[string]interface{}, fetches []string) (map[string]interface{}, error) {
	err := m.Loader.LoadAndLock()
	if err != nil {
		return nil, err
	}
	defer m.Loader.Unlock()

	tfFeeds := make(map[tf.Output]*tf.Tensor)
	for op, val := range feeds {
		out, err := m.tfOut(op)
		if err != nil {
			return nil, err
		}
		tensor, err := tf.NewTensor(val)
		if err != nil {
			return nil, errors.Wrapf(err, "error creating tensor")
		}
		tfFeeds[out] = tensor
	}

	// Cleanup tensors
	defer func() {
		for _, t := range tfFeeds {
			t.Delete()
		}
	}()

	var tfFetches []tf.Output
	for _, op := range fetches {
		out, err := m.tfOut(op)
		if err != nil {
			return nil, err
		}
		tfFetches = append(tfFetches, out)
	}

	res, err := m.session.Run(tfFeeds, tfFetches, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error running model")
	}

	// Cleanup tensors
	defer func() {
		for _, t := range res {
			t.Delete()
		}
	}()

	out := make(map[string]interface{})
	for i, op := range fetches {
		out[op] = res[i].Value()
	}
	return out, nil
}

// OpExists reports whether the graph contains an operation with the name.
func (m *Model) OpExists(name string) (bool, error) {
	err := m.Loader.LoadAndLock()
	if err != nil {
		return false, err
	}
	defer m.Loader.Unlock()
	for _, op := range m.graph.Operations() {
		if op.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *Model) tfOut(opName string) (tf.Output, error) {
	op := m.graph.Operation(opName)
	if op == nil {
		return tf.Output{}, errors.Errorf("could not find op with name: %s", opName)
	}
	return tf.Output{
		Op:    op,
		Index: 0,
	}, nil
}
