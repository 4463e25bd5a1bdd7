package classifier

import (
	"fmt"
	"os"
	"sync"

	"github.com/tphakala/go-tflite"

	"github.com/oceanecho/oceanecho/internal/cpuspec"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// TFLiteModel runs a dense classifier exported to TensorFlow Lite. The model
// must take one float32 input of shape [1, features] and produce one float32
// output of shape [1, classes].
type TFLiteModel struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	numFeatures int
	numClasses  int
	path        string
}

// LoadTFLite loads a TFLite classifier and allocates its tensors.
func LoadTFLite(path string, threads int) (*TFLiteModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, artifactError("classifier", path, errors.CategoryModelInit,
			fmt.Errorf("cannot load TensorFlow Lite model"))
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(cpuspec.ThreadCount(threads))
	options.SetErrorReporter(func(msg string, _ any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, artifactError("classifier", path, errors.CategoryModelInit, fmt.Errorf("cannot create interpreter"))
	}

	m := &TFLiteModel{model: model, options: options, interpreter: interpreter, path: path}
	if err := m.inspect(); err != nil {
		m.Close()
		return nil, artifactError("classifier", path, errors.CategoryModelInit, err)
	}

	GetLogger().Info("TFLite classifier initialized",
		logger.String("path", path),
		logger.Int("features", m.numFeatures),
		logger.Int("classes", m.numClasses),
		logger.Int("threads", cpuspec.ThreadCount(threads)))
	return m, nil
}

func (m *TFLiteModel) inspect() error {
	if status := m.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	input := m.interpreter.GetInputTensor(0)
	if input == nil || input.Type() != tflite.Float32 {
		return fmt.Errorf("model input must be a float32 tensor")
	}
	output := m.interpreter.GetOutputTensor(0)
	if output == nil || output.Type() != tflite.Float32 {
		return fmt.Errorf("model output must be a float32 tensor")
	}

	m.numFeatures = input.Dim(input.NumDims() - 1)
	m.numClasses = output.Dim(output.NumDims() - 1)
	if m.numFeatures <= 0 || m.numClasses <= 0 {
		return fmt.Errorf("unexpected tensor shapes: %d inputs, %d outputs", m.numFeatures, m.numClasses)
	}
	return nil
}

// Close releases the interpreter and model.
func (m *TFLiteModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.options != nil {
		m.options.Delete()
		m.options = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}

// Name implements Classifier.
func (m *TFLiteModel) Name() string { return "tflite" }

// NumFeatures implements Classifier.
func (m *TFLiteModel) NumFeatures() int { return m.numFeatures }

// NumClasses implements Classifier.
func (m *TFLiteModel) NumClasses() int { return m.numClasses }

// PredictProba implements ProbabilisticClassifier. Outputs that are not
// already a distribution are treated as logits.
func (m *TFLiteModel) PredictProba(x []float64) ([]float64, error) {
	if len(x) != m.numFeatures {
		return nil, dimensionError("tflite", m.numFeatures, len(x))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interpreter == nil {
		return nil, inferenceError("tflite", fmt.Errorf("model is closed"))
	}

	in := m.interpreter.GetInputTensor(0).Float32s()
	for i, v := range x {
		in[i] = float32(v)
	}
	if status := m.interpreter.Invoke(); status != tflite.OK {
		return nil, inferenceError("tflite", fmt.Errorf("invoke failed with status %v", status))
	}

	raw := m.interpreter.GetOutputTensor(0).Float32s()
	out := make([]float64, m.numClasses)
	for i := range out {
		out[i] = float64(raw[i])
	}
	if !isDistribution(out) {
		out = softmax(out)
	}
	return out, nil
}

// Predict implements Classifier.
func (m *TFLiteModel) Predict(x []float64) (int, error) {
	probs, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}
