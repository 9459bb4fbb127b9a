package trajectory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func marshalPrediction(p Prediction) ([]byte, error) {
	return json.Marshal(p)
}

// Writer appends Steps to an in-memory File and flushes the whole file to
// disk after every step, atomically: write to a temp file in the same
// directory, fsync, then rename over the destination. A crash mid-task
// leaves the last successfully renamed .traj file valid, never a partial
// write — grounded on the create-then-write-header shape of
// task.Runner.openLog, generalized to whole-file atomic replace since the
// trajectory file (unlike a JSONL log) is rewritten in full each step.
type Writer struct {
	dir        string
	instanceID string
	file       File
}

// NewWriter creates a Writer for the given run directory and instance ID.
// The environment field is fixed at "swe_main" per the external interfaces
// contract.
func NewWriter(dir, instanceID string) *Writer {
	return &Writer{
		dir:        dir,
		instanceID: instanceID,
		file:       File{Environment: "swe_main"},
	}
}

// Path returns the destination .traj file path.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, w.instanceID+".traj")
}

// File returns a copy of the in-memory trajectory file built so far.
func (w *Writer) File() File {
	return w.file
}

// AppendStep records a step and the history snapshot as of this step, then
// flushes the file. history is copied, not retained, so later mutation by
// the caller cannot corrupt an already-written step: history stays monotonic.
func (w *Writer) AppendStep(step Step, history []Message) error {
	w.file.Trajectory = append(w.file.Trajectory, step)
	w.file.History = append(w.file.History[:0], history...)
	return w.flush()
}

// Finish records the terminal info block and performs a final flush.
func (w *Writer) Finish(info Info) error {
	w.file.Info = info
	return w.flush()
}

func (w *Writer) flush() error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("create traj dir: %w", err)
	}
	data, err := w.file.MarshalPretty()
	if err != nil {
		return fmt.Errorf("marshal trajectory: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, w.instanceID+".traj.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp trajectory file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write trajectory: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("fsync trajectory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close trajectory: %w", err)
	}
	if err := os.Rename(tmpName, w.Path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename trajectory into place: %w", err)
	}
	return nil
}

// WritePredictions appends one Prediction line to <run_dir>/all_preds.jsonl.
func WritePredictions(runDir string, pred Prediction) error {
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(runDir, "all_preds.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open predictions file: %w", err)
	}
	defer func() { _ = f.Close() }()
	data, err := marshalPrediction(pred)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}
