package train

import (
	"fmt"
	"os"
	"sort"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
)

// CheckpointStash keeps the most recent epoch checkpoints on disk so the best
// iteration can be promoted once training finishes. Older checkpoints beyond
// the retention count are pruned.
type CheckpointStash struct {
	dir       string
	retention int

	epochs []int
}

// NewCheckpointStash creates a stash under dir retaining up to retention
// checkpoints (minimum 1).
func NewCheckpointStash(dir string, retention int) (*CheckpointStash, error) {
	if retention < 1 {
		retention = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create stash directory '%s'", dir)
	}
	return &CheckpointStash{dir: dir, retention: retention}, nil
}

// Path returns the checkpoint file for an epoch.
func (s *CheckpointStash) Path(epoch int) string {
	return fileutil.Join(s.dir, fmt.Sprintf("checkpoint-%03d.json", epoch))
}

// Put stores the model as the checkpoint for epoch and prunes checkpoints
// past the retention count.
func (s *CheckpointStash) Put(epoch int, m *LogisticModel) error {
	if err := m.Save(s.Path(epoch)); err != nil {
		return errors.Wrapf(err, "unable to stash checkpoint for epoch %d", epoch)
	}

	s.epochs = append(s.epochs, epoch)
	sort.Ints(s.epochs)

	for len(s.epochs) > s.retention {
		oldest := s.epochs[0]
		s.epochs = s.epochs[1:]
		if err := os.Remove(s.Path(oldest)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "unable to prune checkpoint for epoch %d", oldest)
		}
	}
	return nil
}

// Load reads a retained checkpoint back.
func (s *CheckpointStash) Load(epoch int) (*LogisticModel, error) {
	return LoadLogisticModel(s.Path(epoch))
}

// Retained returns the epochs currently held by the stash, oldest first.
func (s *CheckpointStash) Retained() []int {
	out := make([]int, len(s.epochs))
	copy(out, s.epochs)
	return out
}
