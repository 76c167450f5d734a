package id

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

const folderLayout = "20060102T150405Z"

// FolderDatetime names capsules after their UTC start second. Two names
// requested within the same second get a numeric suffix.
type FolderDatetime struct {
	Now func() time.Time

	mu   sync.Mutex
	last string
	seq  int
}

func (f *FolderDatetime) New() string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	base := now().UTC().Format(folderLayout)

	f.mu.Lock()
	defer f.mu.Unlock()
	if base == f.last {
		f.seq++
		return fmt.Sprintf("%s-%d", base, f.seq)
	}
	f.last = base
	f.seq = 0
	return base
}
