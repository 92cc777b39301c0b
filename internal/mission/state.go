package mission

import (
	"sync"

	"github.com/kindred-labs/hearthside/internal/content"
)

// sessionState is the mutable half of a Session, guarded by one mutex.
type sessionState struct {
	mu sync.Mutex

	mode          Mode
	steps         []bool
	images        []content.StepImage
	imagesStarted bool
	alternatives  map[string]string
	altPending    map[string]bool
	narrating     int
	photoPath     string
	closed        bool
}

func (st *sessionState) init(activity content.Activity) {
	st.mode = ModePrep
	st.steps = make([]bool, activity.StepCount())
	st.alternatives = map[string]string{}
	st.altPending = map[string]bool{}
	st.narrating = -1
}

func (st *sessionState) allDone() bool {
	if len(st.steps) == 0 {
		return false
	}
	for _, done := range st.steps {
		if !done {
			return false
		}
	}
	return true
}
