package hub

import (
	"time"

	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

// Event sources.
const (
	SourceContests = "contests"
	SourceProblems = "problems"
)

// Sink receives translated repository events.
type Sink func(events.Message)

// Follow translates every repository event into a Message for each sink.
// "saved" events are internal bookkeeping and are not forwarded.
func Follow(contests repository.ContestRepository, problems repository.ProblemRepository, now func() time.Time, sinks ...Sink) (stop func()) {
	if now == nil {
		now = time.Now
	}
	emit := func(m events.Message) {
		m.At = model.FormatTimestamp(now())
		for _, s := range sinks {
			s(m)
		}
	}

	cs := contests.Events().On(events.Wildcard, func(e repository.ContestEvent) {
		if e.Type == repository.EventSaved {
			return
		}
		m := events.Message{Source: SourceContests, Type: e.Type, Count: e.Count}
		switch {
		case e.Contest != nil:
			m.ID = e.Contest.ID
		case e.Original != nil:
			m.ID = e.Original.ID
		}
		emit(m)
	})
	ps := problems.Events().On(events.Wildcard, func(e repository.ProblemEvent) {
		if e.Type == repository.EventSaved {
			return
		}
		m := events.Message{Source: SourceProblems, Type: e.Type, Count: e.Count}
		switch {
		case e.Problem != nil:
			m.ID = e.Problem.ID
		case e.Original != nil:
			m.ID = e.Original.ID
		}
		emit(m)
	})
	return func() {
		contests.Events().Off(cs)
		problems.Events().Off(ps)
	}
}
