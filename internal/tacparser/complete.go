package tacparser

import (
	"time"

	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
)

// completeIssue resolves the issue time nearest to ref and returns the
// anchor for everything after it: the issue time, or ref without one.
func (w *walker) completeIssue(issue *partialtime.Instant, ref time.Time) (time.Time, bool) {
	if ref.IsZero() {
		w.issue(conversion.Other, nil, "time completion requested without a reference time")
		return ref, false
	}
	if issue == nil {
		return ref, true
	}
	c, err := issue.Completed(ref, partialtime.Near)
	if err != nil {
		w.issue(conversion.LogicalError, nil, "issue time: %v", err)
		return ref, false
	}
	*issue = c
	t, _ := c.Complete()
	return t, true
}

// completeMETAR resolves the trend times ascending from the issue time.
func (w *walker) completeMETAR(m *model.METAR, hints conversion.Hints) {
	if !hints.CompleteTimes {
		return
	}
	anchor, ok := w.completeIssue(m.IssueTime, hints.ReferenceTime)
	if !ok {
		return
	}
	var refs []partialtime.Completable
	for i := range m.Trends {
		tr := &m.Trends[i]
		refs = append(refs, tr.From, tr.At, tr.Until)
	}
	if err := partialtime.CompleteAscending(anchor, partialtime.NotBefore, refs...); err != nil {
		w.issue(conversion.LogicalError, nil, "trend time: %v", err)
	}
}

// completeTAF resolves the validity from the issue time, then each change
// period and min/max temperature from the validity start. Change groups
// may overlap, so they are not chained to one another.
func (w *walker) completeTAF(t *model.TAF, hints conversion.Hints) {
	if !hints.CompleteTimes {
		return
	}
	anchor, ok := w.completeIssue(t.IssueTime, hints.ReferenceTime)
	if !ok {
		return
	}
	if t.ValidityTime != nil {
		if err := partialtime.CompleteAscending(anchor, partialtime.NotBefore, t.ValidityTime); err != nil {
			w.issue(conversion.LogicalError, nil, "validity: %v", err)
			return
		}
		if t.ValidityTime.Start != nil {
			anchor, _ = t.ValidityTime.Start.Complete()
		}
	}
	for i := range t.ChangeForecasts {
		ch := &t.ChangeForecasts[i]
		if err := partialtime.CompleteAscending(anchor, partialtime.NotBefore, &ch.Period); err != nil {
			w.issue(conversion.LogicalError, nil, "%s period: %v", ch.Type, err)
		}
	}
	for i := range t.Temperatures {
		if err := partialtime.CompleteAscending(anchor, partialtime.NotBefore, &t.Temperatures[i].Time); err != nil {
			w.issue(conversion.LogicalError, nil, "temperature time: %v", err)
		}
	}
}
