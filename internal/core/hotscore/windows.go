package hotscore

import "time"

// point is a scan position and the number of ordered events visible there
type point struct {
	t time.Time
	k int
}

// windows finds the intervals within the lookback where the score was hot
//
// With a fixed event set the score only decays as time passes, so it can only
// rise at an event time. Each segment between consecutive event times is
// therefore hot from its start up to a single crossing, found by bisection.
func (m Model) windows(evs []Event, now time.Time) []Window {
	out := []Window{}
	hot := m.Thresholds[1]
	from := now.Add(-m.Lookback())

	var pts []point
	k := 0
	for k < len(evs) && !evs[k].At.After(from) {
		k++
	}
	if k > 0 {
		pts = append(pts, point{t: from, k: k})
	}
	for i := k; i < len(evs); {
		t := evs[i].At
		j := i
		for j < len(evs) && evs[j].At.Equal(t) {
			j++
		}
		pts = append(pts, point{t: t, k: j})
		i = j
	}

	var cur *Window
	for i, p := range pts {
		end := now
		if i+1 < len(pts) {
			end = pts[i+1].t
		}
		set := evs[:p.k]

		start := m.score(set, p.t)
		if start < hot {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &Window{Start: p.t, Score: start, Reasons: m.reasons(set, p.t)}
		} else if start > cur.Score {
			cur.Score = start
			cur.Reasons = m.reasons(set, p.t)
		}

		if m.score(set, end) >= hot {
			cur.End = end
			continue
		}
		cur.End = m.lastHot(set, p.t, end, hot)
		out = append(out, *cur)
		cur = nil
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// lastHot returns the last whole second in [start,end) at which set still
// scores at or above hot, given that it does at start
func (m Model) lastHot(set []Event, start, end time.Time, hot float64) time.Time {
	lo, hi := int64(0), int64(end.Sub(start)/time.Second)
	if hi == 0 {
		return start
	}
	at := func(s int64) time.Time { return start.Add(time.Duration(s) * time.Second) }
	if m.score(set, at(hi)) >= hot {
		return at(hi)
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if m.score(set, at(mid)) >= hot {
			lo = mid
		} else {
			hi = mid
		}
	}
	return at(lo)
}
