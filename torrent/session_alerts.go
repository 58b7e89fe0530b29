package torrent

import "time"

// isResponse reports whether the alert answers an explicit request and is posted regardless of the alert mask.
func isResponse(a Alert) bool {
	switch a.(type) {
	case *AddTorrentAlert, *SessionStatsAlert, *SaveResumeDataAlert, *SaveResumeDataFailedAlert:
		return true
	}
	return false
}

func (s *Session) post(alerts ...Alert) {
	mask := s.loadAlertMask()
	for _, a := range alerts {
		if a.Category()&mask == 0 && !isResponse(a) {
			continue
		}
		if !s.alerts.Push(a) {
			s.log.Debugln("alert queue is full, dropped:", a.What())
			continue
		}
		s.stats.Inc("alerts.alerts_posted", 1)
		s.log.Debugf("%s: %s", a.What(), a.Message())
	}
}

// PopAlerts returns and removes all queued alerts in the order they were posted.
func (s *Session) PopAlerts() []Alert {
	return s.alerts.PopAll()
}

// WaitForAlert blocks until an alert is queued or d elapses.
// The first alert is returned without removing it from the queue. Nil is returned on timeout.
func (s *Session) WaitForAlert(d time.Duration) Alert {
	a, ok := s.alerts.Wait(d)
	if !ok {
		return nil
	}
	return a
}

// SetAlertNotify sets a function that is called when an alert is posted to an empty queue.
// The function is called from the goroutine that posts the alert and must not block.
func (s *Session) SetAlertNotify(f func()) {
	s.alerts.SetNotify(f)
}

// DroppedAlerts returns the number of alerts dropped because the queue was full.
func (s *Session) DroppedAlerts() int64 {
	return s.alerts.Dropped()
}
