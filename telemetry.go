package gap

// SendMetric reports one metric event to the server. Best effort; never
// blocks a transaction.
func (s *State) SendMetric(metricID int64, extras map[string]string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("send metric", eng.SendMetric(metricID, extras))
}

// SendUserReport sends an issue report, optionally with an attached file.
func (s *State) SendUserReport(userName, message, file string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("send user report", eng.SendUserReport(userName, message, file))
}

// SendLastCrashLogs uploads the crash report and state log of the previous
// run.
func (s *State) SendLastCrashLogs(userName, crashReport, stateLog, extra string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("send crash logs", eng.SendLastCrashLogs(userName, crashReport, stateLog, extra))
}
