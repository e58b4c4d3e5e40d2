package instinct

import (
	"encoding/csv"
	"os"
	"strconv"
)

// Statistics tracks per-agent training error and reward series over a
// run, for dumping to CSV.
type Statistics struct {
	Creation []string
	Errors   map[string][]float32
	Rewards  map[string][]float32
}

func makeStatistics() Statistics {
	return Statistics{
		Creation: make([]string, 0, 64),
		Errors:   make(map[string][]float32),
		Rewards:  make(map[string][]float32),
	}
}

func (s *Statistics) update(a *Agent, meanErr, reward float32) {
	aname := a.Name()
	if _, ok := s.Errors[aname]; !ok {
		s.Creation = append(s.Creation, aname)
	}

	s.Errors[aname] = append(s.Errors[aname], meanErr)
	s.Rewards[aname] = append(s.Rewards[aname], reward)
}

func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"agent", "step", "error", "reward"}); err != nil {
		return err
	}
	var records [][]string
	for _, agent := range s.Creation {
		for i, e := range s.Errors[agent] {
			records = append(records, []string{
				agent,
				strconv.Itoa(i),
				strconv.FormatFloat(float64(e), 'f', 5, 32),
				strconv.FormatFloat(float64(s.Rewards[agent][i]), 'f', 3, 32),
			})
		}
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return nil
}
