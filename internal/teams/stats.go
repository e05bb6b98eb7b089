package teams

import "hackathon-scoreboard/internal/scoring"

// AverageOverall is the mean overall score, 0 when the registry is empty.
func (r *Registry) AverageOverall() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range r.order {
		sum += r.teams[id].OverallScore()
	}
	return sum / float64(len(r.order))
}

// MinOverall is the lowest overall score, 0 when the registry is empty.
func (r *Registry) MinOverall() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return 0
	}
	low := r.teams[r.order[0]].OverallScore()
	for _, id := range r.order[1:] {
		low = min(low, r.teams[id].OverallScore())
	}
	return low
}

// MaxOverall is the highest overall score, 0 when the registry is empty.
func (r *Registry) MaxOverall() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return 0
	}
	high := r.teams[r.order[0]].OverallScore()
	for _, id := range r.order[1:] {
		high = max(high, r.teams[id].OverallScore())
	}
	return high
}

// HighestScoring returns the best team; on ties the earliest registered wins.
func (r *Registry) HighestScoring() (Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return Team{}, false
	}
	best := r.teams[r.order[0]]
	for _, id := range r.order[1:] {
		if t := r.teams[id]; t.OverallScore() > best.OverallScore() {
			best = t
		}
	}
	return best, true
}

// ScoreFrequency counts how often each sub-score value 0..5 was awarded
// across every team and criterion.
func (r *Registry) ScoreFrequency() [scoring.MaxScore + 1]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var freq [scoring.MaxScore + 1]int
	for _, id := range r.order {
		for _, s := range r.teams[id].Scores {
			if scoring.InRange(s) {
				freq[s]++
			}
		}
	}
	return freq
}
