package memory

import (
	"time"

	"PredictionLeague/internal/model"
)

type state struct {
	users       map[string]*model.User
	matches     map[uint64]*model.Match
	predictions map[uint64]*model.Prediction
	seasons     map[uint64]*model.Season

	nextMatchID      uint64
	nextPredictionID uint64
	nextSeasonID     uint64
}

func newState() *state {
	return &state{
		users:       make(map[string]*model.User),
		matches:     make(map[uint64]*model.Match),
		predictions: make(map[uint64]*model.Prediction),
		seasons:     make(map[uint64]*model.Season),
	}
}

func (st *state) clone() *state {
	c := &state{
		users:            make(map[string]*model.User, len(st.users)),
		matches:          make(map[uint64]*model.Match, len(st.matches)),
		predictions:      make(map[uint64]*model.Prediction, len(st.predictions)),
		seasons:          make(map[uint64]*model.Season, len(st.seasons)),
		nextMatchID:      st.nextMatchID,
		nextPredictionID: st.nextPredictionID,
		nextSeasonID:     st.nextSeasonID,
	}
	for k, v := range st.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range st.matches {
		c.matches[k] = copyMatch(v)
	}
	for k, v := range st.predictions {
		c.predictions[k] = copyPrediction(v)
	}
	for k, v := range st.seasons {
		c.seasons[k] = copySeason(v)
	}
	return c
}

func intPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func timePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyMatch(m *model.Match) *model.Match {
	c := *m
	c.HomeScore = intPtr(m.HomeScore)
	c.AwayScore = intPtr(m.AwayScore)
	c.HomeScoreHalftime = intPtr(m.HomeScoreHalftime)
	c.AwayScoreHalftime = intPtr(m.AwayScoreHalftime)
	if m.Payload != nil {
		c.Payload = append(c.Payload[:0:0], m.Payload...)
	}
	return &c
}

func copyPrediction(p *model.Prediction) *model.Prediction {
	c := *p
	c.ScoredAt = timePtr(p.ScoredAt)
	return &c
}

func copySeason(s *model.Season) *model.Season {
	c := *s
	c.EndDate = timePtr(s.EndDate)
	c.WinnerPoints = intPtr(s.WinnerPoints)
	if s.WinnerUserID != nil {
		id := *s.WinnerUserID
		c.WinnerUserID = &id
	}
	if s.FinalStandings != nil {
		c.FinalStandings = append(c.FinalStandings[:0:0], s.FinalStandings...)
	}
	return &c
}
