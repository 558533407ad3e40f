// Package standings 将 (预测, 比赛) 对聚合为每个用户的排行榜条目。
package standings

import (
	"cmp"
	"slices"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/scoring"

	"github.com/shopspring/decimal"
)

// Pair 一条预测及其对应比赛；Match 为空表示数据缺失
type Pair struct {
	Prediction *model.Prediction
	Match      *model.Match
}

// Standing 单个用户在某个范围（赛季/全部）内的汇总，不落库
type Standing struct {
	UserID             string  `json:"user_id"`
	DisplayName        string  `json:"display_name"`
	TotalPoints        int     `json:"total_points"`
	TotalPredictions   int     `json:"total_predictions"`
	CorrectPredictions int     `json:"correct_predictions"`
	Accuracy           float64 `json:"accuracy"`
	PointsWinner       int     `json:"points_winner"`
	PointsHalftime     int     `json:"points_halftime"`
	PointsDifference   int     `json:"points_difference"`
	PointsExact        int     `json:"points_exact"`
	Pending            int     `json:"pending"`
}

// Aggregate 按用户分组重新计分并汇总。
// 未结束、缺比赛或数据非法的预测跳过，不计入积分与准确率分母；未结束的计入 Pending。
// names 为 user_id → 显示名，缺失时回退为 user_id。
func Aggregate(pairs []Pair, names map[string]string) []Standing {
	byUser := make(map[string]*Standing)
	order := make([]string, 0)

	for _, pair := range pairs {
		p := pair.Prediction
		if p == nil {
			continue
		}
		st, ok := byUser[p.UserID]
		if !ok {
			name := names[p.UserID]
			if name == "" {
				name = p.UserID
			}
			st = &Standing{UserID: p.UserID, DisplayName: name}
			byUser[p.UserID] = st
			order = append(order, p.UserID)
		}

		if pair.Match == nil {
			continue
		}
		result, finished := pair.Match.Result()
		if !finished {
			if pair.Match.Status != model.MatchPostponed && pair.Match.Status != model.MatchCancelled {
				st.Pending++
			}
			continue
		}
		b, err := scoring.Score(pair.Match.ScoringMode, p.Input(), result)
		if err != nil {
			continue
		}
		st.add(b)
	}

	out := make([]Standing, 0, len(order))
	for _, id := range order {
		st := byUser[id]
		st.Accuracy = Accuracy(st.CorrectPredictions, st.TotalPredictions)
		out = append(out, *st)
	}
	Sort(out)
	return out
}

func (s *Standing) add(b scoring.Breakdown) {
	s.TotalPredictions++
	if b.Total > 0 {
		s.CorrectPredictions++
	}
	s.TotalPoints += b.Total
	s.PointsWinner += b.Winner
	s.PointsHalftime += b.Halftime
	s.PointsDifference += b.Difference
	s.PointsExact += b.Exact
}

// Accuracy correct/total×100，保留一位小数（四舍五入），total=0 时为 0
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(correct)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
	return pct.InexactFloat64()
}

// Sort 确定性排序：总分降序、准确率降序、显示名升序、user_id 升序
func Sort(list []Standing) {
	slices.SortStableFunc(list, func(a, b Standing) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Accuracy, a.Accuracy); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}

// Leader 排序后的第一名；无人得分时没有冠军
func Leader(list []Standing) (Standing, bool) {
	if len(list) == 0 || list[0].TotalPoints <= 0 {
		return Standing{}, false
	}
	return list[0], true
}
