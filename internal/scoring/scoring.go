package scoring

import (
	"PredictionLeague/internal/apperr"
)

// Mode 计分制度，作为比赛的显式属性存储，读取时不再从数据形态推断
type Mode string

const (
	// ModeTiered 四项累加制：胜负 +1、半场 +2、净胜球 +3、精确比分 +4
	ModeTiered Mode = "tiered"
	// ModeLegacy 旧制：仅精确比分 +1
	ModeLegacy Mode = "legacy"
)

const (
	PointsWinner     = 1
	PointsHalftime   = 2
	PointsDifference = 3
	PointsExact      = 4
	PointsLegacy     = 1
	MaxPoints        = PointsWinner + PointsHalftime + PointsDifference + PointsExact
)

// Valid 是否为已知计分制度
func (m Mode) Valid() bool {
	return m == ModeTiered || m == ModeLegacy
}

// Prediction 用户预测（半场未填时为 0-0）
type Prediction struct {
	Home   int
	Away   int
	HomeHT int
	AwayHT int
}

// Result 实际赛果；半场比分可能缺失（历史数据），缺失用 nil 表示
type Result struct {
	Home   int
	Away   int
	HomeHT *int
	AwayHT *int
}

// HasHalftime 半场比分两项都存在才算已知
func (r Result) HasHalftime() bool {
	return r.HomeHT != nil && r.AwayHT != nil
}

// Breakdown 单条预测的得分明细
type Breakdown struct {
	Winner     int `json:"points_winner"`
	Halftime   int `json:"points_halftime"`
	Difference int `json:"points_difference"`
	Exact      int `json:"points_exact"`
	Total      int `json:"total"`
}

// Score 计算单条预测得分，纯函数。
// 半场项必须显式检查实际半场比分是否存在：缺失时恒为 0，不能把 nil 当成 0-0。
func Score(mode Mode, p Prediction, r Result) (Breakdown, error) {
	if err := validate(p, r); err != nil {
		return Breakdown{}, err
	}

	var b Breakdown
	switch mode {
	case ModeLegacy:
		if p.Home == r.Home && p.Away == r.Away {
			b.Exact = PointsLegacy
		}
	case ModeTiered:
		if sign(p.Home-p.Away) == sign(r.Home-r.Away) {
			b.Winner = PointsWinner
		}
		if r.HasHalftime() && p.HomeHT == *r.HomeHT && p.AwayHT == *r.AwayHT {
			b.Halftime = PointsHalftime
		}
		if p.Home-p.Away == r.Home-r.Away {
			b.Difference = PointsDifference
		}
		if p.Home == r.Home && p.Away == r.Away {
			b.Exact = PointsExact
		}
	default:
		return Breakdown{}, apperr.InvalidInput("unknown scoring mode %q", mode)
	}
	b.Total = b.Winner + b.Halftime + b.Difference + b.Exact
	return b, nil
}

func validate(p Prediction, r Result) error {
	for _, v := range []int{p.Home, p.Away, p.HomeHT, p.AwayHT, r.Home, r.Away} {
		if v < 0 {
			return apperr.InvalidInput("score values must be non-negative, got %d", v)
		}
	}
	if r.HomeHT != nil && *r.HomeHT < 0 {
		return apperr.InvalidInput("halftime score must be non-negative, got %d", *r.HomeHT)
	}
	if r.AwayHT != nil && *r.AwayHT < 0 {
		return apperr.InvalidInput("halftime score must be non-negative, got %d", *r.AwayHT)
	}
	return nil
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
