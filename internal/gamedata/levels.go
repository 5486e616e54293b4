package gamedata

import (
	"fmt"
	"math"
)

// MaxLevel 默认经验表的最高等级
const MaxLevel = 99

// LevelStep 经验表的一级：达到 MinXP 即为 Level
type LevelStep struct {
	Level int   `yaml:"level" json:"level"`
	MinXP int64 `yaml:"min_xp" json:"min_xp"`
}

// LevelTable 按经验升序排列的等级阶梯
type LevelTable []LevelStep

// Level 返回 MinXP <= exp 的最高等级，最低为 1
func (t LevelTable) Level(exp int64) int {
	for i := len(t) - 1; i >= 0; i-- {
		if exp >= t[i].MinXP {
			return t[i].Level
		}
	}
	return 1
}

// NextLevelXP 返回下一级所需总经验；已满级返回 0, false
func (t LevelTable) NextLevelXP(exp int64) (int64, bool) {
	for _, step := range t {
		if step.MinXP > exp {
			return step.MinXP, true
		}
	}
	return 0, false
}

// Validate 等级与经验都必须严格递增
func (t LevelTable) Validate() error {
	for i := 1; i < len(t); i++ {
		if t[i].Level <= t[i-1].Level || t[i].MinXP <= t[i-1].MinXP {
			return fmt.Errorf("经验表第 %d 行未严格递增", i+1)
		}
	}
	return nil
}

// DefaultLevelTable 经典放置类游戏的 99 级经验曲线
func DefaultLevelTable() LevelTable {
	t := make(LevelTable, 0, MaxLevel)
	t = append(t, LevelStep{Level: 1, MinXP: 0})
	points := 0.0
	for lvl := 1; lvl < MaxLevel; lvl++ {
		points += math.Floor(float64(lvl) + 300*math.Pow(2, float64(lvl)/7))
		t = append(t, LevelStep{Level: lvl + 1, MinXP: int64(math.Floor(points / 4))})
	}
	return t
}
