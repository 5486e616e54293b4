package service

import (
	"time"

	"github.com/yuqie6/IdleScape/internal/schema"
)

// RewardPolicy 奖励计算策略（可替换）
type RewardPolicy interface {
	// Compute 根据经过时间计算完成次数与奖励
	Compute(elapsed time.Duration, option schema.ActivityOption) (Reward, error)
}

// Reward 一段时间内完成的动作与对应奖励
type Reward struct {
	Repetitions int64
	Experience  int64
	ItemID      int64
	Items       int64
	Remainder   time.Duration // 未完成的部分，停止时丢弃
}

// FixedRewardPolicy 默认策略：完成次数 = floor(经过时间 / 单次时长)，不足一次的进度作废
type FixedRewardPolicy struct{}

// Compute 计算奖励
func (FixedRewardPolicy) Compute(elapsed time.Duration, option schema.ActivityOption) (Reward, error) {
	reward := Reward{ItemID: option.RewardItemID}
	if option.ActionTime <= 0 {
		return reward, &ConfigurationError{Option: option.Name, Reason: "action_time must be positive"}
	}
	if elapsed <= 0 {
		// 时钟回拨按 0 次处理
		return reward, nil
	}

	step := option.ActionDuration()
	reward.Repetitions = int64(elapsed / step)
	reward.Remainder = elapsed % step
	reward.Experience = reward.Repetitions * option.RewardExperience
	reward.Items = reward.Repetitions
	return reward, nil
}
