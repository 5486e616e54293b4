package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/yuqie6/IdleScape/internal/gamedata"
	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
)

// ActivitySession 一条活动会话及其目录信息
type ActivitySession struct {
	Row      schema.CharacterActivity
	Activity schema.Activity
	Option   schema.ActivityOption
}

// StopResult 一次停止（含开始新活动时的隐式停止）的结算结果
type StopResult struct {
	Session     ActivitySession
	Elapsed     time.Duration
	Reward      Reward
	Item        *schema.Item
	LevelBefore int
	LevelAfter  int
}

// LeveledUp 本次结算是否升级
func (r *StopResult) LeveledUp() bool {
	return r.LevelAfter > r.LevelBefore
}

// StartResult 开始活动的结果；Stopped 为被替换的旧活动（可能为空）
type StartResult struct {
	Session ActivitySession
	Stopped *StopResult
}

// Progress 当前活动的进度快照，只读，不记账
type Progress struct {
	Session ActivitySession
	Elapsed time.Duration
	Pending Reward
	// NextIn 距离下一次完成的时间
	NextIn time.Duration
}

// ActivityService 活动引擎：维护“每个角色最多一条进行中活动”，按经过时间结算奖励
type ActivityService struct {
	store  GameStore
	policy RewardPolicy
	levels gamedata.LevelTable
	now    func() time.Time
}

// NewActivityService 创建活动引擎
func NewActivityService(store GameStore, policy RewardPolicy, levels gamedata.LevelTable) *ActivityService {
	if policy == nil {
		policy = FixedRewardPolicy{}
	}
	if len(levels) == 0 {
		levels = gamedata.DefaultLevelTable()
	}
	return &ActivityService{
		store:  store,
		policy: policy,
		levels: levels,
		now:    time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *ActivityService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// StartActivity 开始活动。若角色已有进行中的活动，先在同一事务内结算并关闭它。
// optionName 为空时取该活动的第一个选项。
func (s *ActivityService) StartActivity(ctx context.Context, characterName, activityName, optionName string) (*StartResult, error) {
	var result StartResult
	err := s.store.InTx(ctx, func(tx GameStore) error {
		character, err := requireCharacter(ctx, tx, characterName)
		if err != nil {
			return err
		}
		activity, option, err := resolveOption(ctx, tx, activityName, optionName)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		open, err := openActivity(ctx, tx, character.ID)
		if err != nil {
			return err
		}
		if open != nil {
			stopped, err := s.settle(ctx, tx, character, open, now)
			if err != nil {
				return err
			}
			result.Stopped = stopped
		}

		// 旧活动结算之后再检查要求，刚获得的经验/物品也算数
		if err := s.checkRequirements(ctx, tx, character.ID, option); err != nil {
			return err
		}

		row := &schema.CharacterActivity{
			CharacterID:      character.ID,
			ActivityID:       activity.ID,
			ActivityOptionID: option.ID,
			StartedAt:        now,
		}
		if err := tx.InsertActivity(ctx, row); err != nil {
			if errors.Is(err, repository.ErrOpenActivityExists) {
				return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
			}
			return err
		}
		result.Session = ActivitySession{Row: *row, Activity: *activity, Option: *option}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("开始活动",
		"character", characterName,
		"activity", result.Session.Activity.Name,
		"option", result.Session.Option.Name,
		"superseded", result.Stopped != nil,
	)
	return &result, nil
}

// StopActivity 结束当前活动并发放奖励；空闲时返回 ErrNoActiveActivity 且不修改任何数据
func (s *ActivityService) StopActivity(ctx context.Context, characterName string) (*StopResult, error) {
	var result *StopResult
	err := s.store.InTx(ctx, func(tx GameStore) error {
		character, err := requireCharacter(ctx, tx, characterName)
		if err != nil {
			return err
		}
		open, err := openActivity(ctx, tx, character.ID)
		if err != nil {
			return err
		}
		if open == nil {
			return fmt.Errorf("%w: %s", ErrNoActiveActivity, characterName)
		}
		result, err = s.settle(ctx, tx, character, open, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("结束活动",
		"character", characterName,
		"option", result.Session.Option.Name,
		"elapsed", result.Elapsed,
		"repetitions", result.Reward.Repetitions,
		"experience", result.Reward.Experience,
	)
	return result, nil
}

// GetCurrentActivity 当前进行中的活动，空闲返回 nil。只读，不结算奖励。
func (s *ActivityService) GetCurrentActivity(ctx context.Context, characterName string) (*ActivitySession, error) {
	character, err := requireCharacter(ctx, s.store, characterName)
	if err != nil {
		return nil, err
	}
	return s.currentFor(ctx, character.ID)
}

func (s *ActivityService) currentFor(ctx context.Context, characterID int64) (*ActivitySession, error) {
	open, err := openActivity(ctx, s.store, characterID)
	if err != nil || open == nil {
		return nil, err
	}
	session, err := loadSession(ctx, s.store, *open)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetProgress 当前活动的进度（经过时间与待结算次数），不写入任何数据
func (s *ActivityService) GetProgress(ctx context.Context, characterName string) (*Progress, error) {
	character, err := requireCharacter(ctx, s.store, characterName)
	if err != nil {
		return nil, err
	}
	return s.progressFor(ctx, character.ID, s.now().UTC())
}

func (s *ActivityService) progressFor(ctx context.Context, characterID int64, now time.Time) (*Progress, error) {
	session, err := s.currentFor(ctx, characterID)
	if err != nil || session == nil {
		return nil, err
	}

	elapsed := now.Sub(session.Row.StartedAt.UTC())
	pending, err := s.policy.Compute(elapsed, session.Option)
	if err != nil {
		return nil, err
	}
	p := &Progress{Session: *session, Elapsed: elapsed, Pending: pending}
	if step := session.Option.ActionDuration(); elapsed >= 0 {
		p.NextIn = step - pending.Remainder
	} else {
		p.NextIn = step - elapsed
	}
	return p, nil
}

// History 角色活动历史，最新在前
func (s *ActivityService) History(ctx context.Context, characterName string, limit int) ([]ActivitySession, error) {
	character, err := requireCharacter(ctx, s.store, characterName)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.HistoryFor(ctx, character.ID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ActivitySession, 0, len(rows))
	for _, row := range rows {
		session, err := loadSession(ctx, s.store, row)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

// Level 经验对应的等级
func (s *ActivityService) Level(exp int64) int {
	return s.levels.Level(exp)
}

// settle 结算并关闭一条进行中的活动。调用方负责事务。
func (s *ActivityService) settle(ctx context.Context, tx GameStore, character *schema.Character, open *schema.CharacterActivity, now time.Time) (*StopResult, error) {
	session, err := loadSession(ctx, tx, *open)
	if err != nil {
		return nil, err
	}

	elapsed := now.Sub(open.StartedAt.UTC())
	reward, err := s.policy.Compute(elapsed, session.Option)
	if err != nil {
		return nil, err
	}

	// 先关闭：并发中落败的一方在这里失败，不会重复记账
	if err := tx.CloseActivity(ctx, open, now); err != nil {
		if errors.Is(err, repository.ErrActivityClosed) {
			return nil, fmt.Errorf("%w: %s", ErrNoActiveActivity, character.Name)
		}
		return nil, err
	}
	session.Row = *open

	before, err := skillExperience(ctx, tx, character.ID, session.Activity.ID)
	if err != nil {
		return nil, err
	}

	result := &StopResult{
		Session:     session,
		Elapsed:     elapsed,
		Reward:      reward,
		LevelBefore: s.levels.Level(before),
		LevelAfter:  s.levels.Level(before + reward.Experience),
	}

	// 零次不创建空的账本行
	if reward.Experience > 0 {
		if err := tx.CreditExperience(ctx, character.ID, session.Activity.ID, reward.Experience); err != nil {
			return nil, err
		}
	}
	if reward.Items > 0 {
		if err := tx.CreditItem(ctx, character.ID, reward.ItemID, reward.Items); err != nil {
			return nil, err
		}
	}
	item, err := tx.GetItem(ctx, reward.ItemID)
	if err != nil {
		return nil, err
	}
	result.Item = item
	return result, nil
}

// checkRequirements 检查技能等级要求与持有物品要求。物品消耗只作为目录信息，不扣除。
func (s *ActivityService) checkRequirements(ctx context.Context, tx GameStore, characterID int64, option *schema.ActivityOption) error {
	if len(option.SkillReqs) == 0 && len(option.ItemReqs) == 0 {
		return nil
	}

	var unmet []string
	for _, skillName := range slices.Sorted(maps.Keys(option.SkillReqs)) {
		required := option.SkillReqs[skillName]
		activity, err := tx.FindActivityByName(ctx, skillName)
		if err != nil {
			return err
		}
		if activity == nil {
			return &ConfigurationError{Option: option.Name, Reason: fmt.Sprintf("skill requirement references unknown activity %q", skillName)}
		}
		exp, err := skillExperience(ctx, tx, characterID, activity.ID)
		if err != nil {
			return err
		}
		if lvl := s.levels.Level(exp); lvl < required {
			unmet = append(unmet, fmt.Sprintf("%s level %d (have %d)", skillName, required, lvl))
		}
	}

	if len(option.ItemReqs) > 0 {
		owned, err := tx.ItemsFor(ctx, characterID)
		if err != nil {
			return err
		}
		quantities := make(map[int64]int64, len(owned))
		for _, it := range owned {
			quantities[it.ItemID] = it.Quantity
		}
		for _, req := range option.ItemReqs {
			item, err := tx.FindItemByName(ctx, req.Item)
			if err != nil {
				return err
			}
			if item == nil {
				return &ConfigurationError{Option: option.Name, Reason: fmt.Sprintf("item requirement references unknown item %q", req.Item)}
			}
			if have := quantities[item.ID]; have < req.Quantity {
				unmet = append(unmet, fmt.Sprintf("%d x %s (have %d)", req.Quantity, req.Item, have))
			}
		}
	}

	if len(unmet) > 0 {
		return &RequirementError{Option: option.Name, Unmet: unmet}
	}
	return nil
}

func requireCharacter(ctx context.Context, store GameStore, name string) (*schema.Character, error) {
	character, err := store.FindCharacterByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, &NotFoundError{Kind: "character", Name: name}
	}
	return character, nil
}

func resolveOption(ctx context.Context, store GameStore, activityName, optionName string) (*schema.Activity, *schema.ActivityOption, error) {
	activity, err := store.FindActivityByName(ctx, activityName)
	if err != nil {
		return nil, nil, err
	}
	if activity == nil {
		return nil, nil, &NotFoundError{Kind: "activity", Name: activityName}
	}

	var option *schema.ActivityOption
	if optionName == "" {
		option, err = store.FirstOption(ctx, activity.ID)
		optionName = activityName + " (default)"
	} else {
		option, err = store.FindOptionByName(ctx, activity.ID, optionName)
	}
	if err != nil {
		return nil, nil, err
	}
	if option == nil {
		return nil, nil, &NotFoundError{Kind: "option", Name: optionName}
	}
	return activity, option, nil
}

// openActivity 查询进行中的活动，多条时上报完整性错误
func openActivity(ctx context.Context, store GameStore, characterID int64) (*schema.CharacterActivity, error) {
	open, err := store.OpenActivityFor(ctx, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrMultipleOpenActivities) {
			slog.Error("角色存在多条进行中的活动", "character_id", characterID, "error", err)
			return nil, &DataIntegrityError{CharacterID: characterID, Err: err}
		}
		return nil, err
	}
	return open, nil
}

func loadSession(ctx context.Context, store GameStore, row schema.CharacterActivity) (ActivitySession, error) {
	row.StartedAt = row.StartedAt.UTC()
	if row.EndedAt != nil {
		ended := row.EndedAt.UTC()
		row.EndedAt = &ended
	}
	session := ActivitySession{Row: row}

	activity, err := store.GetActivity(ctx, row.ActivityID)
	if err != nil {
		return session, err
	}
	if activity == nil {
		return session, &ConfigurationError{Reason: fmt.Sprintf("activity_id=%d missing from catalog", row.ActivityID)}
	}
	option, err := store.GetOption(ctx, row.ActivityOptionID)
	if err != nil {
		return session, err
	}
	if option == nil {
		return session, &ConfigurationError{Reason: fmt.Sprintf("activity_option_id=%d missing from catalog", row.ActivityOptionID)}
	}
	session.Activity = *activity
	session.Option = *option
	return session, nil
}

func skillExperience(ctx context.Context, store GameStore, characterID, activityID int64) (int64, error) {
	skills, err := store.SkillsFor(ctx, characterID)
	if err != nil {
		return 0, err
	}
	for _, sk := range skills {
		if sk.ActivityID == activityID {
			return sk.Experience, nil
		}
	}
	return 0, nil
}
