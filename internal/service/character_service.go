package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuqie6/IdleScape/internal/dto"
	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
)

const maxCharacterNameLen = 100

// CharacterService 角色创建与查询
type CharacterService struct {
	store      GameStore
	activities *ActivityService
	now        func() time.Time
}

// NewCharacterService 创建角色服务
func NewCharacterService(store GameStore, activities *ActivityService) *CharacterService {
	return &CharacterService{store: store, activities: activities, now: time.Now}
}

// SetClock 替换时钟（测试用）
func (s *CharacterService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create 创建角色，名称去掉首尾空白后不能为空且不能重名
func (s *CharacterService) Create(ctx context.Context, name string) (*schema.Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "character name", Reason: "must not be blank"}
	}
	if utf8.RuneCountInString(name) > maxCharacterNameLen {
		return nil, &ValidationError{Field: "character name", Reason: fmt.Sprintf("must be at most %d characters", maxCharacterNameLen)}
	}

	character := &schema.Character{Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateCharacter(ctx, character); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, &DuplicateNameError{Name: name}
		}
		return nil, fmt.Errorf("创建角色失败: %w", err)
	}
	character.CreatedAt = character.CreatedAt.UTC()

	slog.Info("创建角色", "character", name, "id", character.ID)
	return character, nil
}

// Get 按名称查询角色
func (s *CharacterService) Get(ctx context.Context, name string) (*schema.Character, error) {
	character, err := requireCharacter(ctx, s.store, name)
	if err != nil {
		return nil, err
	}
	character.CreatedAt = character.CreatedAt.UTC()
	return character, nil
}

// List 全部角色，附带是否有进行中的活动
func (s *CharacterService) List(ctx context.Context) ([]dto.CharacterRowDTO, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CharacterRowDTO, 0, len(characters))
	for _, c := range characters {
		open, err := openActivity(ctx, s.store, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.CharacterRowDTO{Name: c.Name, CreatedAt: c.CreatedAt.UTC(), Busy: open != nil})
	}
	return out, nil
}

// Sheet 角色面板：当前活动与待结算奖励、技能等级、背包
func (s *CharacterService) Sheet(ctx context.Context, name string, now time.Time) (*dto.CharacterSheetDTO, error) {
	character, err := requireCharacter(ctx, s.store, name)
	if err != nil {
		return nil, err
	}

	sheet := &dto.CharacterSheetDTO{
		Name:      character.Name,
		CreatedAt: character.CreatedAt.UTC(),
		Skills:    []dto.SkillDTO{},
		Inventory: []dto.InventoryRowDTO{},
	}

	progress, err := s.activities.progressFor(ctx, character.ID, now.UTC())
	if err != nil {
		return nil, err
	}
	if progress != nil {
		current := &dto.CurrentActivity{
			Activity:      progress.Session.Activity.Name,
			Option:        progress.Session.Option.Name,
			StartedAt:     progress.Session.Row.StartedAt,
			Elapsed:       progress.Elapsed,
			PendingReps:   progress.Pending.Repetitions,
			PendingXP:     progress.Pending.Experience,
			NextRepIn:     progress.NextIn,
			ActionSeconds: progress.Session.Option.ActionTime,
		}
		if item, err := s.store.GetItem(ctx, progress.Session.Option.RewardItemID); err != nil {
			return nil, err
		} else if item != nil {
			current.RewardItem = item.Name
		}
		sheet.Current = current
	}

	skills, err := s.store.SkillsFor(ctx, character.ID)
	if err != nil {
		return nil, err
	}
	for _, sk := range skills {
		activity, err := s.store.GetActivity(ctx, sk.ActivityID)
		if err != nil {
			return nil, err
		}
		row := dto.SkillDTO{
			Experience: sk.Experience,
			Level:      s.activities.Level(sk.Experience),
		}
		if activity != nil {
			row.Activity = activity.Name
		} else {
			row.Activity = fmt.Sprintf("activity #%d", sk.ActivityID)
		}
		if next, ok := s.activities.levels.NextLevelXP(sk.Experience); ok {
			row.NextLevelXP = next
		}
		sheet.TotalXP += sk.Experience
		sheet.Skills = append(sheet.Skills, row)
	}
	sort.Slice(sheet.Skills, func(i, j int) bool { return sheet.Skills[i].Activity < sheet.Skills[j].Activity })

	items, err := s.store.ItemsFor(ctx, character.ID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		item, err := s.store.GetItem(ctx, it.ItemID)
		if err != nil {
			return nil, err
		}
		row := dto.InventoryRowDTO{Quantity: it.Quantity}
		if item != nil {
			row.Item = item.Name
		} else {
			row.Item = fmt.Sprintf("item #%d", it.ItemID)
		}
		sheet.Inventory = append(sheet.Inventory, row)
	}
	sort.Slice(sheet.Inventory, func(i, j int) bool { return sheet.Inventory[i].Item < sheet.Inventory[j].Item })

	return sheet, nil
}
