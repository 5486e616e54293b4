package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/yuqie6/IdleScape/internal/dto"
	"github.com/yuqie6/IdleScape/internal/gamedata"
	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
)

// CatalogService 目录数据（活动、选项、物品）的导入与查询
type CatalogService struct {
	store CatalogStore
	now   func() time.Time
}

// NewCatalogService 创建目录服务
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store, now: time.Now}
}

// SeedResult 一次目录导入的统计
type SeedResult struct {
	Seeded     bool
	Activities int
	Options    int
	Items      int
	Digest     string
}

// EnsureSeeded 目录为空时导入；已有目录时只比较摘要，不一致仅告警，需要显式 init-db
func (s *CatalogService) EnsureSeeded(ctx context.Context, data *gamedata.Data) (*SeedResult, error) {
	count, err := s.store.CountActivities(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		meta, err := s.store.GetMeta(ctx)
		if err != nil {
			return nil, err
		}
		if meta != nil && meta.CatalogDigest != "" && meta.CatalogDigest != data.Digest {
			slog.Warn("目录数据文件已变更，数据库仍使用旧目录，运行 init-db 重新导入",
				"source", data.Source,
				"stored_digest", shortDigest(meta.CatalogDigest),
				"file_digest", shortDigest(data.Digest),
			)
		}
		return &SeedResult{Digest: data.Digest}, nil
	}
	return s.Reseed(ctx, data)
}

// Reseed 在一个事务中清空并重建目录（破坏性）。
// 名称不变的条目保留原 ID；角色数据仍引用被移除的条目时拒绝执行，角色数据从不删除。
func (s *CatalogService) Reseed(ctx context.Context, data *gamedata.Data) (*SeedResult, error) {
	result := &SeedResult{Seeded: true, Digest: data.Digest}
	err := s.store.InTxCatalog(ctx, func(tx CatalogStore) error {
		existing, err := loadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		items, activities, options, err := buildCatalog(data, existing)
		if err != nil {
			return err
		}
		if err := checkOrphans(ctx, tx, existing, items, activities, options); err != nil {
			return err
		}

		if err := tx.ReplaceCatalog(ctx, items, activities, options); err != nil {
			if errors.Is(err, repository.ErrCatalogInUse) {
				return &ConfigurationError{Reason: err.Error()}
			}
			return err
		}
		if err := tx.SetCatalogDigest(ctx, data.Digest, s.now().UTC()); err != nil {
			return err
		}

		result.Activities = len(activities)
		result.Options = len(options)
		result.Items = len(items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("目录已导入",
		"source", data.Source,
		"activities", result.Activities,
		"options", result.Options,
		"items", result.Items,
		"digest", shortDigest(data.Digest),
	)
	return result, nil
}

// ListActivities 活动目录（含选项），按 ID 顺序
func (s *CatalogService) ListActivities(ctx context.Context) ([]dto.ActivityCatalogDTO, error) {
	cat, err := loadCatalog(ctx, s.store)
	if err != nil {
		return nil, err
	}

	itemNames := make(map[int64]string, len(cat.items))
	for _, it := range cat.items {
		itemNames[it.ID] = it.Name
	}

	out := make([]dto.ActivityCatalogDTO, 0, len(cat.activities))
	index := make(map[int64]int, len(cat.activities))
	for _, a := range cat.activities {
		index[a.ID] = len(out)
		out = append(out, dto.ActivityCatalogDTO{Name: a.Name, Type: a.Type, Options: []dto.OptionDTO{}})
	}
	for _, o := range cat.options {
		i, ok := index[o.ActivityID]
		if !ok {
			continue
		}
		view := dto.OptionDTO{
			Name:             o.Name,
			ActionSeconds:    o.ActionTime,
			RewardItem:       itemNames[o.RewardItemID],
			RewardExperience: o.RewardExperience,
		}
		for _, skill := range slices.Sorted(maps.Keys(o.SkillReqs)) {
			view.Requirements = append(view.Requirements, fmt.Sprintf("%s %d", skill, o.SkillReqs[skill]))
		}
		for _, req := range o.ItemReqs {
			view.Requirements = append(view.Requirements, fmt.Sprintf("%d x %s", req.Quantity, req.Item))
		}
		for _, cost := range o.ItemCosts {
			view.Costs = append(view.Costs, fmt.Sprintf("%d x %s", cost.Quantity, cost.Item))
		}
		out[i].Options = append(out[i].Options, view)
	}
	return out, nil
}

type catalogSnapshot struct {
	activities []schema.Activity
	options    []schema.ActivityOption
	items      []schema.Item
}

func loadCatalog(ctx context.Context, store CatalogStore) (*catalogSnapshot, error) {
	var (
		cat catalogSnapshot
		err error
	)
	if cat.activities, err = store.ListActivities(ctx); err != nil {
		return nil, err
	}
	if cat.options, err = store.ListOptions(ctx); err != nil {
		return nil, err
	}
	if cat.items, err = store.ListItems(ctx); err != nil {
		return nil, err
	}
	return &cat, nil
}

// idAllocator 名称已存在时复用旧 ID，否则从当前最大 ID 之后依次分配
type idAllocator struct {
	byName map[string]int64
	next   int64
}

func newIDAllocator[T any](rows []T, key func(T) (string, int64)) *idAllocator {
	a := &idAllocator{byName: make(map[string]int64, len(rows)), next: 1}
	for _, row := range rows {
		name, id := key(row)
		a.byName[name] = id
		if id >= a.next {
			a.next = id + 1
		}
	}
	return a
}

func (a *idAllocator) id(name string) int64 {
	if id, ok := a.byName[name]; ok {
		return id
	}
	id := a.next
	a.next++
	a.byName[name] = id
	return id
}

func buildCatalog(data *gamedata.Data, existing *catalogSnapshot) ([]schema.Item, []schema.Activity, []schema.ActivityOption, error) {
	itemIDs := newIDAllocator(existing.items, func(it schema.Item) (string, int64) { return it.Name, it.ID })
	activityIDs := newIDAllocator(existing.activities, func(a schema.Activity) (string, int64) { return a.Name, a.ID })
	activityNames := nameIndex(existing.activities, func(a schema.Activity) (int64, string) { return a.ID, a.Name })
	// 选项名只在所属活动内唯一
	optionIDs := newIDAllocator(existing.options, func(o schema.ActivityOption) (string, int64) {
		return optionKey(activityNames[o.ActivityID], o.Name), o.ID
	})

	items := make([]schema.Item, 0, len(data.Items))
	itemByName := make(map[string]int64, len(data.Items))
	for _, name := range data.Items {
		id := itemIDs.id(name)
		itemByName[name] = id
		items = append(items, schema.Item{ID: id, Name: name})
	}

	activities := make([]schema.Activity, 0, len(data.Activities))
	options := make([]schema.ActivityOption, 0, data.OptionCount())
	for _, def := range data.Activities {
		activity := schema.Activity{ID: activityIDs.id(def.Name), Name: def.Name, Type: def.Type}
		if activity.Type == "" {
			activity.Type = "skill"
		}
		activities = append(activities, activity)

		for _, o := range def.Options {
			rewardID, ok := itemByName[o.RewardItem]
			if !ok {
				return nil, nil, nil, &ConfigurationError{Option: o.Name, Reason: fmt.Sprintf("unknown reward item %q", o.RewardItem)}
			}
			options = append(options, schema.ActivityOption{
				ID:               optionIDs.id(optionKey(def.Name, o.Name)),
				Name:             o.Name,
				ActivityID:       activity.ID,
				ActionTime:       o.ActionTime,
				RewardItemID:     rewardID,
				RewardExperience: o.RewardExperience,
				SkillReqs:        o.SkillRequirements,
				ItemCosts:        o.ItemCosts,
				ItemReqs:         o.ItemRequirements,
			})
		}
	}
	return items, activities, options, nil
}

// checkOrphans 角色数据引用的目录 ID 在新目录中必须仍然存在
func checkOrphans(ctx context.Context, tx CatalogStore, existing *catalogSnapshot, items []schema.Item, activities []schema.Activity, options []schema.ActivityOption) error {
	refs, err := tx.CatalogRefs(ctx)
	if err != nil {
		return err
	}

	var missing []string
	missing = appendMissing(missing, "activity", refs.ActivityIDs,
		idSet(activities, func(a schema.Activity) int64 { return a.ID }),
		nameIndex(existing.activities, func(a schema.Activity) (int64, string) { return a.ID, a.Name }))
	missing = appendMissing(missing, "option", refs.OptionIDs,
		idSet(options, func(o schema.ActivityOption) int64 { return o.ID }),
		nameIndex(existing.options, func(o schema.ActivityOption) (int64, string) { return o.ID, o.Name }))
	missing = appendMissing(missing, "item", refs.ItemIDs,
		idSet(items, func(it schema.Item) int64 { return it.ID }),
		nameIndex(existing.items, func(it schema.Item) (int64, string) { return it.ID, it.Name }))

	if len(missing) > 0 {
		return &ConfigurationError{Reason: "new catalog removes entries still used by characters: " + strings.Join(missing, ", ")}
	}
	return nil
}

func appendMissing(out []string, kind string, refs []int64, keep map[int64]struct{}, names map[int64]string) []string {
	for _, id := range refs {
		if _, ok := keep[id]; ok {
			continue
		}
		if name, ok := names[id]; ok {
			out = append(out, fmt.Sprintf("%s %q", kind, name))
		} else {
			out = append(out, fmt.Sprintf("%s #%d", kind, id))
		}
	}
	return out
}

func idSet[T any](rows []T, id func(T) int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		set[id(row)] = struct{}{}
	}
	return set
}

func nameIndex[T any](rows []T, key func(T) (int64, string)) map[int64]string {
	index := make(map[int64]string, len(rows))
	for _, row := range rows {
		id, name := key(row)
		index[id] = name
	}
	return index
}

func optionKey(activity, option string) string {
	return activity + "\x00" + option
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
