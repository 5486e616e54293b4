package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
)

type ledgerKey struct{ characterID, refID int64 }

type memState struct {
	activities []schema.Activity
	options    []schema.ActivityOption
	items      []schema.Item
	characters []schema.Character
	sessions   []schema.CharacterActivity
	skills     map[ledgerKey]int64
	inventory  map[ledgerKey]int64
	nextID     int64
}

func (st *memState) clone() *memState {
	out := *st
	out.activities = append([]schema.Activity(nil), st.activities...)
	out.options = append([]schema.ActivityOption(nil), st.options...)
	out.items = append([]schema.Item(nil), st.items...)
	out.characters = append([]schema.Character(nil), st.characters...)
	out.sessions = make([]schema.CharacterActivity, len(st.sessions))
	for i, row := range st.sessions {
		out.sessions[i] = row
		if row.EndedAt != nil {
			ended := *row.EndedAt
			out.sessions[i].EndedAt = &ended
		}
	}
	out.skills = make(map[ledgerKey]int64, len(st.skills))
	for k, v := range st.skills {
		out.skills[k] = v
	}
	out.inventory = make(map[ledgerKey]int64, len(st.inventory))
	for k, v := range st.inventory {
		out.inventory[k] = v
	}
	return &out
}

// memStore 内存版 GameStore：互斥锁保护，InTx 失败时恢复快照
type memStore struct {
	mu    *sync.Mutex
	state **memState
	inTx  bool

	failCreditItem error
	txCount        int
}

func newMemStore() *memStore {
	st := &memState{skills: map[ledgerKey]int64{}, inventory: map[ledgerKey]int64{}}
	return &memStore{mu: &sync.Mutex{}, state: &st}
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) st() *memState { return *s.state }

func (s *memStore) newID() int64 {
	s.st().nextID++
	return s.st().nextID
}

// seed 写入一个小目录：mining(copper, iron) / woodcutting(tree, oak)
func (s *memStore) seed() {
	st := s.st()
	add := func(name string) int64 {
		id := s.newID()
		st.items = append(st.items, schema.Item{ID: id, Name: name})
		return id
	}
	copper, iron, logs, oakLogs := add("copper ore"), add("iron ore"), add("logs"), add("oak logs")

	mining := schema.Activity{ID: s.newID(), Name: "mining", Type: "skill"}
	woodcutting := schema.Activity{ID: s.newID(), Name: "woodcutting", Type: "skill"}
	st.activities = append(st.activities, mining, woodcutting)

	st.options = append(st.options,
		schema.ActivityOption{ID: s.newID(), Name: "copper", ActivityID: mining.ID, ActionTime: 3, RewardItemID: copper, RewardExperience: 17},
		schema.ActivityOption{ID: s.newID(), Name: "iron", ActivityID: mining.ID, ActionTime: 5, RewardItemID: iron, RewardExperience: 35},
		schema.ActivityOption{ID: s.newID(), Name: "tree", ActivityID: woodcutting.ID, ActionTime: 3, RewardItemID: logs, RewardExperience: 25},
		schema.ActivityOption{
			ID: s.newID(), Name: "oak", ActivityID: woodcutting.ID, ActionTime: 5, RewardItemID: oakLogs, RewardExperience: 37,
			SkillReqs: schema.SkillRequirements{"woodcutting": 2},
			ItemReqs:  schema.ItemAmounts{{Item: "logs", Quantity: 10}},
		},
	)
}

func (s *memStore) InTx(ctx context.Context, fn func(tx GameStore) error) error {
	unlock := s.lock()
	defer unlock()

	s.txCount++
	snapshot := s.st().clone()
	tx := &memStore{mu: s.mu, state: s.state, inTx: true, failCreditItem: s.failCreditItem}
	if err := fn(tx); err != nil {
		*s.state = snapshot
		return err
	}
	return nil
}

func (s *memStore) FindActivityByName(ctx context.Context, name string) (*schema.Activity, error) {
	defer s.lock()()
	for _, a := range s.st().activities {
		if a.Name == name {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindOptionByName(ctx context.Context, activityID int64, name string) (*schema.ActivityOption, error) {
	defer s.lock()()
	for _, o := range s.st().options {
		if o.ActivityID == activityID && o.Name == name {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memStore) FirstOption(ctx context.Context, activityID int64) (*schema.ActivityOption, error) {
	defer s.lock()()
	var first *schema.ActivityOption
	for _, o := range s.st().options {
		if o.ActivityID == activityID && (first == nil || o.ID < first.ID) {
			o := o
			first = &o
		}
	}
	return first, nil
}

func (s *memStore) FindItemByName(ctx context.Context, name string) (*schema.Item, error) {
	defer s.lock()()
	for _, it := range s.st().items {
		if it.Name == name {
			it := it
			return &it, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetActivity(ctx context.Context, id int64) (*schema.Activity, error) {
	defer s.lock()()
	for _, a := range s.st().activities {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetOption(ctx context.Context, id int64) (*schema.ActivityOption, error) {
	defer s.lock()()
	for _, o := range s.st().options {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetItem(ctx context.Context, id int64) (*schema.Item, error) {
	defer s.lock()()
	for _, it := range s.st().items {
		if it.ID == id {
			it := it
			return &it, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindCharacterByName(ctx context.Context, name string) (*schema.Character, error) {
	defer s.lock()()
	for _, c := range s.st().characters {
		if c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateCharacter(ctx context.Context, character *schema.Character) error {
	defer s.lock()()
	for _, c := range s.st().characters {
		if c.Name == character.Name {
			return repository.ErrDuplicateName
		}
	}
	character.ID = s.newID()
	s.st().characters = append(s.st().characters, *character)
	return nil
}

func (s *memStore) ListCharacters(ctx context.Context) ([]schema.Character, error) {
	defer s.lock()()
	return append([]schema.Character(nil), s.st().characters...), nil
}

func (s *memStore) OpenActivityFor(ctx context.Context, characterID int64) (*schema.CharacterActivity, error) {
	defer s.lock()()
	var open []schema.CharacterActivity
	for _, row := range s.st().sessions {
		if row.CharacterID == characterID && row.EndedAt == nil {
			open = append(open, row)
		}
	}
	switch len(open) {
	case 0:
		return nil, nil
	case 1:
		return &open[0], nil
	default:
		return &open[0], repository.ErrMultipleOpenActivities
	}
}

func (s *memStore) CloseActivity(ctx context.Context, row *schema.CharacterActivity, endedAt time.Time) error {
	defer s.lock()()
	for i := range s.st().sessions {
		cur := &s.st().sessions[i]
		if cur.ID == row.ID {
			if cur.EndedAt != nil {
				return repository.ErrActivityClosed
			}
			ended := endedAt.UTC()
			cur.EndedAt = &ended
			row.EndedAt = &ended
			return nil
		}
	}
	return repository.ErrActivityClosed
}

func (s *memStore) InsertActivity(ctx context.Context, row *schema.CharacterActivity) error {
	defer s.lock()()
	for _, cur := range s.st().sessions {
		if cur.CharacterID == row.CharacterID && cur.EndedAt == nil {
			return repository.ErrOpenActivityExists
		}
	}
	row.ID = s.newID()
	s.st().sessions = append(s.st().sessions, *row)
	return nil
}

func (s *memStore) HistoryFor(ctx context.Context, characterID int64, limit int) ([]schema.CharacterActivity, error) {
	defer s.lock()()
	var out []schema.CharacterActivity
	for _, row := range s.st().sessions {
		if row.CharacterID == characterID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CreditExperience(ctx context.Context, characterID, activityID, amount int64) error {
	defer s.lock()()
	if amount < 0 {
		return errors.New("negative experience")
	}
	s.st().skills[ledgerKey{characterID, activityID}] += amount
	return nil
}

func (s *memStore) CreditItem(ctx context.Context, characterID, itemID, quantity int64) error {
	defer s.lock()()
	if s.failCreditItem != nil {
		return s.failCreditItem
	}
	s.st().inventory[ledgerKey{characterID, itemID}] += quantity
	return nil
}

func (s *memStore) SkillsFor(ctx context.Context, characterID int64) ([]schema.CharacterSkill, error) {
	defer s.lock()()
	var out []schema.CharacterSkill
	for k, v := range s.st().skills {
		if k.characterID == characterID {
			out = append(out, schema.CharacterSkill{CharacterID: k.characterID, ActivityID: k.refID, Experience: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityID < out[j].ActivityID })
	return out, nil
}

func (s *memStore) ItemsFor(ctx context.Context, characterID int64) ([]schema.CharacterItem, error) {
	defer s.lock()()
	var out []schema.CharacterItem
	for k, v := range s.st().inventory {
		if k.characterID == characterID {
			out = append(out, schema.CharacterItem{CharacterID: k.characterID, ItemID: k.refID, Quantity: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// 测试辅助

func (s *memStore) openRows(characterID int64) int {
	defer s.lock()()
	n := 0
	for _, row := range s.st().sessions {
		if row.CharacterID == characterID && row.EndedAt == nil {
			n++
		}
	}
	return n
}

func (s *memStore) forceOpenRow(row schema.CharacterActivity) {
	defer s.lock()()
	row.ID = s.newID()
	s.st().sessions = append(s.st().sessions, row)
}

func (s *memStore) sessionCount() int {
	defer s.lock()()
	return len(s.st().sessions)
}

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
