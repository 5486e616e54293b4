package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yuqie6/IdleScape/internal/repository"
	"github.com/yuqie6/IdleScape/internal/schema"
	"github.com/yuqie6/IdleScape/internal/testutil"
)

func seedCatalog(t *testing.T, store *repository.Store) {
	t.Helper()
	items := []schema.Item{{ID: 1, Name: "iron ore"}, {ID: 2, Name: "logs"}}
	activities := []schema.Activity{{ID: 1, Name: "mining", Type: "skill"}, {ID: 2, Name: "woodcutting", Type: "skill"}}
	options := []schema.ActivityOption{
		{ID: 1, Name: "iron", ActivityID: 1, ActionTime: 5, RewardItemID: 1, RewardExperience: 35},
		{ID: 2, Name: "tree", ActivityID: 2, ActionTime: 3, RewardItemID: 2, RewardExperience: 25},
	}
	err := store.InTx(context.Background(), func(tx *repository.Store) error {
		return tx.Catalog.Replace(context.Background(), items, activities, options)
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

func newCharacter(t *testing.T, store *repository.Store, name string) *schema.Character {
	t.Helper()
	c := &schema.Character{Name: name, CreatedAt: time.Now().UTC()}
	if err := store.CreateCharacter(context.Background(), c); err != nil {
		t.Fatalf("create character: %v", err)
	}
	return c
}

func TestCharacterCreateAndGetByName(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	created := newCharacter(t, store, "Tobyone")
	if created.ID == 0 {
		t.Fatalf("id not assigned")
	}

	got, err := store.FindCharacterByName(ctx, "Tobyone")
	if err != nil {
		t.Fatalf("FindCharacterByName error: %v", err)
	}
	if got == nil || got.Name != "Tobyone" || got.CreatedAt.IsZero() {
		t.Fatalf("got=%+v", got)
	}

	missing, err := store.FindCharacterByName(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("missing=%+v err=%v, want nil,nil", missing, err)
	}

	err = store.CreateCharacter(ctx, &schema.Character{Name: "Tobyone", CreatedAt: time.Now().UTC()})
	if !errors.Is(err, repository.ErrDuplicateName) {
		t.Fatalf("duplicate create err=%v, want ErrDuplicateName", err)
	}

	all, err := store.ListCharacters(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list=%v err=%v", all, err)
	}
}

func TestCatalogFindOptionScopedToActivity(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	seedCatalog(t, store)
	ctx := context.Background()

	mining, err := store.FindActivityByName(ctx, "mining")
	if err != nil || mining == nil || mining.ID != 1 {
		t.Fatalf("mining=%+v err=%v", mining, err)
	}
	iron, err := store.FindOptionByName(ctx, mining.ID, "iron")
	if err != nil || iron == nil || iron.RewardExperience != 35 {
		t.Fatalf("iron=%+v err=%v", iron, err)
	}
	tree, err := store.FindOptionByName(ctx, mining.ID, "tree")
	if err != nil || tree != nil {
		t.Fatalf("tree under mining=%+v err=%v, want nil", tree, err)
	}
	first, err := store.FirstOption(ctx, 2)
	if err != nil || first == nil || first.Name != "tree" {
		t.Fatalf("first option=%+v err=%v", first, err)
	}
}

func TestActivityOpenInsertClose(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	seedCatalog(t, store)
	ctx := context.Background()
	c := newCharacter(t, store, "Tobyone")

	open, err := store.OpenActivityFor(ctx, c.ID)
	if err != nil || open != nil {
		t.Fatalf("open=%+v err=%v, want none", open, err)
	}

	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	row := &schema.CharacterActivity{CharacterID: c.ID, ActivityID: 1, ActivityOptionID: 1, StartedAt: started}
	if err := store.InsertActivity(ctx, row); err != nil {
		t.Fatalf("InsertActivity error: %v", err)
	}

	second := &schema.CharacterActivity{CharacterID: c.ID, ActivityID: 2, ActivityOptionID: 2, StartedAt: started}
	if err := store.InsertActivity(ctx, second); !errors.Is(err, repository.ErrOpenActivityExists) {
		t.Fatalf("second open insert err=%v, want ErrOpenActivityExists", err)
	}

	open, err = store.OpenActivityFor(ctx, c.ID)
	if err != nil || open == nil || open.ID != row.ID {
		t.Fatalf("open=%+v err=%v", open, err)
	}
	if !open.StartedAt.UTC().Equal(started) {
		t.Fatalf("started_at=%v, want %v", open.StartedAt, started)
	}

	ended := started.Add(time.Minute)
	if err := store.CloseActivity(ctx, open, ended); err != nil {
		t.Fatalf("CloseActivity error: %v", err)
	}
	if open.EndedAt == nil || !open.EndedAt.Equal(ended) {
		t.Fatalf("ended_at not set on row: %v", open.EndedAt)
	}
	if err := store.CloseActivity(ctx, open, ended); !errors.Is(err, repository.ErrActivityClosed) {
		t.Fatalf("second close err=%v, want ErrActivityClosed", err)
	}

	// 关闭后可以再开一条
	if err := store.InsertActivity(ctx, second); err != nil {
		t.Fatalf("insert after close: %v", err)
	}
	history, err := store.HistoryFor(ctx, c.ID, 0)
	if err != nil || len(history) != 2 {
		t.Fatalf("history=%v err=%v", history, err)
	}
}

func TestOpenActivityReportsMultipleOpenRows(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := repository.NewStore(db)
	seedCatalog(t, store)
	ctx := context.Background()
	c := newCharacter(t, store, "Broken")

	// 模拟索引缺失时写入的脏数据
	if err := db.Exec("DROP INDEX uniq_character_open_activity").Error; err != nil {
		t.Fatalf("drop index: %v", err)
	}
	now := time.Now().UTC()
	for _, optionID := range []int64{1, 2} {
		row := &schema.CharacterActivity{CharacterID: c.ID, ActivityID: optionID, ActivityOptionID: optionID, StartedAt: now}
		if err := store.InsertActivity(ctx, row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if _, err := store.OpenActivityFor(ctx, c.ID); !errors.Is(err, repository.ErrMultipleOpenActivities) {
		t.Fatalf("err=%v, want ErrMultipleOpenActivities", err)
	}
}

func TestCreditAccumulates(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	seedCatalog(t, store)
	ctx := context.Background()
	c := newCharacter(t, store, "Tobyone")

	for _, amount := range []int64{35, 70} {
		if err := store.CreditExperience(ctx, c.ID, 1, amount); err != nil {
			t.Fatalf("CreditExperience error: %v", err)
		}
		if err := store.CreditItem(ctx, c.ID, 1, amount/35); err != nil {
			t.Fatalf("CreditItem error: %v", err)
		}
	}

	skills, err := store.SkillsFor(ctx, c.ID)
	if err != nil || len(skills) != 1 || skills[0].Experience != 105 {
		t.Fatalf("skills=%+v err=%v, want one row with 105", skills, err)
	}
	items, err := store.ItemsFor(ctx, c.ID)
	if err != nil || len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("items=%+v err=%v, want one row with 3", items, err)
	}

	if err := store.CreditExperience(ctx, c.ID, 1, -1); err == nil {
		t.Fatalf("negative credit should fail")
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	seedCatalog(t, store)
	ctx := context.Background()
	c := newCharacter(t, store, "Tobyone")

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.CreditExperience(ctx, c.ID, 1, 100); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
	skills, _ := store.SkillsFor(ctx, c.ID)
	if len(skills) != 0 {
		t.Fatalf("skills=%+v, want rollback", skills)
	}
}

func TestCatalogReplaceRefusesOrphans(t *testing.T) {
	store := repository.NewStore(testutil.OpenTestDB(t))
	seedCatalog(t, store)
	ctx := context.Background()
	c := newCharacter(t, store, "Tobyone")
	if err := store.CreditItem(ctx, c.ID, 2, 1); err != nil {
		t.Fatalf("CreditItem: %v", err)
	}

	refs, err := store.CatalogRefs(ctx)
	if err != nil {
		t.Fatalf("CatalogRefs: %v", err)
	}
	if len(refs.ItemIDs) != 1 || refs.ItemIDs[0] != 2 {
		t.Fatalf("item refs=%v, want [2]", refs.ItemIDs)
	}

	// 新目录不再包含 item 2
	err = store.InTx(ctx, func(tx *repository.Store) error {
		return tx.Catalog.Replace(ctx, []schema.Item{{ID: 1, Name: "iron ore"}}, nil, nil)
	})
	if !errors.Is(err, repository.ErrCatalogInUse) {
		t.Fatalf("replace dropping a referenced item err=%v, want ErrCatalogInUse", err)
	}
	items, _ := store.Catalog.ListItems(ctx)
	if len(items) != 2 {
		t.Fatalf("items=%v, want catalog untouched after rollback", items)
	}
}

func TestNewDatabaseMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "idlescape.db")
	db, err := repository.NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	if db.SchemaVersion != 1 {
		t.Fatalf("schema version=%d, want 1", db.SchemaVersion)
	}
	meta := repository.NewMetaRepository(db.DB)
	seededAt := time.Now()
	if err := meta.SetCatalogDigest(context.Background(), "abc", seededAt); err != nil {
		t.Fatalf("SetCatalogDigest: %v", err)
	}
	_ = db.Close()

	db, err = repository.NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	got, err := repository.NewMetaRepository(db.DB).Get(context.Background())
	if err != nil || got == nil || got.CatalogDigest != "abc" || got.SchemaVersion != 1 {
		t.Fatalf("meta=%+v err=%v", got, err)
	}
}
