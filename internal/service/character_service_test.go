package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateCharacterValidatesName(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t"} {
		_, err := f.characters.Create(ctx, name)
		var v *ValidationError
		if !errors.As(err, &v) {
			t.Fatalf("name %q: err=%v, want ValidationError", name, err)
		}
	}

	c, err := f.characters.Create(ctx, "  Tobyone ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Tobyone" || !c.CreatedAt.Equal(t0) || c.CreatedAt.Location() != time.UTC {
		t.Fatalf("created=%+v", c)
	}

	_, err = f.characters.Create(ctx, "Tobyone")
	var dup *DuplicateNameError
	if !errors.As(err, &dup) || dup.Name != "Tobyone" {
		t.Fatalf("err=%v, want DuplicateNameError", err)
	}
	if !IsUserFacing(err) {
		t.Fatalf("duplicate name should be user facing")
	}
}

func TestGetCharacterRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	created := f.create(t, "Alice")

	got, err := f.characters.Get(ctx, "Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.Name != "Alice" || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("got=%+v want=%+v", got, created)
	}

	_, err = f.characters.Get(ctx, "Bob")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "character" {
		t.Fatalf("err=%v, want NotFoundError", err)
	}
}

func TestListCharactersMarksBusy(t *testing.T) {
	f := newEngineFixture(t)
	f.create(t, "Alice")
	f.create(t, "Bob")
	f.start(t, "Bob", "mining", "copper")

	rows, err := f.characters.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Busy || !rows[1].Busy {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestCharacterSheet(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.create(t, "Tobyone")

	f.start(t, "Tobyone", "woodcutting", "tree")
	f.clock.Advance(30 * time.Second)
	f.start(t, "Tobyone", "mining", "iron")
	f.clock.Advance(7 * time.Second)

	sheet, err := f.characters.Sheet(ctx, "Tobyone", f.clock.Now())
	if err != nil {
		t.Fatalf("sheet: %v", err)
	}
	if sheet.Current == nil || sheet.Current.Option != "iron" || sheet.Current.RewardItem != "iron ore" {
		t.Fatalf("current=%+v", sheet.Current)
	}
	if sheet.Current.PendingReps != 1 || sheet.Current.PendingXP != 35 || sheet.Current.NextRepIn != 3*time.Second {
		t.Fatalf("pending=%+v", sheet.Current)
	}
	if len(sheet.Skills) != 1 || sheet.Skills[0].Activity != "woodcutting" || sheet.Skills[0].Level != 3 {
		t.Fatalf("skills=%+v", sheet.Skills)
	}
	if sheet.Skills[0].NextLevelXP != 276 || sheet.TotalXP != 250 {
		t.Fatalf("next=%d total=%d", sheet.Skills[0].NextLevelXP, sheet.TotalXP)
	}
	if len(sheet.Inventory) != 1 || sheet.Inventory[0].Item != "logs" || sheet.Inventory[0].Quantity != 10 {
		t.Fatalf("inventory=%+v", sheet.Inventory)
	}

	// 面板是只读的
	if xp := f.skillXP(t, f.mustCharacterID(t, "Tobyone"), "mining"); xp != 0 {
		t.Fatalf("sheet credited pending xp: %d", xp)
	}
}

func (f *engineFixture) mustCharacterID(t *testing.T, name string) int64 {
	t.Helper()
	c, err := f.characters.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return c.ID
}
