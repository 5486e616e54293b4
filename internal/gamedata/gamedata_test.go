package gamedata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultDataLoads(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}
	if d.Source != "embedded" || len(d.Digest) != 64 {
		t.Fatalf("source=%q digest=%q", d.Source, d.Digest)
	}
	if len(d.Activities) < 2 || d.Activities[0].Name != "mining" || d.Activities[1].Name != "woodcutting" {
		t.Fatalf("activities=%+v, want mining then woodcutting", d.Activities)
	}
	if len(d.ExperienceTable) != MaxLevel {
		t.Fatalf("experience table rows=%d, want %d", len(d.ExperienceTable), MaxLevel)
	}
}

func TestParseRejectsInvalidData(t *testing.T) {
	cases := map[string]string{
		"schema: zero action time": `
items: [ore]
activities:
  - name: mining
    type: skill
    options:
      - {name: iron, action_time: 0, reward_item: ore, reward_experience: 1}
`,
		"schema: unknown field": `
items: [ore]
bogus: true
activities:
  - {name: mining, type: skill, options: []}
`,
		"unknown reward item": `
items: [ore]
activities:
  - name: mining
    type: skill
    options:
      - {name: iron, action_time: 5, reward_item: gold, reward_experience: 1}
`,
		"duplicate option": `
items: [ore]
activities:
  - name: mining
    type: skill
    options:
      - {name: iron, action_time: 5, reward_item: ore, reward_experience: 1}
  - name: smelting
    type: skill
    options:
      - {name: iron, action_time: 5, reward_item: ore, reward_experience: 1}
`,
		"unknown skill requirement": `
items: [ore]
activities:
  - name: mining
    type: skill
    options:
      - name: iron
        action_time: 5
        reward_item: ore
        reward_experience: 1
        skill_requirements: {fishing: 10}
`,
		"experience table not ascending": `
items: [ore]
activities:
  - {name: mining, type: skill, options: []}
experience_table:
  - {level: 1, min_xp: 0}
  - {level: 2, min_xp: 0}
`,
	}

	for name, raw := range cases {
		if _, err := Parse([]byte(raw), name); err == nil {
			t.Errorf("%s: Parse should fail", name)
		}
	}
}

func TestParseKeepsRequirementsAndCustomTable(t *testing.T) {
	raw := `
items: [ore, pickaxe, coal]
activities:
  - name: mining
    type: skill
    options:
      - name: iron
        action_time: 5
        reward_item: ore
        reward_experience: 10
        skill_requirements: {mining: 2}
        item_costs: [{item: coal, quantity: 1}]
        item_requirements: [{item: pickaxe, quantity: 1}]
experience_table:
  - {level: 1, min_xp: 0}
  - {level: 2, min_xp: 100}
`
	d, err := Parse([]byte(raw), "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	o := d.Activities[0].Options[0]
	if o.SkillRequirements["mining"] != 2 {
		t.Fatalf("skill requirements=%v", o.SkillRequirements)
	}
	if len(o.ItemCosts) != 1 || o.ItemCosts[0].Item != "coal" {
		t.Fatalf("item costs=%v", o.ItemCosts)
	}
	if len(o.ItemRequirements) != 1 || o.ItemRequirements[0].Item != "pickaxe" {
		t.Fatalf("item requirements=%v", o.ItemRequirements)
	}
	if got := d.ExperienceTable.Level(150); got != 2 {
		t.Fatalf("level(150)=%d, want 2", got)
	}
	if d.OptionCount() != 1 {
		t.Fatalf("option count=%d, want 1", d.OptionCount())
	}
}

func TestLoadFromFileAndDigestChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game_data.yaml")
	if err := os.WriteFile(path, defaultData, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	def, _ := Default()
	if a.Digest != def.Digest {
		t.Fatalf("same bytes should give same digest")
	}

	changed := strings.Replace(string(defaultData), "reward_experience: 17", "reward_experience: 18", 1)
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if a.Digest == b.Digest {
		t.Fatalf("digest should change with content")
	}
}

func TestWatchReportsRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game_data.yaml")
	if err := os.WriteFile(path, defaultData, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 50*time.Millisecond, func(_ *Data, err error) {
			results <- err
		})
	}()

	// 等待 watcher 注册完成后再写
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("items: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-results:
		if err == nil {
			t.Fatalf("invalid rewrite should report an error")
		}
	case <-ctx.Done():
		t.Fatalf("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}
