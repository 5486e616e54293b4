package dto

// 注意：本包承载面向前端（CLI）的展示结构，不依赖 GORM；组装逻辑在 internal/service。

import "time"

type CharacterSheetDTO struct {
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Current   *CurrentActivity  `json:"current,omitempty"`
	Skills    []SkillDTO        `json:"skills"`
	Inventory []InventoryRowDTO `json:"inventory"`
	TotalXP   int64             `json:"total_xp"`
}

type CurrentActivity struct {
	Activity      string        `json:"activity"`
	Option        string        `json:"option"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
	PendingReps   int64         `json:"pending_reps"`
	PendingXP     int64         `json:"pending_xp"`
	RewardItem    string        `json:"reward_item"`
	NextRepIn     time.Duration `json:"next_rep_in"`
	ActionSeconds int64         `json:"action_seconds"`
}

type SkillDTO struct {
	Activity   string `json:"activity"`
	Experience int64  `json:"experience"`
	Level      int    `json:"level"`
	// NextLevelXP 为 0 表示已满级
	NextLevelXP int64 `json:"next_level_xp,omitempty"`
}

type InventoryRowDTO struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

type CharacterRowDTO struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Busy      bool      `json:"busy"`
}

type SessionDTO struct {
	Activity  string     `json:"activity"`
	Option    string     `json:"option"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type ActivityCatalogDTO struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Options []OptionDTO `json:"options"`
}

type OptionDTO struct {
	Name             string   `json:"name"`
	ActionSeconds    int64    `json:"action_seconds"`
	RewardItem       string   `json:"reward_item"`
	RewardExperience int64    `json:"reward_experience"`
	Requirements     []string `json:"requirements,omitempty"`
	Costs            []string `json:"costs,omitempty"`
}
