package schema

import "time"

// Activity 活动类型（采矿、伐木……）
// 参考数据，每次重新导入目录时整体重建
type Activity struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"activity_id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"activity_name"`
	Type      string    `gorm:"size:32;not null" json:"activity_type"` // skill
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Activity) TableName() string {
	return "activities"
}

// ActivityOption 活动下的具体动作，如 mining 下的 iron
type ActivityOption struct {
	ID               int64             `gorm:"primaryKey;autoIncrement" json:"activity_option_id"`
	Name             string            `gorm:"size:100;uniqueIndex;not null" json:"activity_option_name"`
	ActivityID       int64             `gorm:"index;not null" json:"activity_id"`
	ActionTime       int64             `gorm:"not null" json:"action_time"` // 完成一次动作所需秒数
	RewardItemID     int64             `gorm:"index;not null" json:"reward_item_id"`
	RewardExperience int64             `gorm:"not null;default:0" json:"reward_experience"`
	SkillReqs        SkillRequirements `gorm:"type:text" json:"skill_requirements,omitempty"` // 活动名 -> 最低等级
	ItemCosts        ItemAmounts       `gorm:"type:text" json:"item_costs,omitempty"`         // 每次动作消耗
	ItemReqs         ItemAmounts       `gorm:"type:text" json:"item_requirements,omitempty"`  // 需要持有但不消耗
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Activity   *Activity `gorm:"foreignKey:ActivityID" json:"-"`
	RewardItem *Item     `gorm:"foreignKey:RewardItemID" json:"-"`
}

// TableName 指定表名
func (ActivityOption) TableName() string {
	return "activity_options"
}

// ActionDuration 单次动作时长
func (o ActivityOption) ActionDuration() time.Duration {
	return time.Duration(o.ActionTime) * time.Second
}

// Item 物品
type Item struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"item_id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"item_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Item) TableName() string {
	return "items"
}
