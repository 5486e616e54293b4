package schema

import "time"

// Character 玩家角色
// 创建后不删除
type Character struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"character_id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"character_name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"` // UTC，由服务层写入
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Character) TableName() string {
	return "characters"
}

// CharacterSkill 角色在某个活动上的经验账本
type CharacterSkill struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"character_skill_id"`
	CharacterID int64     `gorm:"not null;uniqueIndex:uniq_character_skill,priority:1" json:"character_id"`
	ActivityID  int64     `gorm:"not null;uniqueIndex:uniq_character_skill,priority:2" json:"activity_id"`
	Experience  int64     `gorm:"not null;default:0" json:"experience"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Character *Character `gorm:"foreignKey:CharacterID" json:"-"`
	Activity  *Activity  `gorm:"foreignKey:ActivityID" json:"-"`
}

// TableName 指定表名
func (CharacterSkill) TableName() string {
	return "character_skills"
}

// CharacterItem 角色背包条目，首次奖励时创建，之后只累加数量
type CharacterItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"character_item_id"`
	CharacterID int64     `gorm:"not null;uniqueIndex:uniq_character_item,priority:1" json:"character_id"`
	ItemID      int64     `gorm:"not null;uniqueIndex:uniq_character_item,priority:2" json:"item_id"`
	Quantity    int64     `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Character *Character `gorm:"foreignKey:CharacterID" json:"-"`
	Item      *Item      `gorm:"foreignKey:ItemID" json:"-"`
}

// TableName 指定表名
func (CharacterItem) TableName() string {
	return "character_items"
}

// CharacterActivity 一次活动会话，EndedAt 为空表示进行中
// 只追加不删除，构成角色的活动历史
type CharacterActivity struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"character_activity_id"`
	CharacterID      int64      `gorm:"index;not null" json:"character_id"`
	ActivityID       int64      `gorm:"index;not null" json:"activity_id"`
	ActivityOptionID int64      `gorm:"index;not null" json:"activity_option_id"`
	StartedAt        time.Time  `gorm:"not null" json:"started_at"`
	EndedAt          *time.Time `gorm:"index" json:"ended_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Character      *Character      `gorm:"foreignKey:CharacterID" json:"-"`
	Activity       *Activity       `gorm:"foreignKey:ActivityID" json:"-"`
	ActivityOption *ActivityOption `gorm:"foreignKey:ActivityOptionID" json:"-"`
}

// TableName 指定表名
func (CharacterActivity) TableName() string {
	return "character_activities"
}

// IsOpen 是否仍在进行
func (a CharacterActivity) IsOpen() bool {
	return a.EndedAt == nil
}
