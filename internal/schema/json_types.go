package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SkillRequirements 技能等级要求：活动名 -> 最低等级
type SkillRequirements map[string]int

// Value 实现 driver.Valuer 接口
func (r SkillRequirements) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (r *SkillRequirements) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil || len(raw) == 0 {
		*r = SkillRequirements{}
		return err
	}
	out := SkillRequirements{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("解析技能要求失败: %w", err)
	}
	*r = out
	return nil
}

// ItemAmount 物品与数量
type ItemAmount struct {
	Item     string `json:"item" yaml:"item"`
	Quantity int64  `json:"quantity" yaml:"quantity"`
}

// ItemAmounts 用于存储物品消耗/持有要求列表
type ItemAmounts []ItemAmount

// Value 实现 driver.Valuer 接口
func (a ItemAmounts) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]ItemAmount(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (a *ItemAmounts) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil || len(raw) == 0 {
		*a = ItemAmounts{}
		return err
	}
	out := ItemAmounts{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("解析物品列表失败: %w", err)
	}
	*a = out
	return nil
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("不支持的列类型 %T", value)
	}
}
