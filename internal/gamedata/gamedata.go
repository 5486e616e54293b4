// Package gamedata 读取并校验目录参考数据文件（活动、活动选项、物品、经验表）。
package gamedata

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/yuqie6/IdleScape/internal/schema"
)

//go:embed game_data.yaml
var defaultData []byte

//go:embed game_data.schema.json
var schemaJSON string

const schemaURL = "game_data.schema.json"

// Data 目录数据文件的内容
type Data struct {
	Items           []string      `yaml:"items"`
	Activities      []ActivityDef `yaml:"activities"`
	ExperienceTable LevelTable    `yaml:"experience_table"`

	Source string `yaml:"-"` // 文件路径，内置数据为 "embedded"
	Digest string `yaml:"-"` // 原始字节 sha256
}

// ActivityDef 活动定义
type ActivityDef struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Options []OptionDef `yaml:"options"`
}

// OptionDef 活动选项定义
type OptionDef struct {
	Name              string                   `yaml:"name"`
	ActionTime        int64                    `yaml:"action_time"`
	RewardItem        string                   `yaml:"reward_item"`
	RewardExperience  int64                    `yaml:"reward_experience"`
	SkillRequirements schema.SkillRequirements `yaml:"skill_requirements"`
	ItemCosts         schema.ItemAmounts       `yaml:"item_costs"`
	ItemRequirements  schema.ItemAmounts       `yaml:"item_requirements"`
}

// Default 返回内置目录数据
func Default() (*Data, error) {
	return Parse(defaultData, "embedded")
}

// Load 读取目录数据文件；path 为空时使用内置数据
func Load(path string) (*Data, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取目录数据失败: %w", err)
	}
	return Parse(raw, path)
}

// Parse 解析并校验目录数据
func Parse(raw []byte, source string) (*Data, error) {
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%s: 解析目录数据失败: %w", source, err)
	}
	if len(d.ExperienceTable) == 0 {
		d.ExperienceTable = DefaultLevelTable()
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	d.Source = source
	d.Digest = sha256Hex(raw)
	return &d, nil
}

// Validate 检查 JSON Schema 表达不了的交叉引用
func (d *Data) Validate() error {
	items := make(map[string]struct{}, len(d.Items))
	for _, it := range d.Items {
		items[it] = struct{}{}
	}

	activities := make(map[string]struct{}, len(d.Activities))
	for _, a := range d.Activities {
		if _, dup := activities[a.Name]; dup {
			return fmt.Errorf("活动重复: %s", a.Name)
		}
		activities[a.Name] = struct{}{}
	}

	// 选项名在整个目录内唯一
	options := make(map[string]string)
	for _, a := range d.Activities {
		for _, o := range a.Options {
			if owner, dup := options[o.Name]; dup {
				return fmt.Errorf("活动选项重复: %s（%s 与 %s）", o.Name, owner, a.Name)
			}
			options[o.Name] = a.Name

			if o.ActionTime <= 0 {
				return fmt.Errorf("活动选项 %s/%s 的 action_time 必须为正数", a.Name, o.Name)
			}
			if _, ok := items[o.RewardItem]; !ok {
				return fmt.Errorf("活动选项 %s/%s 引用了未知物品: %s", a.Name, o.Name, o.RewardItem)
			}
			for skill := range o.SkillRequirements {
				if _, ok := activities[skill]; !ok {
					return fmt.Errorf("活动选项 %s/%s 的技能要求引用了未知活动: %s", a.Name, o.Name, skill)
				}
			}
			for _, list := range []schema.ItemAmounts{o.ItemCosts, o.ItemRequirements} {
				for _, ia := range list {
					if _, ok := items[ia.Item]; !ok {
						return fmt.Errorf("活动选项 %s/%s 引用了未知物品: %s", a.Name, o.Name, ia.Item)
					}
				}
			}
		}
	}

	return d.ExperienceTable.Validate()
}

// OptionCount 目录中的选项总数
func (d *Data) OptionCount() int {
	n := 0
	for _, a := range d.Activities {
		n += len(a.Options)
	}
	return n
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(schemaURL, schemaJSON)
})

func validateSchema(raw []byte) error {
	compiled, err := compileSchema()
	if err != nil {
		return fmt.Errorf("编译目录 schema 失败: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("解析目录数据失败: %w", err)
	}
	// yaml 解出的数值类型与 JSON 不一致，先转一遍 JSON 再校验
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("目录数据无法转换为 JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("目录数据无法转换为 JSON: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("目录数据校验失败: %w", err)
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
