// Package catalog 保存各角色（及子角色）可分配的工位和操作员。
// 目录在进程启动时加载一次，之后只读，可以被任意多个请求并发读取。
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type entry struct {
	Name      string   `yaml:"name"`
	Stations  []string `yaml:"stations"`
	Operators []string `yaml:"operators"`
}

type roleEntry struct {
	Name      string   `yaml:"name"`
	Stations  []string `yaml:"stations"`
	Operators []string `yaml:"operators"`
	SubRoles  []entry  `yaml:"subRoles"`
}

type document struct {
	Roles []roleEntry `yaml:"roles"`
}

// RoleInfo 用于展示注册页面上的角色及子角色
type RoleInfo struct {
	Name     string   `json:"name"`
	SubRoles []string `json:"subRoles"`
}

type Catalog struct {
	roles  []roleEntry
	byName map[string]int
}

func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		// 内置目录在测试中校验过，这里出错说明代码被改坏了
		panic(fmt.Sprintf("内置工位目录无效: %v", err))
	}
	return c
}

// Load 从 YAML 文件加载目录，path 为空时返回内置目录
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取工位目录失败: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析工位目录失败: %w", err)
	}

	c := &Catalog{
		roles:  doc.Roles,
		byName: make(map[string]int, len(doc.Roles)),
	}

	if len(c.roles) == 0 {
		return nil, errors.New("工位目录中没有任何角色")
	}

	for i, role := range c.roles {
		if strings.TrimSpace(role.Name) == "" {
			return nil, fmt.Errorf("第 %d 个角色没有名称", i+1)
		}
		if _, exists := c.byName[role.Name]; exists {
			return nil, fmt.Errorf("角色 %q 重复", role.Name)
		}
		c.byName[role.Name] = i

		if err := normalizeOperators(role.Name, role.Operators); err != nil {
			return nil, err
		}

		seen := make(map[string]struct{}, len(role.SubRoles))
		for _, sub := range role.SubRoles {
			if strings.TrimSpace(sub.Name) == "" {
				return nil, fmt.Errorf("角色 %q 存在没有名称的子角色", role.Name)
			}
			if _, exists := seen[sub.Name]; exists {
				return nil, fmt.Errorf("角色 %q 的子角色 %q 重复", role.Name, sub.Name)
			}
			seen[sub.Name] = struct{}{}

			if err := normalizeOperators(role.Name+"/"+sub.Name, sub.Operators); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// normalizeOperators 校验操作员格式，并统一改写为 "Name (Code)"，使其与提交时解析出的姓名和工号一致
func normalizeOperators(owner string, operators []string) error {
	for i, op := range operators {
		name, code, err := domain.ParseOperatorToken(op)
		if err != nil {
			return fmt.Errorf("%s 的操作员 %q 格式错误: %w", owner, op, err)
		}
		operators[i] = domain.FormatOperatorToken(name, code)
	}
	return nil
}

// Resolve 返回某个角色可选的工位与操作员。
// 若角色带有子角色且 subRole 是已知的子角色，使用子角色的列表；
// 否则退回角色本身的列表；未知角色返回空列表而不是错误。
func (c *Catalog) Resolve(role, subRole string) (stations []string, operators []string) {
	i, ok := c.byName[role]
	if !ok {
		return []string{}, []string{}
	}

	r := c.roles[i]
	for _, sub := range r.SubRoles {
		if sub.Name == subRole {
			return clone(sub.Stations), clone(sub.Operators)
		}
	}

	return clone(r.Stations), clone(r.Operators)
}

func (c *Catalog) IsRole(role string) bool {
	_, ok := c.byName[role]
	return ok
}

func (c *Catalog) HasSubRoles(role string) bool {
	i, ok := c.byName[role]
	return ok && len(c.roles[i].SubRoles) > 0
}

func (c *Catalog) IsSubRole(role, subRole string) bool {
	return slices.Contains(c.SubRoles(role), subRole)
}

func (c *Catalog) SubRoles(role string) []string {
	i, ok := c.byName[role]
	if !ok {
		return []string{}
	}

	names := make([]string, 0, len(c.roles[i].SubRoles))
	for _, sub := range c.roles[i].SubRoles {
		names = append(names, sub.Name)
	}
	return names
}

func (c *Catalog) Roles() []RoleInfo {
	infos := make([]RoleInfo, 0, len(c.roles))
	for _, role := range c.roles {
		infos = append(infos, RoleInfo{
			Name:     role.Name,
			SubRoles: c.SubRoles(role.Name),
		})
	}
	return infos
}

func clone(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
