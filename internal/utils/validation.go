package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
)

// HasEmailDomain 检查邮箱是否属于公司域名（不区分大小写）
func HasEmailDomain(email string, domainName string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+strings.ToLower(domainName))
}

// NormalizeRoleSelection 校验注册时选择的角色与子角色。
// 子角色仅在角色带有子角色时必填，其余情况下忽略客户端传来的子角色。
func NormalizeRoleSelection(c *catalog.Catalog, role string, subRole string) (string, error) {
	if !c.IsRole(role) {
		return "", errors.New("unknown role")
	}

	if !c.HasSubRoles(role) {
		return "", nil
	}

	if subRole == "" {
		return "", errors.New("sub-role is required for " + role)
	}
	if !c.IsSubRole(role, subRole) {
		return "", errors.New("unknown sub-role for " + role)
	}

	return subRole, nil
}

var clock12Re = regexp.MustCompile(`^(0?[1-9]|1[0-2]):[0-5][0-9]$`)

// 12 小时制的时间，例如 "8:05" 或 "11:30"
func validateClock12(fl validator.FieldLevel) bool {
	return clock12Re.MatchString(fl.Field().String())
}

func RegisterValidations(validate *validator.Validate) error {
	return validate.RegisterValidation("clock12", validateClock12)
}
