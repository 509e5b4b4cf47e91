// Package seed 从 CSV 导入用户，表头为 name,email,role,sub_role（email 与 sub_role 可省略）
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CheckEmailIfExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// Credential 是新导入用户的初始密码，由调用方负责交给用户
type Credential struct {
	Email    string
	Password string
}

type Importer struct {
	store       UserStore
	catalog     *catalog.Catalog
	emailDomain string
	password    func() string
}

func NewImporter(store UserStore, c *catalog.Catalog, emailDomain string, password func() string) *Importer {
	return &Importer{
		store:       store,
		catalog:     c,
		emailDomain: emailDomain,
		password:    password,
	}
}

var requiredColumns = []string{"name", "role"}

// ImportUsers 逐行导入用户，非法或已存在的行会被跳过并记录日志
func (im *Importer) ImportUsers(ctx context.Context, r io.Reader) ([]Credential, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("缺少 %s 列", col)
		}
	}

	get := func(row []string, col string) string {
		i, ok := columns[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	credentials := []Credential{}
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return credentials, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		name := get(row, "name")
		if name == "" {
			slog.Error("没有找到姓名", "line", line)
			continue
		}

		email := strings.ToLower(get(row, "email"))
		if email == "" {
			email = utils.EmailLocalPart(name) + "@" + im.emailDomain
		}
		if !utils.HasEmailDomain(email, im.emailDomain) {
			slog.Error("邮箱不属于公司域名", "line", line, "email", email)
			continue
		}

		role := get(row, "role")
		subRole, err := utils.NormalizeRoleSelection(im.catalog, role, get(row, "sub_role"))
		if err != nil {
			slog.Error("角色不合法", "line", line, "role", role, "error", err)
			continue
		}

		exists, err := im.store.CheckEmailIfExists(ctx, email)
		if err != nil {
			return credentials, err
		}
		if exists {
			slog.Info("用户已存在，跳过", "line", line, "email", email)
			continue
		}

		password := im.password()
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return credentials, err
		}

		user := &domain.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			SubRole:      subRole,
		}
		if err := im.store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				slog.Info("用户已存在，跳过", "line", line, "email", email)
				continue
			}
			return credentials, err
		}

		credentials = append(credentials, Credential{Email: email, Password: password})
	}

	return credentials, nil
}
