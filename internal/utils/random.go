package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// EmailLocalPart 根据姓名生成邮箱前缀：汉字转换为拼音，其余字符保留字母与数字，空白变为点号
func EmailLocalPart(name string) string {
	var b strings.Builder
	lastDot := true

	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.Is(unicode.Han, r):
			for _, p := range pinyin.LazyConvert(string(r), nil) {
				b.WriteString(p)
			}
			lastDot = false
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			lastDot = false
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_':
			if !lastDot {
				b.WriteByte('.')
				lastDot = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), ".")
}

var digits = "0123456789"

func GenerateRandomUser(c *catalog.Catalog, password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomChineseName()
	local := EmailLocalPart(name)

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		local += string(digits[rand.Intn(len(digits))])
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role, subRole := GenerateRandomRole(c)

	user := &domain.User{
		Name:         name,
		Email:        local + "@" + emailDomainName,
		PasswordHash: string(passwordHash),
		Role:         role,
		SubRole:      subRole,
	}

	return user, nil
}

func GenerateRandomRole(c *catalog.Catalog) (string, string) {
	roles := c.Roles()
	role := roles[rand.Intn(len(roles))]
	if len(role.SubRoles) == 0 {
		return role.Name, ""
	}
	return role.Name, role.SubRoles[rand.Intn(len(role.SubRoles))]
}

var shifts = []string{"A", "B", "C"}

func GenerateRandomClockTime() (string, string) {
	period := "AM"
	if rand.Intn(2) == 1 {
		period = "PM"
	}
	return fmt.Sprintf("%02d:%02d", rand.Intn(12)+1, rand.Intn(4)*15), period
}

// GenerateRandomAllocation 生成最近 days 天内的一条随机分配记录，角色没有可选工位时返回 nil
func GenerateRandomAllocation(c *catalog.Catalog, allocatedBy string, days int) *domain.Allocation {
	role, subRole := GenerateRandomRole(c)
	stations, operators := c.Resolve(role, subRole)
	if len(stations) == 0 || len(operators) == 0 {
		return nil
	}

	name, code, err := domain.ParseOperatorToken(operators[rand.Intn(len(operators))])
	if err != nil {
		return nil
	}

	shiftTime, shiftPeriod := GenerateRandomClockTime()
	allocTime, allocPeriod := GenerateRandomClockTime()

	return &domain.Allocation{
		Date:         time.Now().AddDate(0, 0, -rand.Intn(days+1)).Format("2006-01-02"),
		Shift:        shifts[rand.Intn(len(shifts))],
		ShiftTime:    shiftTime + " " + shiftPeriod,
		AllocTime:    allocTime + " " + allocPeriod,
		AllocatedBy:  allocatedBy,
		Role:         role,
		SubRole:      subRole,
		Station:      stations[rand.Intn(len(stations))],
		OperatorName: name,
		OperatorCode: code,
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}
