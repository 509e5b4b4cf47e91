package domain

import "strings"

// ParseOperatorToken 将 "<name> (<code>)" 形式的选项拆分为姓名和工号。
// 以最后一个左括号为分界，因此姓名本身可以包含括号，例如
// "A B (Shift 2) (77)" 得到姓名 "A B (Shift 2)" 与工号 "77"。
// 姓名两端空白会被去除，工号去掉末尾的右括号。
func ParseOperatorToken(token string) (name string, code string, err error) {
	idx := strings.LastIndex(token, "(")
	if idx < 0 {
		return "", "", ErrMalformedOperatorToken
	}

	name = strings.TrimSpace(token[:idx])
	code = strings.TrimSpace(token[idx+1:])
	code = strings.TrimSpace(strings.TrimSuffix(code, ")"))

	return name, code, nil
}

func FormatOperatorToken(name, code string) string {
	return name + " (" + code + ")"
}
