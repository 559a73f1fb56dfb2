package utils

import (
	"net/url"
	"sort"
	"strings"
)

// sensitiveHeaderKeywords 敏感头部名称关键字,命中即脱敏
var sensitiveHeaderKeywords = []string{
	"authorization",
	"cookie",
	"token",
	"key",
	"secret",
	"password",
	"credential",
}

// IsSensitiveHeader 检查头部名称是否含敏感关键字
func IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range sensitiveHeaderKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactValue 脱敏单个敏感值
// Bearer token只保留前缀,较长的值保留首尾各4位,短值完全隐藏
func RedactValue(value string) string {
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactHeaderMap 脱敏请求头map并格式化为日志用字符串
// 格式: "Name1: value1, Name2: value2"
func RedactHeaderMap(headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := headers[name]
		if IsSensitiveHeader(name) {
			value = RedactValue(value)
		}
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, ", ")
}

// RedactDSN 脱敏连接串中的密码,用于日志和状态输出
func RedactDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.User == nil {
		return dsn
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return dsn
	}

	// 不经过url.String()重组,避免占位符被转义
	at := strings.Index(dsn, "@")
	if at < 0 {
		return dsn
	}
	return parsed.Scheme + "://" + parsed.User.Username() + ":***" + dsn[at:]
}
