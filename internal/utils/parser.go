package utils

import (
	"strings"

	"github.com/user/cinema/internal/model"
)

// ParseCSV 解析 Letterboxd 导出的 CSV 文本
//
// 规则：
//  1. 整体去除首尾空白后按 \n 分行，第一行为表头
//  2. 双引号切换"引号内"状态，引号内的逗号按普通字符处理；不支持 "" 转义
//  3. 每个字段去除首尾空白
//  4. 字段数少于表头时，缺失字段为空字符串；多余字段丢弃
//
// 空输入或只有表头时返回空切片
func ParseCSV(text string) []model.FilmRecord {
	records := make([]model.FilmRecord, 0)

	text = strings.TrimSpace(text)
	if text == "" {
		return records
	}

	lines := strings.Split(text, "\n")
	headers := splitLine(lines[0])

	for _, line := range lines[1:] {
		values := splitLine(line)
		record := make(model.FilmRecord, len(headers))
		for i, h := range headers {
			if i < len(values) {
				record[h] = values[i]
			} else {
				record[h] = ""
			}
		}
		records = append(records, record)
	}

	return records
}

// splitLine 按逗号切分一行，引号内的逗号不切分
func splitLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	values = append(values, strings.TrimSpace(current.String()))

	return values
}
