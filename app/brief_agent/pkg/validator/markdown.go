package validator

import (
	"bufio"
	"strings"
)

// section 一个二级标题下的内容
type section struct {
	bullets []string // 顶层 "- " 列表项
	titles  []string // "### " 条目标题
}

// parseMarkdown 按行切分二级标题；条目内部的 "- " 行不计入列表
func parseMarkdown(md string) map[string]*section {
	sections := map[string]*section{}
	var cur *section
	inItem := false

	sc := bufio.NewScanner(strings.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "## "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			cur = &section{}
			if _, dup := sections[name]; !dup {
				sections[name] = cur
			}
			inItem = false
		case cur == nil:
		case strings.HasPrefix(line, "### "):
			cur.titles = append(cur.titles, strings.TrimPrefix(line, "### "))
			inItem = true
		case strings.HasPrefix(line, "- ") && !inItem:
			cur.bullets = append(cur.bullets, strings.TrimPrefix(line, "- "))
		}
	}
	return sections
}
