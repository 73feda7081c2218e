// Package clean 把题目详情接口返回的 HTML 片段整理为纯文本描述。
package clean

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 描述正文之后依次是样例与约束；这两个纯文本标记就是截断点。
//
// 注意：标记在整段文本里查找，正文里若恰好出现 "Constraints:" 之类的字样也会在那里截断。
var markers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Example 1:`),
	regexp.MustCompile(`(?i)Constraints:`),
}

// Description 去标签、压缩空白，并截掉第一个样例/约束标记之后的内容。
// 空输入返回空串；返回空串时调用方应丢弃该条目。
func Description(html string) string {
	if html == "" {
		return ""
	}

	text := normSpace(Text(html))

	cut := -1
	for _, re := range markers {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if cut == -1 || loc[0] < cut {
			cut = loc[0]
		}
	}
	if cut != -1 {
		return strings.TrimSpace(text[:cut])
	}
	return text
}

// Text 返回 HTML 片段中全部文本节点的拼接（不做任何空白处理）。
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// 解析失败极少见（只可能是 reader 错误）：退化为原文，交给后续空白规整。
		return html
	}
	return doc.Text()
}

// normSpace 把任意空白串（含换行、不间断空格）压成单个空格并去掉首尾空白。
func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
