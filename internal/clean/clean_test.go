package clean

import "testing"

func TestDescription(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "空输入", in: "", want: ""},
		{name: "只有标签", in: "<p></p><br/>", want: ""},
		{name: "去标签", in: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{
			name: "截断在较早的样例标记",
			in:   "<p>intro text</p> Example 1: foo Constraints: bar",
			want: "intro text",
		},
		{
			name: "约束标记更早",
			in:   "<p>intro</p><p>Constraints: n &gt; 0</p><p>Example 1: x</p>",
			want: "intro",
		},
		{
			name: "只有约束标记",
			in:   "<div>Given <code>nums</code>.</div>\n<strong>Constraints:</strong><ul><li>1 &lt;= n</li></ul>",
			want: "Given nums.",
		},
		{
			name: "大小写不敏感",
			in:   "<p>Intro</p><p><strong>EXAMPLE 1:</strong></p>",
			want: "Intro",
		},
		{
			name: "压缩空白与不间断空格",
			in:   "<p>Given&nbsp;an   array\n\n of\tintegers</p>\n\n",
			want: "Given an array of integers",
		},
		{
			name: "标记出现在正文开头",
			in:   "<p>Example 1: only examples</p>",
			want: "",
		},
		{
			name: "Example 10 不会误判为 Example 1:",
			in:   "<p>See Example 10 below.</p>",
			want: "See Example 10 below.",
		},
		{
			name: "正文里的 Constraints: 也会截断",
			in:   "<p>Read the Constraints: carefully. Then solve.</p><p>Example 1: x</p>",
			want: "Read the",
		},
		{
			name: "纯文本小于号",
			in:   "<p>Intro.</p> Example 1: x=1 Constraints: 1<=x",
			want: "Intro.",
		},
		{
			name: "非 ASCII 文本",
			in:   "<p>给定一个整数数组 <code>nums</code></p><p>Example 1:</p>",
			want: "给定一个整数数组 nums",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Description(tc.in)
			if got != tc.want {
				t.Fatalf("期望 %q，实际 %q", tc.want, got)
			}
		})
	}
}

func TestText_KeepsEntitiesDecoded(t *testing.T) {
	got := Text("<p>1 &lt;= n &amp;&amp; n &lt; 10</p>")
	if got != "1 <= n && n < 10" {
		t.Fatalf("实体未正确解码：%q", got)
	}
}
