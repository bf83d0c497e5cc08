package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   Transform
		in   string
		want string
	}{
		{name: "trim", fn: TrimSpace, in: "  {}\n", want: "{}"},
		{name: "leading json fence", fn: StripLeadingFence, in: "```json\n{}", want: "{}"},
		{name: "leading bare fence", fn: StripLeadingFence, in: "```{}", want: "{}"},
		{name: "leading fence only at start", fn: StripLeadingFence, in: "{} ```json", want: "{} ```json"},
		{name: "trailing fence", fn: StripTrailingFence, in: "{}\n```", want: "{}"},
		{name: "trailing fence only at end", fn: StripTrailingFence, in: "``` {}", want: "``` {}"},
		{name: "tighten braces", fn: TightenBraces, in: "  \t{\"a\":1}  ", want: "{\"a\":1}"},
		{name: "unescape quotes", fn: UnescapeQuotes, in: `{\"a\":\"b\"}`, want: `{"a":"b"}`},
		{name: "flatten newlines", fn: FlattenNewlines, in: "{\r\n\"a\":\n1}", want: "{  \"a\": 1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestDefaultPipelineOrder(t *testing.T) {
	t.Parallel()

	in := "\n  ```json\n{\n  \\\"detailedFeedback\\\": \"ok\"\n}\n```  \n"
	assert.Equal(t, `{   "detailedFeedback": "ok" }`, DefaultPipeline().Apply(in))
}

func TestPipelineApplyEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", Pipeline(nil).Apply("x"))
}
