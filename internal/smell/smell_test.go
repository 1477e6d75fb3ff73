package smell

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"God Class", GodClass},
		{"god class", GodClass},
		{"GOD_CLASS", GodClass},
		{"  Long-Method ", LongMethod},
		{"LongParameterList", LongParameterList},
		{"Empty Catch Clause", EmptyCatch},
		{"Empty catch block", EmptyCatch},
		{"Insufficient Modularization", GodClass},
		{"Cyclic Hierarchy", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.in))
		})
	}
}

func TestKindTableIsComplete(t *testing.T) {
	for k := Unknown; k <= EmptyCatch; k++ {
		info, ok := kinds[k]
		require.True(t, ok, "kind %d has no table entry", k)
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Hint)
		assert.Positive(t, info.Weight)
		assert.Equal(t, k, ParseKind(info.Name), "name %q must round-trip", info.Name)
	}
	assert.Equal(t, "Unknown", Kind(99).Info().Name)
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestKindJSON(t *testing.T) {
	var is Issue
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"Feature Envy","cause":"uses Order","method":"total"}`), &is))
	assert.Equal(t, Issue{Kind: FeatureEnvy, Cause: "uses Order", Method: "total"}, is)

	data, err := json.Marshal(Issue{Kind: MagicNumber})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Magic Number"}`, string(data))
}

func TestRankIsStable(t *testing.T) {
	in := []Issue{
		{Kind: MagicNumber, Cause: "a"},
		{Kind: GodClass, Cause: "b"},
		{Kind: BlobClass, Cause: "c"},
		{Kind: Unknown, Cause: "d"},
	}

	out := Rank(in)

	assert.Equal(t, []string{"b", "c", "a", "d"}, []string{out[0].Cause, out[1].Cause, out[2].Cause, out[3].Cause})
	assert.Equal(t, "a", in[0].Cause, "input must not be reordered")
}

func TestDescribe(t *testing.T) {
	got := Describe([]Issue{
		{Kind: LongMethod, Method: "render", Cause: "120 lines"},
		{Kind: GodClass, Cause: "42 methods"},
		{Kind: LongMethod, Method: "save"},
	})

	want := "- God Class: 42 methods\n" +
		"- Long Method in render: 120 lines\n" +
		"- Long Method in save\n" +
		"Suggested strategy:\n" +
		"  God Class: Extract each distinct responsibility into a focused class.\n" +
		"  Long Method: Extract logical sections into well-named methods."
	assert.Equal(t, want, got)
	assert.Equal(t, "", Describe(nil))
}

func TestForMember(t *testing.T) {
	issues := []Issue{
		{Kind: GodClass},
		{Kind: LongMethod, Method: "render"},
		{Kind: LongMethod, Method: "save"},
		{Kind: MagicNumber},
	}

	assert.Equal(t, []Issue{issues[0], issues[1], issues[3]}, ForMember(issues, "render"))
	assert.Equal(t, []Issue{issues[0], issues[2], issues[3]}, ForMember(issues, "load,save"))
	assert.Equal(t, issues, ForMember(issues, ""))
}
