package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Category
	}{
		{"Mods/Foo/Stats.lsx", CategoryMarkup},
		{"Localization/French/french.XML", CategoryMarkup},
		{"Public/Foo/Content/Items.lsj", CategoryStructured},
		{"Scripts/story.txt", CategoryGeneric},
		{"noext", CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func names(fired []Firing) []string {
	out := make([]string, 0, len(fired))
	for _, f := range fired {
		out = append(out, f.Rule)
	}
	return out
}

func TestApply_Markup(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		rules []string
	}{
		{
			name:  "contentuid then version",
			in:    `<content contentuid="h100" version="2">Hello</content>`,
			want:  `<content contentuid="h100" version="1">Hello</content>`,
			rules: []string{RuleQuotedID, RuleUIDVersionAttr},
		},
		{
			name:  "version then contentuid",
			in:    `<content version="2" contentuid="h100">Hello</content>`,
			want:  `<content version="1" contentuid="h100">Hello</content>`,
			rules: []string{RuleQuotedID, RuleUIDVersionAttr},
		},
		{
			name:  "id attribute",
			in:    `<node id="h100" type="x" version="9"/>`,
			want:  `<node id="h100" type="x" version="1"/>`,
			rules: []string{RuleQuotedID, RuleUIDVersionAttr},
		},
		{
			name:  "handle attribute",
			in:    `<attribute id="DisplayName" type="TranslatedString" handle="h100" version="3"/>`,
			want:  `<attribute id="DisplayName" type="TranslatedString" handle="h100" version="1"/>`,
			rules: []string{RuleQuotedID, RuleHandleVersionAttr},
		},
		{
			name:  "version before handle",
			in:    `<attribute version="3" handle="h100"/>`,
			want:  `<attribute version="1" handle="h100"/>`,
			rules: []string{RuleQuotedID, RuleHandleVersionAttr},
		},
		{
			name: "handle and version nodes",
			in: "<attribute id=\"Handle\" type=\"FixedString\" value=\"h100\" />\n" +
				"\t\t<attribute id=\"Version\" type=\"int32\" value=\"5\" />",
			want: "<attribute id=\"Handle\" type=\"FixedString\" value=\"h100\" />\n" +
				"\t\t<attribute id=\"Version\" type=\"int32\" value=\"1\" />",
			rules: []string{RuleQuotedID, RuleHandleVersionNode},
		},
		{
			name:  "version in a different tag is untouched",
			in:    `<content contentuid="h100">x</content><other version="2"/>`,
			want:  `<content contentuid="h100">x</content><other version="2"/>`,
			rules: []string{RuleQuotedID},
		},
		{
			name:  "other id is untouched",
			in:    `<content contentuid="h1000" version="2">x</content>`,
			want:  `<content contentuid="h1000" version="2">x</content>`,
			rules: nil,
		},
		{
			name:  "every occurrence is rewritten",
			in:    `<a handle="h100" version="2"/><b handle="h100" version="3"/>`,
			want:  `<a handle="h100" version="1"/><b handle="h100" version="1"/>`,
			rules: []string{RuleQuotedID, RuleHandleVersionAttr},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fired := Apply(CategoryMarkup, tt.in, "h100", "1")
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.rules, namesOrNil(fired))
		})
	}
}

func TestApply_Structured(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		version string
		want    string
		rules   []string
	}{
		{
			name:    "handle then numeric version",
			in:      `{"type": "TranslatedString", "handle": "h100", "version": 4}`,
			version: "1",
			want:    `{"type": "TranslatedString", "handle": "h100", "version": 1}`,
			rules:   []string{RuleQuotedID, RuleJSONHandleVersion},
		},
		{
			name:    "quoted version keeps quotes",
			in:      `{"handle" : "h100" , "version" : "4"}`,
			version: "1",
			want:    `{"handle" : "h100" , "version" : "1"}`,
			rules:   []string{RuleQuotedID, RuleJSONHandleVersion},
		},
		{
			name:    "non numeric version is quoted",
			in:      `{"handle": "h100", "version": 4}`,
			version: "",
			want:    `{"handle": "h100", "version": ""}`,
			rules:   []string{RuleQuotedID, RuleJSONHandleVersion},
		},
		{
			name:    "version then handle",
			in:      `{"version": 7, "handle": "h100"}`,
			version: "2",
			want:    `{"version": 2, "handle": "h100"}`,
			rules:   []string{RuleQuotedID, RuleJSONVersionHandle},
		},
		{
			name: "handle and version nodes",
			in: "\"Handle\" : {\"type\" : \"FixedString\", \"value\" : \"h100\"},\n" +
				"\t\"Version\" : {\"type\" : \"int32\", \"value\" : 9}",
			version: "1",
			want: "\"Handle\" : {\"type\" : \"FixedString\", \"value\" : \"h100\"},\n" +
				"\t\"Version\" : {\"type\" : \"int32\", \"value\" : 1}",
			rules: []string{RuleQuotedID, RuleJSONHandleNode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fired := Apply(CategoryStructured, tt.in, "h100", tt.version)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.rules, namesOrNil(fired))
		})
	}
}

func TestApply_GenericOnlyQuotedID(t *testing.T) {
	in := `name = "h100" version="2"`
	out, fired := Apply(CategoryGeneric, in, "h100", "1")
	assert.Equal(t, in, out)
	require.Len(t, fired, 1)
	assert.Equal(t, "generic/quoted-id:h100", fired[0].String())
}

func TestApply_Idempotent(t *testing.T) {
	inputs := map[Category]string{
		CategoryMarkup: `<content contentuid="h100" version="2">x</content>` +
			`<attribute handle="h100" version="3"/>` +
			"<attribute id=\"Handle\" value=\"h100\"/>\n<attribute id=\"Version\" value=\"5\"/>",
		CategoryStructured: `{"handle": "h100", "version": 3}, {"version": "4", "handle": "h100"},` +
			"\n\"Handle\": {\"value\": \"h100\"}, \"Version\": {\"value\": 8}",
	}

	for category, in := range inputs {
		t.Run(string(category), func(t *testing.T) {
			once, _ := Apply(category, in, "h100", "1")
			twice, _ := Apply(category, once, "h100", "1")
			assert.NotEqual(t, in, once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestApply_SpecialCharactersInID(t *testing.T) {
	in := `<content contentuid="h.1+2" version="2">x</content><content contentuid="hX1+2" version="2">y</content>`
	out, _ := Apply(CategoryMarkup, in, "h.1+2", "1")
	assert.Equal(t, `<content contentuid="h.1+2" version="1">x</content><content contentuid="hX1+2" version="2">y</content>`, out)
}

func TestApply_EscapesMarkupVersion(t *testing.T) {
	out, _ := Apply(CategoryMarkup, `<content contentuid="h100" version="2"/>`, "h100", `a"b`)
	assert.Equal(t, `<content contentuid="h100" version="a&quot;b"/>`, out)
}

func TestCache(t *testing.T) {
	in := `<content contentuid="h100" version="2"/><node handle="h200" version="3"/>`

	cache := NewCache()
	cached, cachedFired := cache.Apply(CategoryMarkup, in, "h100", "1")
	plain, plainFired := Apply(CategoryMarkup, in, "h100", "1")
	assert.Equal(t, plain, cached)
	assert.Equal(t, plainFired, cachedFired)

	// uid and handle rules have two templates each, the node rule one
	assert.Equal(t, 5, cache.size())

	_, _ = cache.Apply(CategoryMarkup, cached, "h100", "1")
	assert.Equal(t, 5, cache.size())

	_, _ = cache.Apply(CategoryMarkup, cached, "h200", "1")
	assert.Equal(t, 10, cache.size())

	// Caches are independent, so dropping one releases its expressions
	assert.Equal(t, 0, NewCache().size())
}

func TestRules_Order(t *testing.T) {
	assert.Equal(t, []string{RuleQuotedID}, ruleNames(Rules(CategoryGeneric)))
	assert.Equal(t, []string{RuleQuotedID, RuleUIDVersionAttr, RuleHandleVersionAttr, RuleHandleVersionNode}, ruleNames(Rules(CategoryMarkup)))
	assert.Equal(t, []string{RuleQuotedID, RuleJSONHandleVersion, RuleJSONVersionHandle, RuleJSONHandleNode}, ruleNames(Rules(CategoryStructured)))
}

func ruleNames(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Name)
	}
	return out
}

func namesOrNil(fired []Firing) []string {
	if len(fired) == 0 {
		return nil
	}
	return names(fired)
}
