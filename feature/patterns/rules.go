package patterns

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Rule is one pure substitution step.
// Apply returns the rewritten content and whether the rule matched at all.
type Rule struct {
	Name  string
	Apply func(cache *Cache, content, id, version string) (string, bool)
}

// Rule names, used in firing diagnostics.
const (
	RuleQuotedID          = "generic/quoted-id"
	RuleUIDVersionAttr    = "markup/uid-version-attr"
	RuleHandleVersionAttr = "markup/handle-version-attr"
	RuleHandleVersionNode = "markup/handle-version-node"
	RuleJSONHandleVersion = "json/handle-version"
	RuleJSONVersionHandle = "json/version-handle"
	RuleJSONHandleNode    = "json/handle-version-node"
)

// Templates use %ID% as the placeholder for the quoted identifier.
// Group 1 always spans the version value.
const (
	uidThenVersion    = `(?:\bcontentuid|\bid)="%ID%"[^<>]*?\bversion="([^"]*)"`
	versionThenUID    = `\bversion="([^"]*)"[^<>]*?(?:\bcontentuid|\bid)="%ID%"`
	handleThenVersion = `\bhandle="%ID%"[^<>]*?\bversion="([^"]*)"`
	versionThenHandle = `\bversion="([^"]*)"[^<>]*?\bhandle="%ID%"`
	handleNode        = `<attribute\s+id="Handle"[^<>]*?\bvalue="%ID%"[^<>]*?/>\s*<attribute\s+id="Version"[^<>]*?\bvalue="([^"]*)"`

	jsonValue         = `("[^"]*"|[^\s,}\]"]+)`
	jsonHandleVersion = `"handle"\s*:\s*"%ID%"\s*,\s*"version"\s*:\s*` + jsonValue
	jsonVersionHandle = `"version"\s*:\s*` + jsonValue + `\s*,\s*"handle"\s*:\s*"%ID%"`
	jsonHandleNode    = `"Handle"\s*:\s*\{[^{}]*?"value"\s*:\s*"%ID%"[^{}]*\}\s*,\s*"Version"\s*:\s*\{[^{}]*?"value"\s*:\s*` + jsonValue
)

var (
	genericRules = []Rule{
		{Name: RuleQuotedID, Apply: quotedID},
	}

	markupRules = []Rule{
		{Name: RuleQuotedID, Apply: quotedID},
		{Name: RuleUIDVersionAttr, Apply: markupRule(RuleUIDVersionAttr, uidThenVersion, versionThenUID)},
		{Name: RuleHandleVersionAttr, Apply: markupRule(RuleHandleVersionAttr, handleThenVersion, versionThenHandle)},
		{Name: RuleHandleVersionNode, Apply: markupRule(RuleHandleVersionNode, handleNode)},
	}

	structuredRules = []Rule{
		{Name: RuleQuotedID, Apply: quotedID},
		{Name: RuleJSONHandleVersion, Apply: jsonRule(RuleJSONHandleVersion, jsonHandleVersion)},
		{Name: RuleJSONVersionHandle, Apply: jsonRule(RuleJSONVersionHandle, jsonVersionHandle)},
		{Name: RuleJSONHandleNode, Apply: jsonRule(RuleJSONHandleNode, jsonHandleNode)},
	}
)

// Rules returns the ordered rule table for a category.
func Rules(c Category) []Rule {
	switch c {
	case CategoryMarkup:
		return markupRules
	case CategoryStructured:
		return structuredRules
	default:
		return genericRules
	}
}

// quotedID maps "<id>" to itself. It never changes content; it only reports presence.
func quotedID(_ *Cache, content, id, _ string) (string, bool) {
	return content, strings.Contains(content, `"`+id+`"`)
}

func markupRule(name string, templates ...string) func(cache *Cache, content, id, version string) (string, bool) {
	return func(cache *Cache, content, id, version string) (string, bool) {
		escaped := escapeAttr(version)
		fired := false
		for i, tpl := range templates {
			re := cache.compile(name, i, tpl, id)
			var hit bool
			content, hit = replaceGroup(re, content, func(string) string { return escaped })
			fired = fired || hit
		}
		return content, fired
	}
}

func jsonRule(name, template string) func(cache *Cache, content, id, version string) (string, bool) {
	return func(cache *Cache, content, id, version string) (string, bool) {
		re := cache.compile(name, 0, template, id)
		return replaceGroup(re, content, func(old string) string {
			return jsonVersion(old, version)
		})
	}
}

// replaceGroup rewrites the span of capture group 1 in every match of re.
func replaceGroup(re *regexp.Regexp, content string, value func(old string) string) (string, bool) {
	matches := re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, false
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString(value(content[start:end]))
		last = end
	}
	b.WriteString(content[last:])
	return b.String(), true
}

// jsonVersion keeps the quoting style of the existing value.
// A bare value stays bare only if the new version is numeric.
func jsonVersion(old, version string) string {
	if strings.HasPrefix(old, `"`) || !numeric.MatchString(version) {
		return `"` + strings.ReplaceAll(version, `"`, `\"`) + `"`
	}
	return version
}

var numeric = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Cache holds the expressions compiled for one run. Ids repeat across every
// file of a run, so each (rule, template, id) is compiled once. A nil Cache
// compiles on every call.
type Cache struct {
	compiled sync.Map
}

// NewCache returns an empty cache. Drop it when the run ends.
func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) compile(name string, index int, template, id string) *regexp.Regexp {
	if c == nil {
		return build(template, id)
	}
	key := name + "\x00" + strconv.Itoa(index) + "\x00" + id
	if re, ok := c.compiled.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	actual, _ := c.compiled.LoadOrStore(key, build(template, id))
	return actual.(*regexp.Regexp)
}

// size counts the cached expressions.
func (c *Cache) size() int {
	n := 0
	c.compiled.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func build(template, id string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(template, "%ID%", regexp.QuoteMeta(id)))
}
