// Package patterns holds the ordered substitution rules used to rewrite
// references to a contentuid inside game data files.
//
// Files fall into three categories:
//   - category-a: markup resources (.lsx, .xml)
//   - category-b: the JSON-like sibling format (.lsj)
//   - generic: everything else
//
// Every category starts with the generic quoted-identifier rule; the markup
// and JSON categories then run increasingly specific rules that also restore
// the version stored next to the identifier. Rules run in a fixed order on the
// output of the previous rule and each one only rewrites the version span, so
// applying the table twice is the same as applying it once.
//
// # Usage
//
//	out, fired := patterns.Apply(patterns.Classify(path), content, "h100", "1")
package patterns
