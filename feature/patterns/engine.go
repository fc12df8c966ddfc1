package patterns

// Firing records that a rule matched for an id.
type Firing struct {
	Rule string `json:"rule"`
	ID   string `json:"id"`
}

// String renders the firing as "rule:id".
func (f Firing) String() string {
	return f.Rule + ":" + f.ID
}

// Apply runs the rule table of category over content for one (id, version) pair.
// Rules run in order, each on the previous rule's output. Nothing is cached.
func Apply(category Category, content, id, version string) (string, []Firing) {
	return (*Cache)(nil).Apply(category, content, id, version)
}

// Apply is the package Apply, reusing expressions compiled earlier in the run.
func (c *Cache) Apply(category Category, content, id, version string) (string, []Firing) {
	var fired []Firing
	for _, rule := range Rules(category) {
		var hit bool
		content, hit = rule.Apply(c, content, id, version)
		if hit {
			fired = append(fired, Firing{Rule: rule.Name, ID: id})
		}
	}
	return content, fired
}
