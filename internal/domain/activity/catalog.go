package activity

// Catalog is the activity mapping keyed by name, kept in the order the backend sent it.
// A Catalog is a value: every With/Without call returns a new Catalog and leaves the
// receiver untouched.
type Catalog struct {
	names  []string
	byName map[string]Activity
}

// NewCatalog builds a catalog from activities in order. A repeated name keeps its first
// position and its last value, matching how a JSON object with duplicate keys decodes.
func NewCatalog(activities ...Activity) Catalog {
	c := Catalog{
		names:  make([]string, 0, len(activities)),
		byName: make(map[string]Activity, len(activities)),
	}
	for _, a := range activities {
		if _, exists := c.byName[a.Name]; !exists {
			c.names = append(c.names, a.Name)
		}
		c.byName[a.Name] = a.Clone()
	}
	return c
}

// Len returns the number of activities.
func (c Catalog) Len() int {
	return len(c.names)
}

// Names returns activity names in backend order.
func (c Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Get returns the named activity.
func (c Catalog) Get(name string) (Activity, bool) {
	a, ok := c.byName[name]
	if !ok {
		return Activity{}, false
	}
	return a.Clone(), true
}

// All returns every activity in backend order.
func (c Catalog) All() []Activity {
	out := make([]Activity, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name].Clone())
	}
	return out
}

// WithActivity returns a catalog where a replaces the entry of the same name, or is
// appended when absent.
// POST: receiver is unchanged
func (c Catalog) WithActivity(a Activity) Catalog {
	all := c.All()
	for i := range all {
		if all[i].Name == a.Name {
			all[i] = a
			return NewCatalog(all...)
		}
	}
	return NewCatalog(append(all, a)...)
}

// WithoutActivity returns a catalog lacking the named entry.
// POST: receiver is unchanged
func (c Catalog) WithoutActivity(name string) Catalog {
	all := c.All()
	kept := all[:0]
	for _, a := range all {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	return NewCatalog(kept...)
}
