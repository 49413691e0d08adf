// Package regions holds the data model shared by the collector, the solver
// and the reporter: region variables, types, obligations, where-clause sets
// and the per-scope results of a check.
package regions

import (
	"fmt"

	"github.com/funvibe/regionck/internal/config"
)

// RegionVid identifies a region variable within one function check.
type RegionVid uint32

// Static is always allocated first.
const Static RegionVid = 0

func (v RegionVid) String() string {
	return fmt.Sprintf("'_#%dr", uint32(v))
}

// Context allocates region variables for one function and everything nested
// in it. Universal regions ('static, the function's lifetime parameters and
// anonymous lifetimes in its parameter types) are allocated before Seal;
// everything after is local.
type Context struct {
	names   []string
	sealed  bool
	numUniv int
}

func NewContext() *Context {
	return &Context{names: []string{config.StaticLifetime}}
}

// Universal allocates a named universal region. It panics after Seal.
func (c *Context) Universal(name string) RegionVid {
	if c.sealed {
		panic("regions: universal region allocated after seal")
	}
	c.names = append(c.names, name)
	return RegionVid(len(c.names) - 1)
}

// Seal ends the universal prefix.
func (c *Context) Seal() {
	if !c.sealed {
		c.sealed = true
		c.numUniv = len(c.names)
	}
}

// Fresh allocates a local region variable.
func (c *Context) Fresh() RegionVid {
	c.Seal()
	c.names = append(c.names, "")
	return RegionVid(len(c.names) - 1)
}

// IsUniversal reports whether v is external to every closure of the function.
func (c *Context) IsUniversal(v RegionVid) bool {
	if !c.sealed {
		return int(v) < len(c.names)
	}
	return int(v) < c.numUniv
}

// NumUniversal is the number of external region variables, 'static included.
func (c *Context) NumUniversal() int {
	if !c.sealed {
		return len(c.names)
	}
	return c.numUniv
}

// Len is the number of region variables allocated so far.
func (c *Context) Len() int {
	return len(c.names)
}

// Lookup returns the universal region with the given name.
func (c *Context) Lookup(name string) (RegionVid, bool) {
	for i := 0; i < c.NumUniversal(); i++ {
		if c.names[i] == name {
			return RegionVid(i), true
		}
	}
	return 0, false
}

// Display renders v by name, or as '_#Nr when verbose or unnamed.
func (c *Context) Display(v RegionVid, verbose bool) string {
	if verbose || int(v) >= len(c.names) || c.names[v] == "" || c.names[v] == "'_" {
		return v.String()
	}
	return c.names[v]
}
