package isis

import (
	"strings"

	"github.com/pkg/errors"

	"ssicube/internal/pvl"
)

// blob objects hold pointers to binary data rather than cube metadata
var blobObjects = map[string]bool{
	"table":         true,
	"label":         true,
	"history":       true,
	"originallabel": true,
}

func skipBlobs(b *pvl.Block) bool {
	return b.Kind == pvl.Object && blobObjects[strings.ToLower(b.Name)]
}

// Lookup finds a keyword in the IsisCube object. A keyword of a block
// shadows the ones nested below it. Otherwise every child block holding
// the key contributes its own match, and several matches return a
// sequence in label order.
func (c *Cube) Lookup(key string) (pvl.Value, error) {
	v, ok := lookup(c.cube, key)
	if !ok {
		return pvl.Value{}, errors.Wrapf(ErrKeyNotFound, "%q", key)
	}
	return v, nil
}

func lookup(b *pvl.Block, key string) (pvl.Value, bool) {
	if v, ok := b.Get(key); ok {
		return v, true
	}
	var found []pvl.Value
	for _, it := range b.Items {
		if it.Block == nil || skipBlobs(it.Block) {
			continue
		}
		if v, ok := lookup(it.Block, key); ok {
			found = append(found, v)
		}
	}
	switch len(found) {
	case 0:
		return pvl.Value{}, false
	case 1:
		return found[0], true
	}
	return pvl.NewSequence(found...), true
}

// Keys lists the group, object and keyword names of the IsisCube object, depth first
func (c *Cube) Keys() []string {
	var keys []string
	var visit func(b *pvl.Block)
	visit = func(b *pvl.Block) {
		for _, it := range b.Items {
			if it.Block != nil && skipBlobs(it.Block) {
				continue
			}
			keys = append(keys, it.Key)
			if it.Block != nil {
				visit(it.Block)
			}
		}
	}
	visit(c.cube)
	return keys
}

// Group returns a group of the IsisCube object, such as Instrument or BandBin
func (c *Cube) Group(name string) (*pvl.Block, bool) {
	return c.cube.Group(name)
}

// groupValue returns a keyword of an IsisCube group
func (c *Cube) groupValue(group, key string) (pvl.Value, error) {
	g, ok := c.cube.Group(group)
	if !ok {
		return pvl.Value{}, errors.Wrapf(ErrKeyNotFound, "group %s", group)
	}
	v, ok := g.Get(key)
	if !ok {
		return pvl.Value{}, errors.Wrapf(ErrKeyNotFound, "%s/%s", group, key)
	}
	return v, nil
}
