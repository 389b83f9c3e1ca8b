package isis

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"ssicube/pkg/geometry"
)

// SubSpacecraft returns the sub-spacecraft point as (west longitude, latitude) in degrees
func (c *Cube) SubSpacecraft() (float64, float64, error) {
	return c.subPoint("InstrumentPosition")
}

// SubSolar returns the sub-solar point as (west longitude, latitude) in degrees
func (c *Cube) SubSolar() (float64, float64, error) {
	return c.subPoint("SunPosition")
}

func (c *Cube) subPoint(table string) (float64, float64, error) {
	q, err := c.bodyRotation()
	if err != nil {
		return 0, 0, err
	}
	v, err := c.j2000Position(table)
	if err != nil {
		return 0, 0, err
	}
	lon, lat := geometry.LonLat(geometry.QRot(q, v))
	return lon, lat, nil
}

// bodyRotation returns the normalised J2000 to body-fixed quaternion of the
// first BodyRotation record
func (c *Cube) bodyRotation() (quat.Number, error) {
	t, err := c.Table("BodyRotation")
	if err != nil {
		return quat.Number{}, err
	}
	q := make([]float64, 4)
	for i, name := range []string{"J2000Q0", "J2000Q1", "J2000Q2", "J2000Q3"} {
		if q[i], err = firstRecord(t, name); err != nil {
			return quat.Number{}, err
		}
	}
	q = geometry.Hat(q)
	return geometry.Quaternion([4]float64{q[0], q[1], q[2], q[3]}), nil
}

// j2000Position returns the first J2000 position record of a table
func (c *Cube) j2000Position(table string) (r3.Vector, error) {
	t, err := c.Table(table)
	if err != nil {
		return r3.Vector{}, err
	}
	var v r3.Vector
	if v.X, err = firstRecord(t, "J2000X"); err != nil {
		return r3.Vector{}, err
	}
	if v.Y, err = firstRecord(t, "J2000Y"); err != nil {
		return r3.Vector{}, err
	}
	if v.Z, err = firstRecord(t, "J2000Z"); err != nil {
		return r3.Vector{}, err
	}
	return v, nil
}

func firstRecord(t *Table, column string) (float64, error) {
	col, err := t.Column(column)
	if err != nil {
		return 0, err
	}
	if len(col) == 0 {
		return 0, errors.Wrapf(ErrKeyNotFound, "table %s has no records", t.Name)
	}
	return col[0], nil
}
