package pointcloud

import (
	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// PointAndData is a tiny struct to couple a point with its data.
type PointAndData struct {
	P r3.Vector
	D Data
}

// Data describes data associated with a single point within a PointCloud.
type Data interface {
	// HasIntensity returns whether or not this point has an intensity
	// reading associated with it.
	HasIntensity() bool

	// Intensity returns the intensity reading, if present.
	Intensity() float64

	// SetIntensity sets the given intensity on the point.
	SetIntensity(i float64) Data
}

type basicData struct {
	hasIntensity bool
	intensity    float64
}

// NewBasicData returns a point datum that is solely positionally based.
func NewBasicData() Data {
	return &basicData{}
}

// NewIntensityData returns a point datum carrying an intensity reading.
func NewIntensityData(i float64) Data {
	return &basicData{hasIntensity: true, intensity: i}
}

func (bp *basicData) HasIntensity() bool {
	return bp.hasIntensity
}

func (bp *basicData) Intensity() float64 {
	return bp.intensity
}

func (bp *basicData) SetIntensity(i float64) Data {
	bp.hasIntensity = true
	bp.intensity = i
	return bp
}
