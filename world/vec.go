package world

import "math"

// Vec3 is a position or direction in block units.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float32   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float32         { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func sincos(x float32) (sin, cos float32) {
	s, c := math.Sincos(float64(x))
	return float32(s), float32(c)
}

// Basis returns the camera axes for a yaw and pitch. Yaw 0 looks down +Z
// and positive pitch looks up.
func Basis(yaw, pitch float32) (forward, right, up Vec3) {
	sinYaw, cosYaw := sincos(yaw)
	sinPitch, cosPitch := sincos(pitch)

	forward = Vec3{sinYaw * cosPitch, sinPitch, cosYaw * cosPitch}.Normalize()
	right = Vec3{cosYaw, 0, -sinYaw}.Normalize()
	up = Vec3{-sinYaw * sinPitch, cosPitch, -cosYaw * sinPitch}.Normalize()
	return forward, right, up
}

// FastFloor is floor for float32 that stays in integer arithmetic.
func FastFloor(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		return i - 1
	}
	return i
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
