// Package blackhole models a Schwarzschild (non-rotating, uncharged) black
// hole in SI units.
//
// [Model] carries the mass and the Schwarzschild radius rs = 2GM/c² and
// offers two views of light bending:
//
//   - [Model.WeakFieldDeflection]: the Einstein angle 4GM/(c²b), valid far
//     from the hole, with +Inf marking captured rays
//   - [Model.Derive]: the full null-geodesic equations of motion as an
//     [ode.System], for rays that pass close enough that the weak-field
//     approximation breaks down
//
// Both views use Schwarzschild coordinates (t, r, θ, φ).
package blackhole
