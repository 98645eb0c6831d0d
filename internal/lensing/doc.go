// Package lensing renders the gravitational lensing of a background image
// by a Schwarzschild black hole placed at the image center.
//
// The renderer is a backward ray mapper: for each output pixel it asks
// where a light ray arriving at that pixel must have started, rotates the
// pixel's polar angle by the deflection α(r), and samples the source there.
// Two deflection models are available:
//
//   - [Weak]: the analytic Einstein angle 4GM/(c²b), evaluated per pixel
//   - [Geodesic]: full null-geodesic integration on a radial grid of
//     impact parameters ([BuildProfile]), interpolated across the image
//
// The spatial calibration ties image size to physics: [Options.Scale] is
// the distance from the hole to the image corner, measured in Schwarzschild
// radii. Pixels inside the horizon disk render black, as do pixels whose
// rays are captured.
//
// Everything here is pure computation over the inputs. Callers that want
// cancellation or parallelism wrap calls in their own goroutines.
package lensing
