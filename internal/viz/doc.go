// Package viz renders trajectory histories for people.
//
//   - [Canvas]: Braille-based pixel canvas for terminal output
//   - [Camera]: 3-D to 2-D projection with elevation, azimuth and zoom
//   - [Scene]: trajectories normalised into a unit cube, ready to project
//   - [RenderTerminal] and [RenderSVG]: the two output targets
//
// Each body is drawn in a colour picked from a small fixed palette. Picks are
// random per body but reproducible for a given seed.
package viz
