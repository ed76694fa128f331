// Package power provides system sleep prevention for batch runs and a udev
// monitor for AC adapter transitions.
package power
