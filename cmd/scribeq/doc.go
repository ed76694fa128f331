// Command scribeq provides the daemon and its control CLI: queue management,
// batch run control, language detection, and configuration utilities.
package main
