// Package poller implements the long-poll loop used to wait for asynchronous
// remote operations identified by a correlation ID.
package poller
