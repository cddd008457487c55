// Command scribe is the operator CLI: configuration management, queue
// inspection, and external tool checks. The daemon lives in cmd/scribed.
package main
