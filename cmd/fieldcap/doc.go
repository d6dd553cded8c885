// Command fieldcap is the operator CLI for the capture upload queue: admit
// captures, inspect and manage the queue, and maintain configuration.
package main
