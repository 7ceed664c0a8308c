// Command romdata resolves rom filenames and free-form searches to canonical
// game metadata using the configured providers.
package main
