// searchtrail — log browser searches into your notes.
//
// A browser extension POSTs search-query events to this daemon over
// loopback HTTP; each accepted event becomes one markdown line in a
// note inside the configured vault.
package main

import "github.com/searchtrail/searchtrail/internal/cmd"

func main() {
	cmd.Execute()
}
