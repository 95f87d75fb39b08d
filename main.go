// The main package for the jobscraper executable.
package main

import (
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/cmd"
)

func main() {
	cmd.Execute()
}
