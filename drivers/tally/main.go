package main

import (
	tap "github.com/reservoir-data/tap-tally"
	driver "github.com/reservoir-data/tap-tally/drivers/tally/internal"
)

func main() {
	tap.RegisterDriver(&driver.Tally{})
}
