package main

import "cashflow/process/sanitize"

func main() {
	sanitize.Run()
}
