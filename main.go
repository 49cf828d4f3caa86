package main

import "amberinstall/internal/amber"

func main() {
	amber.Main()
}
