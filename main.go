package main

import (
	"fmt"

	_ "github.com/bdombry/puppytrack/cache"
	_ "github.com/bdombry/puppytrack/logger"
	_ "github.com/bdombry/puppytrack/quiethours"
	_ "github.com/bdombry/puppytrack/schedule"
	_ "github.com/bdombry/puppytrack/settings"
	_ "github.com/bdombry/puppytrack/tracker"
)

func main() {
	fmt.Println("puppytrack")
}
