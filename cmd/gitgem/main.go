package main

import (
	"github.com/gitgem/gitgem/pkg/cmd"
)

func main() {
	cmd.Execute()
}
