package main

import (
	_ "time/tzdata"

	"github.com/DeependraDeveloper/AMS-BACKEND/cmd"
)

func main() {
	cmd.Execute()
}
